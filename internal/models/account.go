package models

import "time"

// Account holds a user's SwapCoins balance and experience
type Account struct {
	UserID    string    `json:"userId"`
	Coins     int       `json:"coins"`
	TotalXP   int       `json:"totalXp"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Achievement is a one-time badge awarded to a user
type Achievement struct {
	Code      string    `json:"code"`
	AwardedAt time.Time `json:"awardedAt"`
}

// AccountResponse is the caller's account view
type AccountResponse struct {
	*Account
	NextLevelXP  *int           `json:"nextLevelXp"` // nil at max level
	Achievements []*Achievement `json:"achievements"`
}
