package models

import "time"

// Review is one participant's rating of the other after a completed exchange
type Review struct {
	ID             string    `json:"id"`
	ExchangeID     string    `json:"exchangeId"`
	ReviewerID     string    `json:"reviewerId"`
	ReviewedUserID string    `json:"reviewedUserId"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SubmitReviewRequest represents a review submission from a participant
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=5000"`
}

// SubmitReviewResponse represents the response after submitting a review
type SubmitReviewResponse struct {
	Success bool    `json:"success"`
	Review  *Review `json:"review,omitempty"`
}
