package models

import "time"

// NotificationType classifies a notification
type NotificationType string

const (
	NotifyExchangeRequest   NotificationType = "exchange_request"
	NotifyNewEvent          NotificationType = "new_event"
	NotifyExchangeRejected  NotificationType = "exchange_rejected"
	NotifyExchangeCancelled NotificationType = "exchange_cancelled"
	NotifyExchangeCompleted NotificationType = "exchange_completed"
	NotifyNewReview         NotificationType = "new_review"
	NotifyLevelUp           NotificationType = "level_up"
	NotifyAchievement       NotificationType = "achievement"
)

// Notification is a message addressed to one user
type Notification struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	ExchangeID *string          `json:"exchangeId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// NotificationsResponse is the response for listing notifications
type NotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	Total         int             `json:"total"`
}
