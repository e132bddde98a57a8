package services

import (
	"context"
	"fmt"

	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/repository"
)

const (
	DefaultNotificationsLimit = 50
	MaxNotificationsLimit     = 200
)

// AccountService exposes a user's balance, progress and notifications
type AccountService struct {
	accounts      repository.AccountStore
	notifications repository.NotificationStore
}

// NewAccountService creates a new account service instance
func NewAccountService(accounts repository.AccountStore, notifications repository.NotificationStore) *AccountService {
	return &AccountService{
		accounts:      accounts,
		notifications: notifications,
	}
}

// GetAccount returns the caller's account, creating it with the starting
// balance on first access
func (s *AccountService) GetAccount(ctx context.Context, userID string) (*models.AccountResponse, error) {
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	achievements, err := s.accounts.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	resp := &models.AccountResponse{
		Account:      account,
		Achievements: achievements,
	}
	if next, ok := NextLevelXP(account.Level); ok {
		resp.NextLevelXP = &next
	}
	return resp, nil
}

// ListNotifications returns the newest notifications for userID. A limit
// outside 1..MaxNotificationsLimit falls back to the default.
func (s *AccountService) ListNotifications(ctx context.Context, userID string, limit int) (*models.NotificationsResponse, error) {
	if limit <= 0 || limit > MaxNotificationsLimit {
		limit = DefaultNotificationsLimit
	}

	notifications, err := s.notifications.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return &models.NotificationsResponse{
		Notifications: notifications,
		Total:         len(notifications),
	}, nil
}
