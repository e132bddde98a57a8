package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap-api/internal/models"
	"go.uber.org/zap"
)

// CreateNotification stores a notification
func (c *Client) CreateNotification(ctx context.Context, n *models.Notification) error {
	start := time.Now()
	operation := "createNotification"

	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	err := c.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, message, exchange_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, n.ID, n.UserID, n.Type, n.Message, n.ExchangeID).Scan(&n.CreatedAt)

	observe(operation, start, err, zap.String("user_id", n.UserID), zap.String("type", string(n.Type)))
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the user's most recent notifications
func (c *Client) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	start := time.Now()
	operation := "listNotifications"

	notifications := []*models.Notification{}
	rows, err := c.pool.Query(ctx, `
		SELECT id, user_id, type, message, exchange_id, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var n models.Notification
			if err = rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.ExchangeID, &n.CreatedAt); err != nil {
				break
			}
			notifications = append(notifications, &n)
		}
		if err == nil {
			err = rows.Err()
		}
	}

	observe(operation, start, err, zap.String("user_id", userID), zap.Int("count", len(notifications)))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
