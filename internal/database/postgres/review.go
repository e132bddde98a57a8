package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/skillswap/skillswap-api/internal/models"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"go.uber.org/zap"
)

// CreateReview inserts a review while holding the exchange row lock, so the
// exchange cannot change status between check and insert
func (c *Client) CreateReview(ctx context.Context, review *models.Review, check func(ex *models.Exchange) error) (*models.Review, error) {
	start := time.Now()
	operation := "createReview"

	if review.ID == "" {
		review.ID = uuid.NewString()
	}

	var rejected error
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		ex, err := models.ScanExchange(tx.QueryRow(ctx, selectExchange+` WHERE id = $1 FOR UPDATE`, review.ExchangeID))
		if errors.Is(err, pgx.ErrNoRows) {
			return pkgerrors.NotFoundError("exchange")
		}
		if err != nil {
			return fmt.Errorf("failed to lock exchange: %w", err)
		}

		if rejected = check(ex); rejected != nil {
			return rejected
		}

		query := `
			INSERT INTO reviews (id, exchange_id, reviewer_id, reviewed_user_id, rating, comment)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`
		err = tx.QueryRow(ctx, query,
			review.ID,
			review.ExchangeID,
			review.ReviewerID,
			review.ReviewedUserID,
			review.Rating,
			review.Comment,
		).Scan(&review.CreatedAt)
		if isUniqueViolation(err) {
			return pkgerrors.ConflictError("review")
		}
		if err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
		return nil
	})

	if rejected != nil {
		recordMetrics(operation, "rejected", metrics.MeasureDuration(start))
		return nil, rejected
	}

	observe(operation, start, err,
		zap.String("exchange_id", review.ExchangeID),
		zap.String("reviewer_id", review.ReviewerID))
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviewsForExchange returns the (at most two) reviews of an exchange
func (c *Client) ListReviewsForExchange(ctx context.Context, exchangeID string) ([]*models.Review, error) {
	start := time.Now()
	operation := "listReviewsForExchange"

	query := `
		SELECT id, exchange_id, reviewer_id, reviewed_user_id, rating, comment, created_at
		FROM reviews
		WHERE exchange_id = $1
		ORDER BY created_at ASC
	`

	reviews := []*models.Review{}
	rows, err := c.pool.Query(ctx, query, exchangeID)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var r models.Review
			if err = rows.Scan(&r.ID, &r.ExchangeID, &r.ReviewerID, &r.ReviewedUserID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
				break
			}
			reviews = append(reviews, &r)
		}
		if err == nil {
			err = rows.Err()
		}
	}

	observe(operation, start, err, zap.String("exchange_id", exchangeID))
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
