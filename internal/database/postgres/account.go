package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/skillswap/skillswap-api/internal/models"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"go.uber.org/zap"
)

const accountColumns = `user_id, coins, total_xp, level, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.UserID, &a.Coins, &a.TotalXP, &a.Level, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// ensureAccount creates the account with the starting balance on first use
func ensureAccount(ctx context.Context, q querier, userID string) error {
	if _, err := q.Exec(ctx, `INSERT INTO accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

// GetAccount returns the user's account, creating it if needed
func (c *Client) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	start := time.Now()
	operation := "getAccount"

	query := `
		INSERT INTO accounts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + accountColumns
	acc, err := scanAccount(c.pool.QueryRow(ctx, query, userID))

	observe(operation, start, err, zap.String("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// AwardPoints adds amount to the coin balance and logs the transaction
func (c *Client) AwardPoints(ctx context.Context, userID string, amount int, reason string) (*models.Account, error) {
	start := time.Now()
	operation := "awardPoints"

	var acc *models.Account
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		if err := ensureAccount(ctx, tx, userID); err != nil {
			return err
		}

		query := `
			UPDATE accounts SET coins = coins + $2, updated_at = NOW()
			WHERE user_id = $1 AND coins + $2 >= 0
			RETURNING ` + accountColumns
		var err error
		acc, err = scanAccount(tx.QueryRow(ctx, query, userID, amount))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("balance cannot absorb %d coins: %w", amount, pkgerrors.ErrInsufficientState)
		}
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO coin_transactions (user_id, amount, reason) VALUES ($1, $2, $3)`,
			userID, amount, reason)
		if err != nil {
			return fmt.Errorf("failed to record coin transaction: %w", err)
		}
		return nil
	})

	observe(operation, start, err, zap.String("user_id", userID), zap.Int("amount", amount), zap.String("reason", reason))
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// GrantExchangeXP inserts the grant only if none exists for (user, exchange)
func (c *Client) GrantExchangeXP(ctx context.Context, userID, exchangeID string, amount int) (*models.Account, int, error) {
	return c.applyExchangeXP(ctx, "grantExchangeXP", userID, exchangeID, amount, false)
}

// SetExchangeXP replaces the grant for (user, exchange) with total
func (c *Client) SetExchangeXP(ctx context.Context, userID, exchangeID string, total int) (*models.Account, int, error) {
	return c.applyExchangeXP(ctx, "setExchangeXP", userID, exchangeID, total, true)
}

func (c *Client) applyExchangeXP(ctx context.Context, operation, userID, exchangeID string, amount int, replace bool) (*models.Account, int, error) {
	start := time.Now()

	var acc *models.Account
	delta := 0
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		if err := ensureAccount(ctx, tx, userID); err != nil {
			return err
		}

		var previous int
		err := tx.QueryRow(ctx,
			`SELECT amount FROM xp_grants WHERE user_id = $1 AND exchange_id = $2 FOR UPDATE`,
			userID, exchangeID).Scan(&previous)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			_, err = tx.Exec(ctx,
				`INSERT INTO xp_grants (user_id, exchange_id, amount) VALUES ($1, $2, $3)`,
				userID, exchangeID, amount)
			delta = amount
		case err != nil:
			return fmt.Errorf("failed to read xp grant: %w", err)
		case replace:
			_, err = tx.Exec(ctx,
				`UPDATE xp_grants SET amount = $3, updated_at = NOW() WHERE user_id = $1 AND exchange_id = $2`,
				userID, exchangeID, amount)
			delta = amount - previous
		}
		if err != nil {
			return fmt.Errorf("failed to write xp grant: %w", err)
		}

		acc, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts SET total_xp = total_xp + $2, updated_at = NOW() WHERE user_id = $1 RETURNING `+accountColumns,
			userID, delta))
		if err != nil {
			return fmt.Errorf("failed to update xp: %w", err)
		}
		return nil
	})

	observe(operation, start, err, zap.String("user_id", userID), zap.String("exchange_id", exchangeID), zap.Int("delta", delta))
	if err != nil {
		return nil, 0, err
	}
	return acc, delta, nil
}

// RaiseLevel only ever moves the level up
func (c *Client) RaiseLevel(ctx context.Context, userID string, level int) (bool, error) {
	start := time.Now()
	operation := "raiseLevel"

	tag, err := c.pool.Exec(ctx,
		`UPDATE accounts SET level = $2, updated_at = NOW() WHERE user_id = $1 AND level < $2`,
		userID, level)

	observe(operation, start, err, zap.String("user_id", userID), zap.Int("level", level))
	if err != nil {
		return false, fmt.Errorf("failed to raise level: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AddAchievement records code for the user once
func (c *Client) AddAchievement(ctx context.Context, userID, code string) (bool, error) {
	start := time.Now()
	operation := "addAchievement"

	var added bool
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		if err := ensureAccount(ctx, tx, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO achievements (user_id, code) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, code)
		if err != nil {
			return fmt.Errorf("failed to add achievement: %w", err)
		}
		added = tag.RowsAffected() == 1
		return nil
	})

	observe(operation, start, err, zap.String("user_id", userID), zap.String("code", code))
	return added, err
}

// ListAchievements returns the user's achievements, oldest first
func (c *Client) ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	start := time.Now()
	operation := "listAchievements"

	achievements := []*models.Achievement{}
	rows, err := c.pool.Query(ctx,
		`SELECT code, awarded_at FROM achievements WHERE user_id = $1 ORDER BY awarded_at ASC`, userID)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var a models.Achievement
			if err = rows.Scan(&a.Code, &a.AwardedAt); err != nil {
				break
			}
			achievements = append(achievements, &a)
		}
		if err == nil {
			err = rows.Err()
		}
	}

	observe(operation, start, err, zap.String("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}
