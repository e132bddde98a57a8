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
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"go.uber.org/zap"
)

const selectExchange = `SELECT ` + models.ExchangeColumns + ` FROM exchanges`

// CreateExchange inserts a pending exchange unless the pair already has an
// open one for the same skill
func (c *Client) CreateExchange(ctx context.Context, ex *models.Exchange) (*models.Exchange, error) {
	start := time.Now()
	operation := "createExchange"

	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	ex.Status = models.StatusPending

	var existing *models.Exchange
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		// The advisory lock serializes initiations for one pair and skill,
		// so the lookup below cannot miss a concurrent insert.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, pairKey(ex)); err != nil {
			return fmt.Errorf("failed to lock exchange pair: %w", err)
		}

		if err := lockAssertionRoles(ctx, tx, ex); err != nil {
			return err
		}

		found, err := findOpenExchange(ctx, tx, ex.MentorID, ex.LearnerID, ex.SkillID)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return pkgerrors.ConflictError("open exchange")
		}

		return insertExchange(ctx, tx, ex)
	})

	// the partial unique index is the last line of defence
	if isUniqueViolation(err) {
		found, lookupErr := findOpenExchange(ctx, c.pool, ex.MentorID, ex.LearnerID, ex.SkillID)
		if lookupErr != nil {
			logger.Warn("Failed to look up the exchange blocking an insert",
				zap.String("exchange_id", ex.ID),
				zap.Error(lookupErr))
		}
		existing = found
	}
	err = mapConstraintError(err, "open exchange", "skill assertion")

	observe(operation, start, err, zap.String("exchange_id", ex.ID))
	if err != nil {
		return existing, err
	}
	return ex, nil
}

// lockAssertionRoles takes a share lock on both assertions and re-checks the
// flags the exchange depends on, so a concurrent update cannot revoke them
// between the caller's check and the insert
func lockAssertionRoles(ctx context.Context, tx pgx.Tx, ex *models.Exchange) error {
	mentorCanTeach, _, err := lockAssertion(ctx, tx, ex.MentorAssertionID)
	if err != nil {
		return err
	}
	_, learnerWantsToLearn, err := lockAssertion(ctx, tx, ex.LearnerAssertionID)
	if err != nil {
		return err
	}
	return assertionRolesError(mentorCanTeach, learnerWantsToLearn)
}

// lockAssertion returns the role flags of one assertion; an exchange without
// an assertion reference has nothing to re-check
func lockAssertion(ctx context.Context, tx pgx.Tx, id *string) (canTeach, wantsToLearn bool, err error) {
	if id == nil {
		return true, true, nil
	}
	err = tx.QueryRow(ctx,
		`SELECT can_teach, wants_to_learn FROM user_skills WHERE id = $1 FOR SHARE`, *id,
	).Scan(&canTeach, &wantsToLearn)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, pkgerrors.NotFoundError("skill assertion")
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to lock skill assertion: %w", err)
	}
	return canTeach, wantsToLearn, nil
}

// assertionRolesError reports which side no longer holds its role
func assertionRolesError(mentorCanTeach, learnerWantsToLearn bool) error {
	switch {
	case !mentorCanTeach:
		return pkgerrors.PreconditionError("mentor can no longer teach the skill")
	case !learnerWantsToLearn:
		return pkgerrors.PreconditionError("learner no longer wants to learn the skill")
	default:
		return nil
	}
}

func insertExchange(ctx context.Context, tx pgx.Tx, ex *models.Exchange) error {
	query := `
		INSERT INTO exchanges (
			id, mentor_id, learner_id, skill_id, mentor_skill_id, learner_skill_id,
			scheduled_time, duration_minutes, meeting_type, location, status, meeting_link, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		ex.ID,
		ex.MentorID,
		ex.LearnerID,
		ex.SkillID,
		ex.MentorAssertionID,
		ex.LearnerAssertionID,
		ex.ScheduledTime,
		ex.DurationMinutes,
		ex.MeetingType,
		nilIfEmpty(ex.Location),
		ex.Status,
		nilIfEmpty(ex.MeetingLink),
		nilIfEmpty(ex.Notes),
	).Scan(&ex.CreatedAt, &ex.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert exchange: %w", err)
	}
	return nil
}

// findOpenExchange returns nil without error when the pair has no open exchange
func findOpenExchange(ctx context.Context, q querier, userA, userB, skillID string) (*models.Exchange, error) {
	query := selectExchange + `
		WHERE LEAST(mentor_id, learner_id) = LEAST($1::text, $2::text)
		  AND GREATEST(mentor_id, learner_id) = GREATEST($1::text, $2::text)
		  AND skill_id = $3
		  AND status IN ('pending', 'accepted')
		LIMIT 1
	`

	ex, err := models.ScanExchange(q.QueryRow(ctx, query, userA, userB, skillID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up open exchange: %w", err)
	}
	return ex, nil
}

// pairKey is the same for (a, b) and (b, a)
func pairKey(ex *models.Exchange) string {
	a, b := ex.MentorID, ex.LearnerID
	if b < a {
		a, b = b, a
	}
	return a + "|" + b + "|" + ex.SkillID
}

// GetExchange returns a single exchange
func (c *Client) GetExchange(ctx context.Context, id string) (*models.Exchange, error) {
	start := time.Now()
	operation := "getExchange"

	ex, err := models.ScanExchange(c.pool.QueryRow(ctx, selectExchange+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		err = pkgerrors.NotFoundError("exchange")
	}

	observe(operation, start, err, zap.String("exchange_id", id))
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// ListExchangesForUser returns the user's exchanges, newest first
func (c *Client) ListExchangesForUser(ctx context.Context, userID string, statuses []models.ExchangeStatus) ([]*models.Exchange, error) {
	start := time.Now()
	operation := "listExchangesForUser"

	query := selectExchange + `
		WHERE (mentor_id = $1 OR learner_id = $1)
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at DESC
	`

	rows, err := c.pool.Query(ctx, query, userID, toStrings(statuses))
	var exchanges []*models.Exchange
	if err == nil {
		exchanges, err = models.ScanExchanges(rows)
	}

	observe(operation, start, err, zap.String("user_id", userID), zap.Int("count", len(exchanges)))
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return exchanges, nil
}

// ListUpcoming returns accepted exchanges scheduled from the given time on
func (c *Client) ListUpcoming(ctx context.Context, userID string, from time.Time) ([]*models.Exchange, error) {
	start := time.Now()
	operation := "listUpcomingExchanges"

	query := selectExchange + `
		WHERE (mentor_id = $1 OR learner_id = $1)
		  AND status = 'accepted'
		  AND scheduled_time >= $2
		ORDER BY scheduled_time ASC
	`

	rows, err := c.pool.Query(ctx, query, userID, from)
	var exchanges []*models.Exchange
	if err == nil {
		exchanges, err = models.ScanExchanges(rows)
	}

	observe(operation, start, err, zap.String("user_id", userID), zap.Int("count", len(exchanges)))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming exchanges: %w", err)
	}
	return exchanges, nil
}

// UpdateExchange applies mutate to the exchange under SELECT ... FOR UPDATE
func (c *Client) UpdateExchange(ctx context.Context, id string, mutate func(ex *models.Exchange) error) (*models.Exchange, error) {
	start := time.Now()
	operation := "updateExchange"

	var updated *models.Exchange
	var rejected error
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		ex, err := models.ScanExchange(tx.QueryRow(ctx, selectExchange+` WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return pkgerrors.NotFoundError("exchange")
		}
		if err != nil {
			return fmt.Errorf("failed to lock exchange: %w", err)
		}

		if rejected = mutate(ex); rejected != nil {
			return rejected
		}

		query := `
			UPDATE exchanges
			SET status = $2, meeting_link = $3, completed_at = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, query, ex.ID, ex.Status, nilIfEmpty(ex.MeetingLink), ex.CompletedAt).Scan(&ex.UpdatedAt); err != nil {
			return fmt.Errorf("failed to update exchange: %w", err)
		}

		updated = ex
		return nil
	})

	// a refused mutation is a business outcome, not a store failure
	if rejected != nil {
		recordMetrics(operation, "rejected", metrics.MeasureDuration(start))
		return nil, rejected
	}

	observe(operation, start, err, zap.String("exchange_id", id))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CountCompleted counts completed exchanges the user took part in
func (c *Client) CountCompleted(ctx context.Context, userID string) (int, error) {
	return c.count(ctx, "countCompleted", `
		SELECT COUNT(*) FROM exchanges
		WHERE (mentor_id = $1 OR learner_id = $1) AND status = 'completed'
	`, userID)
}

// CountCompletedAsMentor counts completed exchanges where the user taught skillID
func (c *Client) CountCompletedAsMentor(ctx context.Context, userID, skillID string) (int, error) {
	return c.count(ctx, "countCompletedAsMentor", `
		SELECT COUNT(*) FROM exchanges
		WHERE mentor_id = $1 AND skill_id = $2 AND status = 'completed'
	`, userID, skillID)
}

func (c *Client) count(ctx context.Context, operation, query string, args ...any) (int, error) {
	start := time.Now()

	var n int
	err := c.pool.QueryRow(ctx, query, args...).Scan(&n)

	observe(operation, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", operation, err)
	}
	return n, nil
}
