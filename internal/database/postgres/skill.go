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
	"go.uber.org/zap"
)

const assertionColumns = `id, user_id, skill_id, level, can_teach, wants_to_learn, created_at, updated_at`

// levelRank orders levels in SQL the same way models.SkillLevel.Rank does
const levelRank = `array_position($3::text[], level)`

// ListSkills returns the whole catalog
func (c *Client) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	start := time.Now()
	operation := "listSkills"

	skills := []*models.Skill{}
	rows, err := c.pool.Query(ctx, `SELECT id, name, category, created_at FROM skills ORDER BY name`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var s *models.Skill
			if s, err = models.ScanSkill(rows); err != nil {
				break
			}
			skills = append(skills, s)
		}
		if err == nil {
			err = rows.Err()
		}
	}

	observe(operation, start, err, zap.Int("count", len(skills)))
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

// GetSkill returns a catalog entry by ID
func (c *Client) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	start := time.Now()
	operation := "getSkill"

	s, err := models.ScanSkill(c.pool.QueryRow(ctx, `SELECT id, name, category, created_at FROM skills WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		err = pkgerrors.NotFoundError("skill")
	}

	observe(operation, start, err, zap.String("skill_id", id))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSkill adds a skill to the catalog
func (c *Client) CreateSkill(ctx context.Context, skill *models.Skill) (*models.Skill, error) {
	start := time.Now()
	operation := "createSkill"

	err := c.pool.QueryRow(ctx,
		`INSERT INTO skills (id, name, category) VALUES ($1, $2, $3) RETURNING created_at`,
		skill.ID, skill.Name, nilIfEmpty(skill.Category),
	).Scan(&skill.CreatedAt)
	err = mapConstraintError(err, "skill", "skill")

	observe(operation, start, err, zap.String("skill_id", skill.ID))
	if err != nil {
		return nil, err
	}
	return skill, nil
}

// GetAssertion returns the user's assertion for a skill
func (c *Client) GetAssertion(ctx context.Context, userID, skillID string) (*models.SkillAssertion, error) {
	start := time.Now()
	operation := "getAssertion"

	query := `SELECT ` + assertionColumns + ` FROM user_skills WHERE user_id = $1 AND skill_id = $2`
	a, err := models.ScanAssertion(c.pool.QueryRow(ctx, query, userID, skillID))
	if errors.Is(err, pgx.ErrNoRows) {
		err = pkgerrors.NotFoundError("skill assertion")
	}

	observe(operation, start, err, zap.String("user_id", userID), zap.String("skill_id", skillID))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssertions returns all of a user's assertions
func (c *Client) ListAssertions(ctx context.Context, userID string) ([]*models.SkillAssertion, error) {
	start := time.Now()
	operation := "listAssertions"

	assertions := []*models.SkillAssertion{}
	rows, err := c.pool.Query(ctx, `SELECT `+assertionColumns+` FROM user_skills WHERE user_id = $1 ORDER BY skill_id`, userID)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var a *models.SkillAssertion
			if a, err = models.ScanAssertion(rows); err != nil {
				break
			}
			assertions = append(assertions, a)
		}
		if err == nil {
			err = rows.Err()
		}
	}

	observe(operation, start, err, zap.String("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list assertions: %w", err)
	}
	return assertions, nil
}

// UpsertAssertion creates or replaces the assertion for (user, skill)
func (c *Client) UpsertAssertion(ctx context.Context, assertion *models.SkillAssertion) (*models.SkillAssertion, error) {
	start := time.Now()
	operation := "upsertAssertion"

	query := `
		INSERT INTO user_skills (id, user_id, skill_id, level, can_teach, wants_to_learn)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, skill_id) DO UPDATE
		SET level = EXCLUDED.level,
		    can_teach = EXCLUDED.can_teach,
		    wants_to_learn = EXCLUDED.wants_to_learn,
		    updated_at = NOW()
		RETURNING ` + assertionColumns

	a, err := models.ScanAssertion(c.pool.QueryRow(ctx, query,
		uuid.NewString(),
		assertion.UserID,
		assertion.SkillID,
		assertion.Level,
		assertion.CanTeach,
		assertion.WantsToLearn,
	))
	err = mapConstraintError(err, "skill assertion", "skill")

	observe(operation, start, err, zap.String("user_id", assertion.UserID), zap.String("skill_id", assertion.SkillID))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAssertion removes the user's assertion. Exchanges referencing it keep
// their history with a NULL assertion reference.
func (c *Client) DeleteAssertion(ctx context.Context, userID, skillID string) error {
	start := time.Now()
	operation := "deleteAssertion"

	tag, err := c.pool.Exec(ctx, `DELETE FROM user_skills WHERE user_id = $1 AND skill_id = $2`, userID, skillID)
	if err == nil && tag.RowsAffected() == 0 {
		err = pkgerrors.NotFoundError("skill assertion")
	}

	observe(operation, start, err, zap.String("user_id", userID), zap.String("skill_id", skillID))
	return err
}

// FindTeachers returns teachers at minLevel or above, most proficient first
func (c *Client) FindTeachers(ctx context.Context, skillID string, minLevel models.SkillLevel, excludeUserID string) ([]models.PartnerCandidate, error) {
	query := `
		SELECT user_id, level FROM user_skills
		WHERE skill_id = $1 AND can_teach AND user_id <> $2
		  AND ` + levelRank + ` >= $4
		ORDER BY ` + levelRank + ` DESC, updated_at DESC
	`
	return c.findPartners(ctx, "findTeachers", query, skillID, excludeUserID, minLevel.Rank())
}

// FindLearners returns learners at maxLevel or below, least proficient first
func (c *Client) FindLearners(ctx context.Context, skillID string, maxLevel models.SkillLevel, excludeUserID string) ([]models.PartnerCandidate, error) {
	query := `
		SELECT user_id, level FROM user_skills
		WHERE skill_id = $1 AND wants_to_learn AND user_id <> $2
		  AND ` + levelRank + ` <= $4
		ORDER BY ` + levelRank + ` ASC, updated_at DESC
	`
	return c.findPartners(ctx, "findLearners", query, skillID, excludeUserID, maxLevel.Rank())
}

func (c *Client) findPartners(ctx context.Context, operation, query, skillID, excludeUserID string, rank int) ([]models.PartnerCandidate, error) {
	start := time.Now()

	candidates := []models.PartnerCandidate{}
	rows, err := c.pool.Query(ctx, query, skillID, excludeUserID, toStrings(models.SkillLevels), rank)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var p models.PartnerCandidate
			if err = rows.Scan(&p.UserID, &p.Level); err != nil {
				break
			}
			candidates = append(candidates, p)
		}
		if err == nil {
			err = rows.Err()
		}
	}

	observe(operation, start, err, zap.String("skill_id", skillID), zap.Int("count", len(candidates)))
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", operation, err)
	}
	return candidates, nil
}
