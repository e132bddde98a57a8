package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillswap/skillswap-api/internal/cache"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/repository"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/slug"
	"go.uber.org/zap"
)

// SkillService handles the skill catalog and users' skill assertions
type SkillService struct {
	store repository.SkillStore
	cache *cache.SkillCache
}

// NewSkillService creates a new skill service instance
func NewSkillService(store repository.SkillStore, skillCache *cache.SkillCache) *SkillService {
	return &SkillService{
		store: store,
		cache: skillCache,
	}
}

// ListSkills returns the catalog sorted by name
func (s *SkillService) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	skills, err := s.cache.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

// GetSkill returns a catalog entry. A cache miss falls through to the store
// so skills created by another instance are visible before the next refresh.
func (s *SkillService) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	skill, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		logger.Warn("Skill cache unavailable, reading from store",
			zap.String("skill_id", id),
			zap.Error(err))
	}
	if ok {
		return skill, nil
	}

	skill, err = s.store.GetSkill(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "skill")
	}
	return skill, nil
}

// CreateSkill adds a skill to the catalog under the slug of its name
func (s *SkillService) CreateSkill(ctx context.Context, req *models.CreateSkillRequest) (*models.Skill, error) {
	name := strings.TrimSpace(req.Name)
	id := slug.Generate(name)
	if id == "" {
		return nil, ErrInvalidSkillName
	}

	skill, err := s.store.CreateSkill(ctx, &models.Skill{
		ID:       id,
		Name:     name,
		Category: strings.TrimSpace(req.Category),
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrConflict) {
			return nil, ErrSkillExists
		}
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}

	s.cache.Invalidate()
	logger.Info("Skill created",
		zap.String("skill_id", skill.ID),
		zap.String("name", skill.Name))

	return skill, nil
}

// GetAssertion returns userID's assertion for skillID
func (s *SkillService) GetAssertion(ctx context.Context, userID, skillID string) (*models.SkillAssertion, error) {
	assertion, err := s.store.GetAssertion(ctx, userID, skillID)
	if err != nil {
		return nil, mapStoreError(err, "skill assertion")
	}
	return assertion, nil
}

// ListUserSkills returns all of userID's assertions
func (s *SkillService) ListUserSkills(ctx context.Context, userID string) ([]*models.SkillAssertion, error) {
	assertions, err := s.store.ListAssertions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill assertions: %w", err)
	}
	return assertions, nil
}

// UpsertAssertion creates or replaces userID's assertion for skillID
func (s *SkillService) UpsertAssertion(ctx context.Context, userID, skillID string, req *models.UpsertAssertionRequest) (*models.SkillAssertion, error) {
	if !req.Level.IsValid() {
		return nil, ErrInvalidLevel
	}
	if _, err := s.GetSkill(ctx, skillID); err != nil {
		return nil, err
	}

	assertion, err := s.store.UpsertAssertion(ctx, &models.SkillAssertion{
		UserID:       userID,
		SkillID:      skillID,
		Level:        req.Level,
		CanTeach:     req.CanTeach,
		WantsToLearn: req.WantsToLearn,
	})
	if err != nil {
		return nil, mapStoreError(err, "skill assertion")
	}

	logger.Info("Skill assertion saved",
		zap.String("user_id", userID),
		zap.String("skill_id", skillID),
		zap.String("level", string(assertion.Level)),
		zap.Bool("can_teach", assertion.CanTeach),
		zap.Bool("wants_to_learn", assertion.WantsToLearn))

	return assertion, nil
}

// DeleteAssertion removes userID's assertion for skillID. Exchanges that
// referenced it keep their history with the reference cleared.
func (s *SkillService) DeleteAssertion(ctx context.Context, userID, skillID string) error {
	if err := s.store.DeleteAssertion(ctx, userID, skillID); err != nil {
		return mapStoreError(err, "skill assertion")
	}
	logger.Info("Skill assertion deleted",
		zap.String("user_id", userID),
		zap.String("skill_id", skillID))
	return nil
}

// FindMentors lists users who can teach skillID at or above the level the
// caller wants to learn it at. Callers without a learning assertion see
// every teacher.
func (s *SkillService) FindMentors(ctx context.Context, userID, skillID string) (*models.PartnersResponse, error) {
	if _, err := s.GetSkill(ctx, skillID); err != nil {
		return nil, err
	}

	minLevel := models.LevelBeginner
	own, err := s.store.GetAssertion(ctx, userID, skillID)
	switch {
	case err == nil && own.WantsToLearn:
		minLevel = own.Level
	case err != nil && !pkgerrors.Is(err, pkgerrors.ErrNotFound):
		return nil, fmt.Errorf("failed to load caller assertion: %w", err)
	}

	candidates, err := s.store.FindTeachers(ctx, skillID, minLevel, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find mentors: %w", err)
	}
	return partnersResponse(skillID, candidates), nil
}

// FindLearners lists users who want to learn skillID at or below the level
// the caller teaches it at. The caller must be able to teach the skill.
func (s *SkillService) FindLearners(ctx context.Context, userID, skillID string) (*models.PartnersResponse, error) {
	if _, err := s.GetSkill(ctx, skillID); err != nil {
		return nil, err
	}

	own, err := s.store.GetAssertion(ctx, userID, skillID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrRoleMismatch
		}
		return nil, fmt.Errorf("failed to load caller assertion: %w", err)
	}
	if !own.CanTeach {
		return nil, ErrRoleMismatch
	}

	candidates, err := s.store.FindLearners(ctx, skillID, own.Level, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find learners: %w", err)
	}
	return partnersResponse(skillID, candidates), nil
}

func partnersResponse(skillID string, candidates []models.PartnerCandidate) *models.PartnersResponse {
	if candidates == nil {
		candidates = []models.PartnerCandidate{}
	}
	return &models.PartnersResponse{
		SkillID:    skillID,
		Candidates: candidates,
		Total:      len(candidates),
	}
}

// mapStoreError turns a store not-found into ErrNotFound and wraps the rest
func mapStoreError(err error, resource string) error {
	if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		return fmt.Errorf("%s: %w", resource, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
