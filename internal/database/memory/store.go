// Package memory is an in-process implementation of repository.Store used
// with DB_WORK_OFFLINE and in tests. A single mutex stands in for the row
// locks and unique indexes of the PostgreSQL schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/repository"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
)

const startingCoins = 100

type xpKey struct{ userID, exchangeID string }

type reviewKey struct{ exchangeID, reviewerID string }

type assertionKey struct{ userID, skillID string }

// Store keeps every table in maps guarded by one mutex
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	skills        map[string]*models.Skill
	assertions    map[assertionKey]*models.SkillAssertion
	exchanges     map[string]*models.Exchange
	reviews       map[reviewKey]*models.Review
	accounts      map[string]*models.Account
	coinLog       []coinTransaction
	xpGrants      map[xpKey]int
	achievements  map[string][]*models.Achievement
	notifications []*models.Notification
}

type coinTransaction struct {
	UserID string
	Amount int
	Reason string
}

var _ repository.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		now:          time.Now,
		skills:       make(map[string]*models.Skill),
		assertions:   make(map[assertionKey]*models.SkillAssertion),
		exchanges:    make(map[string]*models.Exchange),
		reviews:      make(map[reviewKey]*models.Review),
		accounts:     make(map[string]*models.Account),
		xpGrants:     make(map[xpKey]int),
		achievements: make(map[string][]*models.Achievement),
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateExchange inserts a pending exchange unless the pair already has an open one
func (s *Store) CreateExchange(ctx context.Context, ex *models.Exchange) (*models.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []*string{ex.MentorAssertionID, ex.LearnerAssertionID} {
		if id != nil && s.assertionByID(*id) == nil {
			return nil, pkgerrors.NotFoundError("skill assertion")
		}
	}
	if ex.MentorAssertionID != nil && !s.assertionByID(*ex.MentorAssertionID).CanTeach {
		return nil, pkgerrors.PreconditionError("mentor can no longer teach the skill")
	}
	if ex.LearnerAssertionID != nil && !s.assertionByID(*ex.LearnerAssertionID).WantsToLearn {
		return nil, pkgerrors.PreconditionError("learner no longer wants to learn the skill")
	}
	for _, existing := range s.exchanges {
		if existing.Status.IsOpen() && existing.SkillID == ex.SkillID && samePair(existing, ex) {
			return copyExchange(existing), pkgerrors.ConflictError("open exchange")
		}
	}

	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	now := s.now()
	ex.Status = models.StatusPending
	ex.CreatedAt = now
	ex.UpdatedAt = now
	s.exchanges[ex.ID] = copyExchange(ex)

	return ex, nil
}

// GetExchange returns a copy of the exchange
func (s *Store) GetExchange(ctx context.Context, id string) (*models.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.exchanges[id]
	if !ok {
		return nil, pkgerrors.NotFoundError("exchange")
	}
	return copyExchange(ex), nil
}

// ListExchangesForUser returns the user's exchanges, optionally filtered by status
func (s *Store) ListExchangesForUser(ctx context.Context, userID string, statuses []models.ExchangeStatus) ([]*models.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Exchange{}
	for _, ex := range s.exchanges {
		if ex.IsParticipant(userID) && (len(statuses) == 0 || containsStatus(statuses, ex.Status)) {
			out = append(out, copyExchange(ex))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListUpcoming returns the user's accepted exchanges scheduled at or after from
func (s *Store) ListUpcoming(ctx context.Context, userID string, from time.Time) ([]*models.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Exchange{}
	for _, ex := range s.exchanges {
		if ex.IsParticipant(userID) && ex.Status == models.StatusAccepted && !ex.ScheduledTime.Before(from) {
			out = append(out, copyExchange(ex))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

// UpdateExchange applies mutate under the store lock and saves the result
func (s *Store) UpdateExchange(ctx context.Context, id string, mutate func(ex *models.Exchange) error) (*models.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.exchanges[id]
	if !ok {
		return nil, pkgerrors.NotFoundError("exchange")
	}

	ex := copyExchange(stored)
	if err := mutate(ex); err != nil {
		return nil, err
	}
	ex.UpdatedAt = s.now()
	s.exchanges[id] = copyExchange(ex)

	return ex, nil
}

// CountCompleted counts completed exchanges the user took part in
func (s *Store) CountCompleted(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, ex := range s.exchanges {
		if ex.IsParticipant(userID) && ex.Status == models.StatusCompleted {
			n++
		}
	}
	return n, nil
}

// CountCompletedAsMentor counts completed exchanges the user mentored for the skill
func (s *Store) CountCompletedAsMentor(ctx context.Context, userID, skillID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, ex := range s.exchanges {
		if ex.MentorID == userID && ex.SkillID == skillID && ex.Status == models.StatusCompleted {
			n++
		}
	}
	return n, nil
}

// CreateReview stores a review after check accepts the exchange
func (s *Store) CreateReview(ctx context.Context, review *models.Review, check func(ex *models.Exchange) error) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.exchanges[review.ExchangeID]
	if !ok {
		return nil, pkgerrors.NotFoundError("exchange")
	}
	if err := check(copyExchange(stored)); err != nil {
		return nil, err
	}

	key := reviewKey{review.ExchangeID, review.ReviewerID}
	if _, exists := s.reviews[key]; exists {
		return nil, pkgerrors.ConflictError("review")
	}

	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = s.now()
	cp := *review
	s.reviews[key] = &cp

	return review, nil
}

// ListReviewsForExchange returns the reviews left on an exchange
func (s *Store) ListReviewsForExchange(ctx context.Context, exchangeID string) ([]*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Review{}
	for key, r := range s.reviews {
		if key.exchangeID == exchangeID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListSkills returns the skill catalog
func (s *Store) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		cp := *sk
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetSkill returns one catalog skill
func (s *Store) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills[id]
	if !ok {
		return nil, pkgerrors.NotFoundError("skill")
	}
	cp := *sk
	return &cp, nil
}

// CreateSkill adds a skill to the catalog
func (s *Store) CreateSkill(ctx context.Context, skill *models.Skill) (*models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.skills {
		if existing.ID == skill.ID || existing.Name == skill.Name {
			return nil, pkgerrors.ConflictError("skill")
		}
	}
	skill.CreatedAt = s.now()
	cp := *skill
	s.skills[skill.ID] = &cp
	return skill, nil
}

// GetAssertion returns the user's assertion for a skill
func (s *Store) GetAssertion(ctx context.Context, userID, skillID string) (*models.SkillAssertion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assertions[assertionKey{userID, skillID}]
	if !ok {
		return nil, pkgerrors.NotFoundError("skill assertion")
	}
	cp := *a
	return &cp, nil
}

// ListAssertions returns every assertion the user holds
func (s *Store) ListAssertions(ctx context.Context, userID string) ([]*models.SkillAssertion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.SkillAssertion{}
	for key, a := range s.assertions {
		if key.userID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	return out, nil
}

// UpsertAssertion creates or replaces the user's assertion for a skill
func (s *Store) UpsertAssertion(ctx context.Context, assertion *models.SkillAssertion) (*models.SkillAssertion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.skills[assertion.SkillID]; !ok {
		return nil, pkgerrors.NotFoundError("skill")
	}

	now := s.now()
	key := assertionKey{assertion.UserID, assertion.SkillID}
	stored, ok := s.assertions[key]
	if !ok {
		stored = &models.SkillAssertion{
			ID:        uuid.NewString(),
			UserID:    assertion.UserID,
			SkillID:   assertion.SkillID,
			CreatedAt: now,
		}
		s.assertions[key] = stored
	}
	stored.Level = assertion.Level
	stored.CanTeach = assertion.CanTeach
	stored.WantsToLearn = assertion.WantsToLearn
	stored.UpdatedAt = now

	cp := *stored
	return &cp, nil
}

// DeleteAssertion removes the assertion and clears exchange references to it
func (s *Store) DeleteAssertion(ctx context.Context, userID, skillID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assertionKey{userID, skillID}
	a, ok := s.assertions[key]
	if !ok {
		return pkgerrors.NotFoundError("skill assertion")
	}
	delete(s.assertions, key)

	// ON DELETE SET NULL
	for _, ex := range s.exchanges {
		if ex.MentorAssertionID != nil && *ex.MentorAssertionID == a.ID {
			ex.MentorAssertionID = nil
		}
		if ex.LearnerAssertionID != nil && *ex.LearnerAssertionID == a.ID {
			ex.LearnerAssertionID = nil
		}
	}
	return nil
}

// FindTeachers returns users who can teach the skill at minLevel or above
func (s *Store) FindTeachers(ctx context.Context, skillID string, minLevel models.SkillLevel, excludeUserID string) ([]models.PartnerCandidate, error) {
	return s.findPartners(skillID, excludeUserID, func(a *models.SkillAssertion) bool {
		return a.CanTeach && a.Level.Rank() >= minLevel.Rank()
	}, func(a, b models.SkillLevel) bool { return a.Rank() > b.Rank() }), nil
}

// FindLearners returns users who want to learn the skill at maxLevel or below
func (s *Store) FindLearners(ctx context.Context, skillID string, maxLevel models.SkillLevel, excludeUserID string) ([]models.PartnerCandidate, error) {
	return s.findPartners(skillID, excludeUserID, func(a *models.SkillAssertion) bool {
		return a.WantsToLearn && a.Level.Rank() <= maxLevel.Rank()
	}, func(a, b models.SkillLevel) bool { return a.Rank() < b.Rank() }), nil
}

func (s *Store) findPartners(skillID, excludeUserID string, match func(*models.SkillAssertion) bool, before func(a, b models.SkillLevel) bool) []models.PartnerCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.PartnerCandidate{}
	for key, a := range s.assertions {
		if key.skillID == skillID && key.userID != excludeUserID && match(a) {
			out = append(out, models.PartnerCandidate{UserID: a.UserID, Level: a.Level})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return before(out[i].Level, out[j].Level)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// GetAccount returns the user's account, creating it on first use
func (s *Store) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *s.account(userID)
	return &cp, nil
}

// AwardPoints adds amount to the balance and records the transaction
func (s *Store) AwardPoints(ctx context.Context, userID string, amount int, reason string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(userID)
	if acc.Coins+amount < 0 {
		return nil, fmt.Errorf("balance cannot absorb %d coins: %w", amount, pkgerrors.ErrInsufficientState)
	}
	acc.Coins += amount
	acc.UpdatedAt = s.now()
	s.coinLog = append(s.coinLog, coinTransaction{UserID: userID, Amount: amount, Reason: reason})

	cp := *acc
	return &cp, nil
}

// GrantExchangeXP adds XP for an exchange to the user's running grant
func (s *Store) GrantExchangeXP(ctx context.Context, userID, exchangeID string, amount int) (*models.Account, int, error) {
	return s.applyExchangeXP(userID, exchangeID, amount, false)
}

// SetExchangeXP replaces the user's XP grant for an exchange with total
func (s *Store) SetExchangeXP(ctx context.Context, userID, exchangeID string, total int) (*models.Account, int, error) {
	return s.applyExchangeXP(userID, exchangeID, total, true)
}

func (s *Store) applyExchangeXP(userID, exchangeID string, amount int, replace bool) (*models.Account, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(userID)
	key := xpKey{userID, exchangeID}
	previous, granted := s.xpGrants[key]

	delta := 0
	switch {
	case !granted:
		delta = amount
	case replace:
		delta = amount - previous
	default:
		cp := *acc
		return &cp, 0, nil
	}

	s.xpGrants[key] = amount
	acc.TotalXP += delta
	acc.UpdatedAt = s.now()

	cp := *acc
	return &cp, delta, nil
}

// RaiseLevel sets the level if it is higher than the current one
func (s *Store) RaiseLevel(ctx context.Context, userID string, level int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(userID)
	if acc.Level >= level {
		return false, nil
	}
	acc.Level = level
	acc.UpdatedAt = s.now()
	return true, nil
}

// AddAchievement grants an achievement once
func (s *Store) AddAchievement(ctx context.Context, userID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.account(userID)
	for _, a := range s.achievements[userID] {
		if a.Code == code {
			return false, nil
		}
	}
	s.achievements[userID] = append(s.achievements[userID], &models.Achievement{Code: code, AwardedAt: s.now()})
	return true, nil
}

// ListAchievements returns the user's achievements
func (s *Store) ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Achievement{}
	for _, a := range s.achievements[userID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// CreateNotification stores an in-app notification
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = s.now()
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

// ListNotifications returns the user's newest notifications up to limit
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Notification{}
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := s.notifications[i]; n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

// account returns the stored account, creating it; mu must be held
func (s *Store) account(userID string) *models.Account {
	acc, ok := s.accounts[userID]
	if !ok {
		acc = &models.Account{UserID: userID, Coins: startingCoins, Level: 1, UpdatedAt: s.now()}
		s.accounts[userID] = acc
	}
	return acc
}

func (s *Store) assertionByID(id string) *models.SkillAssertion {
	for _, a := range s.assertions {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func samePair(a, b *models.Exchange) bool {
	return (a.MentorID == b.MentorID && a.LearnerID == b.LearnerID) ||
		(a.MentorID == b.LearnerID && a.LearnerID == b.MentorID)
}

func containsStatus(statuses []models.ExchangeStatus, s models.ExchangeStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func copyExchange(ex *models.Exchange) *models.Exchange {
	cp := *ex
	if ex.MentorAssertionID != nil {
		id := *ex.MentorAssertionID
		cp.MentorAssertionID = &id
	}
	if ex.LearnerAssertionID != nil {
		id := *ex.LearnerAssertionID
		cp.LearnerAssertionID = &id
	}
	if ex.CompletedAt != nil {
		t := *ex.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
