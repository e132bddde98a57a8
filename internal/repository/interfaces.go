package repository

import (
	"context"
	"time"

	"github.com/skillswap/skillswap-api/internal/models"
)

// Stores return pkg/errors sentinels: ErrNotFound for missing rows,
// ErrConflict for uniqueness violations and ErrInsufficientState for
// balance underflow.

// ExchangeStore persists exchanges. Every mutation runs in one transaction
// holding the exchange row lock.
type ExchangeStore interface {
	// CreateExchange inserts ex as pending. If an open exchange already exists
	// for the same unordered pair and skill, it returns that exchange together
	// with ErrConflict; the check and the insert are atomic. The returned
	// exchange may be nil when the store cannot name the blocking row. It
	// returns ErrPreconditionFailed when either referenced assertion no longer
	// holds its role at insert time.
	CreateExchange(ctx context.Context, ex *models.Exchange) (*models.Exchange, error)

	GetExchange(ctx context.Context, id string) (*models.Exchange, error)

	// ListExchangesForUser returns exchanges where userID is a participant,
	// newest first. An empty statuses slice means all statuses.
	ListExchangesForUser(ctx context.Context, userID string, statuses []models.ExchangeStatus) ([]*models.Exchange, error)

	// ListUpcoming returns accepted exchanges scheduled at or after from,
	// soonest first.
	ListUpcoming(ctx context.Context, userID string, from time.Time) ([]*models.Exchange, error)

	// UpdateExchange locks the row, hands it to mutate and persists the
	// result. Nothing is written if mutate returns an error.
	UpdateExchange(ctx context.Context, id string, mutate func(ex *models.Exchange) error) (*models.Exchange, error)

	CountCompleted(ctx context.Context, userID string) (int, error)
	CountCompletedAsMentor(ctx context.Context, userID, skillID string) (int, error)
}

// ReviewStore persists reviews
type ReviewStore interface {
	// CreateReview locks the reviewed exchange, runs check against it and
	// inserts review if check passes. A second review by the same reviewer
	// for the same exchange yields ErrConflict.
	CreateReview(ctx context.Context, review *models.Review, check func(ex *models.Exchange) error) (*models.Review, error)

	ListReviewsForExchange(ctx context.Context, exchangeID string) ([]*models.Review, error)
}

// SkillStore persists the skill catalog and users' skill assertions
type SkillStore interface {
	ListSkills(ctx context.Context) ([]*models.Skill, error)
	GetSkill(ctx context.Context, id string) (*models.Skill, error)
	CreateSkill(ctx context.Context, skill *models.Skill) (*models.Skill, error)

	GetAssertion(ctx context.Context, userID, skillID string) (*models.SkillAssertion, error)
	ListAssertions(ctx context.Context, userID string) ([]*models.SkillAssertion, error)
	UpsertAssertion(ctx context.Context, assertion *models.SkillAssertion) (*models.SkillAssertion, error)
	DeleteAssertion(ctx context.Context, userID, skillID string) error

	// FindTeachers returns users who can teach skillID at minLevel or above
	FindTeachers(ctx context.Context, skillID string, minLevel models.SkillLevel, excludeUserID string) ([]models.PartnerCandidate, error)
	// FindLearners returns users who want to learn skillID at maxLevel or below
	FindLearners(ctx context.Context, skillID string, maxLevel models.SkillLevel, excludeUserID string) ([]models.PartnerCandidate, error)
}

// AccountStore persists SwapCoins balances, XP and achievements. Accounts are
// created on first use with the starting balance.
type AccountStore interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)

	// AwardPoints atomically adds amount (which may be negative) to the coin
	// balance and records reason in the transaction log.
	AwardPoints(ctx context.Context, userID string, amount int, reason string) (*models.Account, error)

	// GrantExchangeXP records amount as the user's XP for exchangeID unless a
	// grant already exists. It returns the XP actually added.
	GrantExchangeXP(ctx context.Context, userID, exchangeID string, amount int) (*models.Account, int, error)
	// SetExchangeXP replaces the user's XP for exchangeID with total and
	// returns the difference applied to the account.
	SetExchangeXP(ctx context.Context, userID, exchangeID string, total int) (*models.Account, int, error)

	// RaiseLevel sets the level if it is higher than the stored one and
	// reports whether it changed.
	RaiseLevel(ctx context.Context, userID string, level int) (bool, error)

	// AddAchievement reports false if the user already holds code
	AddAchievement(ctx context.Context, userID, code string) (bool, error)
	ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error)
}

// NotificationStore persists in-app notifications
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
}

// Store is the full persistence surface, implemented by the PostgreSQL
// client and the in-memory store
type Store interface {
	ExchangeStore
	ReviewStore
	SkillStore
	AccountStore
	NotificationStore
	Ping(ctx context.Context) error
}
