package services

import (
	"context"
	"time"

	"github.com/skillswap/skillswap-api/internal/models"
)

// Notifier delivers a notification to a user without blocking the caller
type Notifier interface {
	Notify(ctx context.Context, userID string, typ models.NotificationType, message string, exchangeID *string)
}

// MeetingLinker builds a video-call URL for a virtual exchange
type MeetingLinker interface {
	GenerateLink(userA, userB, skillName string) (string, error)
}

// Archiver stores a JSON snapshot under key
type Archiver interface {
	PutJSON(ctx context.Context, key string, v any) error
}

// SkillGraph resolves skills and skill assertions for the matcher
type SkillGraph interface {
	GetSkill(ctx context.Context, id string) (*models.Skill, error)
	GetAssertion(ctx context.Context, userID, skillID string) (*models.SkillAssertion, error)
}

// Gamification turns completed exchanges and reviews into XP, levels and
// achievements
type Gamification interface {
	CalculateXP(ex *models.Exchange, rating *int) int
	AwardCompletionXP(ctx context.Context, ex *models.Exchange) error
	ApplyReviewRating(ctx context.Context, ex *models.Exchange, reviewedUserID string, rating int) error
	CheckLevelUp(ctx context.Context, userID string) (bool, error)
	CheckAchievements(ctx context.Context, userID string, ex *models.Exchange) ([]string, error)
}

// ExchangeServiceInterface defines the exchange matcher and state machine
type ExchangeServiceInterface interface {
	Initiate(ctx context.Context, requesterID string, req *models.InitiateExchangeRequest) (*models.Exchange, error)
	Accept(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error)
	Reject(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error)
	Cancel(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error)
	Complete(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error)
	Get(ctx context.Context, exchangeID, actorID string) (*models.ExchangeDetail, error)
	ListForUser(ctx context.Context, userID, statusFilter string) (*models.ExchangesResponse, error)
	Upcoming(ctx context.Context, userID string) (*models.ExchangesResponse, error)
}

// ReviewServiceInterface defines the review gate
type ReviewServiceInterface interface {
	SubmitReview(ctx context.Context, exchangeID, reviewerID string, req *models.SubmitReviewRequest) (*models.Review, error)
}

// SkillServiceInterface defines skill catalog and skill graph operations
type SkillServiceInterface interface {
	SkillGraph
	ListSkills(ctx context.Context) ([]*models.Skill, error)
	CreateSkill(ctx context.Context, req *models.CreateSkillRequest) (*models.Skill, error)
	ListUserSkills(ctx context.Context, userID string) ([]*models.SkillAssertion, error)
	UpsertAssertion(ctx context.Context, userID, skillID string, req *models.UpsertAssertionRequest) (*models.SkillAssertion, error)
	DeleteAssertion(ctx context.Context, userID, skillID string) error
	FindMentors(ctx context.Context, userID, skillID string) (*models.PartnersResponse, error)
	FindLearners(ctx context.Context, userID, skillID string) (*models.PartnersResponse, error)
}

// AccountServiceInterface defines read access to a user's account and inbox
type AccountServiceInterface interface {
	GetAccount(ctx context.Context, userID string) (*models.AccountResponse, error)
	ListNotifications(ctx context.Context, userID string, limit int) (*models.NotificationsResponse, error)
}

// Ensure services implement interfaces
var (
	_ ExchangeServiceInterface = (*ExchangeService)(nil)
	_ ReviewServiceInterface   = (*ReviewService)(nil)
	_ SkillServiceInterface    = (*SkillService)(nil)
	_ AccountServiceInterface  = (*AccountService)(nil)
	_ Gamification             = (*GamificationService)(nil)
)

// Clock returns the current time; tests substitute a fixed one
type Clock func() time.Time
