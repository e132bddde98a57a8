package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/repository"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	BaseSessionXP      = 50
	MaxDurationBonusXP = 20
	RatingStepXP       = 10
	MinExchangeXP      = 10

	LevelUpCoinsPerLevel = 50
	AchievementCoins     = 100

	// completed exchanges as mentor of one skill needed for skill_master
	SkillMasterThreshold = 5

	AchievementFirstSession = "first_session"
	skillMasterPrefix       = "skill_master_"
)

// levelThresholds[i] is the total XP needed to reach level i+1
var levelThresholds = []int{0, 100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500}

// MaxLevel is the highest reachable level
var MaxLevel = len(levelThresholds)

// CalculateXP returns the XP a participant earns for one exchange. Without a
// rating only the base and the duration bonus apply.
func CalculateXP(durationMinutes int, rating *int) int {
	xp := BaseSessionXP + min(max(durationMinutes, 0)/10, MaxDurationBonusXP)
	if rating != nil {
		xp += (*rating - 3) * RatingStepXP
	}
	return max(xp, MinExchangeXP)
}

// LevelForXP returns the level reached with totalXP
func LevelForXP(totalXP int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if totalXP >= threshold {
			level = i + 1
		}
	}
	return level
}

// NextLevelXP returns the XP needed for the level after level, and false at
// the top of the table
func NextLevelXP(level int) (int, bool) {
	if level < 1 || level >= MaxLevel {
		return 0, false
	}
	return levelThresholds[level], true
}

// SkillMasterCode is the achievement code for mastering skillID as a mentor
func SkillMasterCode(skillID string) string {
	return skillMasterPrefix + skillID
}

// GamificationService awards XP, levels, achievements and SwapCoins
type GamificationService struct {
	accounts  repository.AccountStore
	exchanges repository.ExchangeStore
	notifier  Notifier
}

// NewGamificationService creates a new gamification service instance
func NewGamificationService(accounts repository.AccountStore, exchanges repository.ExchangeStore, notifier Notifier) *GamificationService {
	return &GamificationService{
		accounts:  accounts,
		exchanges: exchanges,
		notifier:  notifier,
	}
}

// CalculateXP returns the XP ex is worth, adjusted by rating when given
func (g *GamificationService) CalculateXP(ex *models.Exchange, rating *int) int {
	return CalculateXP(ex.DurationMinutes, rating)
}

// AwardCompletionXP grants the unrated XP for ex to both participants. A
// participant who already holds a grant for ex (for example because a review
// landed first) is left untouched.
func (g *GamificationService) AwardCompletionXP(ctx context.Context, ex *models.Exchange) error {
	amount := g.CalculateXP(ex, nil)

	var errs []error
	for _, userID := range []string{ex.MentorID, ex.LearnerID} {
		_, added, err := g.accounts.GrantExchangeXP(ctx, userID, ex.ID, amount)
		if err != nil {
			errs = append(errs, fmt.Errorf("grant xp to %s: %w", userID, err))
			continue
		}
		if added > 0 {
			metrics.XPAwarded.Add(float64(added))
		}
		logger.Debug("Exchange XP granted",
			zap.String("user_id", userID),
			zap.String("exchange_id", ex.ID),
			zap.Int("xp", added))
	}

	return errors.Join(errs...)
}

// ApplyReviewRating recomputes the reviewed user's XP for ex with rating
func (g *GamificationService) ApplyReviewRating(ctx context.Context, ex *models.Exchange, reviewedUserID string, rating int) error {
	total := g.CalculateXP(ex, &rating)

	_, delta, err := g.accounts.SetExchangeXP(ctx, reviewedUserID, ex.ID, total)
	if err != nil {
		return fmt.Errorf("failed to apply review rating: %w", err)
	}
	if delta > 0 {
		metrics.XPAwarded.Add(float64(delta))
	}

	logger.Info("Exchange XP adjusted by review",
		zap.String("user_id", reviewedUserID),
		zap.String("exchange_id", ex.ID),
		zap.Int("rating", rating),
		zap.Int("xp_total", total),
		zap.Int("xp_delta", delta))

	return nil
}

// CheckLevelUp raises the user's level if their XP crossed a threshold and
// pays the level-up bonus. Levels never go down.
func (g *GamificationService) CheckLevelUp(ctx context.Context, userID string) (bool, error) {
	account, err := g.accounts.GetAccount(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load account: %w", err)
	}

	level := LevelForXP(account.TotalXP)
	if level <= account.Level {
		return false, nil
	}

	raised, err := g.accounts.RaiseLevel(ctx, userID, level)
	if err != nil {
		return false, fmt.Errorf("failed to raise level: %w", err)
	}
	if !raised {
		return false, nil
	}

	bonus := level * LevelUpCoinsPerLevel
	if _, err := g.AwardPoints(ctx, userID, bonus, fmt.Sprintf("level_up:%d", level)); err != nil {
		return true, err
	}

	metrics.LevelUps.Inc()
	metrics.CoinsAwarded.WithLabelValues("level_up").Add(float64(bonus))
	logger.Info("User leveled up",
		zap.String("user_id", userID),
		zap.Int("level", level),
		zap.Int("total_xp", account.TotalXP))

	g.notifier.Notify(ctx, userID, models.NotifyLevelUp,
		fmt.Sprintf("You reached level %d and earned %d SwapCoins", level, bonus), nil)

	return true, nil
}

// CheckAchievements awards the achievements userID earned with ex and returns
// the codes that were newly granted
func (g *GamificationService) CheckAchievements(ctx context.Context, userID string, ex *models.Exchange) ([]string, error) {
	var earned []string

	completed, err := g.exchanges.CountCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed exchanges: %w", err)
	}
	if completed >= 1 {
		earned = append(earned, AchievementFirstSession)
	}

	if userID == ex.MentorID {
		taught, err := g.exchanges.CountCompletedAsMentor(ctx, userID, ex.SkillID)
		if err != nil {
			return nil, fmt.Errorf("failed to count taught exchanges: %w", err)
		}
		if taught >= SkillMasterThreshold {
			earned = append(earned, SkillMasterCode(ex.SkillID))
		}
	}

	var granted []string
	for _, code := range earned {
		added, err := g.accounts.AddAchievement(ctx, userID, code)
		if err != nil {
			return granted, fmt.Errorf("failed to add achievement %s: %w", code, err)
		}
		if !added {
			continue
		}
		granted = append(granted, code)

		if _, err := g.AwardPoints(ctx, userID, AchievementCoins, "achievement:"+code); err != nil {
			return granted, err
		}
		metrics.CoinsAwarded.WithLabelValues("achievement").Add(AchievementCoins)
		logger.Info("Achievement unlocked",
			zap.String("user_id", userID),
			zap.String("achievement", code))

		g.notifier.Notify(ctx, userID, models.NotifyAchievement,
			fmt.Sprintf("Achievement unlocked: %s (+%d SwapCoins)", code, AchievementCoins), &ex.ID)
	}

	return granted, nil
}

// AwardPoints credits (or debits, for negative amounts) SwapCoins
func (g *GamificationService) AwardPoints(ctx context.Context, userID string, amount int, reason string) (*models.Account, error) {
	account, err := g.accounts.AwardPoints(ctx, userID, amount, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to award %d points to %s: %w", amount, userID, err)
	}
	return account, nil
}
