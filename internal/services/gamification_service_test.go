package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap-api/internal/database/memory"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/services"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCalculateXP(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		rating   *int
		expected int
	}{
		{name: "short session", duration: 15, expected: 51},
		{name: "one hour", duration: 60, expected: 56},
		{name: "duration bonus is capped", duration: 240, expected: 70},
		{name: "neutral rating", duration: 60, rating: intPtr(3), expected: 56},
		{name: "top rating", duration: 60, rating: intPtr(5), expected: 76},
		{name: "lowest rating", duration: 60, rating: intPtr(1), expected: 36},
		{name: "floor", duration: 0, rating: intPtr(-5), expected: services.MinExchangeXP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, services.CalculateXP(tt.duration, tt.rating))
		})
	}
}

func TestLevelForXP(t *testing.T) {
	tests := map[int]int{
		0:     1,
		99:    1,
		100:   2,
		299:   2,
		300:   3,
		1000:  5,
		4499:  9,
		4500:  10,
		99999: 10,
	}

	for xp, level := range tests {
		assert.Equal(t, level, services.LevelForXP(xp), "xp=%d", xp)
	}
}

func TestNextLevelXP(t *testing.T) {
	next, ok := services.NextLevelXP(1)
	assert.True(t, ok)
	assert.Equal(t, 100, next)

	next, ok = services.NextLevelXP(9)
	assert.True(t, ok)
	assert.Equal(t, 4500, next)

	_, ok = services.NextLevelXP(services.MaxLevel)
	assert.False(t, ok)
}

func TestGamificationService_CheckLevelUp(t *testing.T) {
	store := memory.New()
	notifier := &recordingNotifier{}
	g := services.NewGamificationService(store, store, notifier)
	ctx := context.Background()

	leveled, err := g.CheckLevelUp(ctx, mentorID)
	require.NoError(t, err)
	assert.False(t, leveled)

	_, _, err = store.GrantExchangeXP(ctx, mentorID, uuid.NewString(), 320)
	require.NoError(t, err)

	leveled, err = g.CheckLevelUp(ctx, mentorID)
	require.NoError(t, err)
	assert.True(t, leveled)

	account, err := store.GetAccount(ctx, mentorID)
	require.NoError(t, err)
	assert.Equal(t, 3, account.Level)
	assert.Equal(t, 100+3*services.LevelUpCoinsPerLevel, account.Coins)

	leveled, err = g.CheckLevelUp(ctx, mentorID)
	require.NoError(t, err)
	assert.False(t, leveled, "level-up is paid once")

	sent := notifier.ofType(models.NotifyLevelUp)
	require.Len(t, sent, 1)
	assert.Equal(t, mentorID, sent[0].UserID)
}

func TestGamificationService_AwardCompletionXP_Idempotent(t *testing.T) {
	store := memory.New()
	g := services.NewGamificationService(store, store, &recordingNotifier{})
	ctx := context.Background()
	ex := &models.Exchange{ID: uuid.NewString(), MentorID: mentorID, LearnerID: learnerID, DurationMinutes: 90}

	require.NoError(t, g.AwardCompletionXP(ctx, ex))
	require.NoError(t, g.AwardCompletionXP(ctx, ex))

	for _, userID := range []string{mentorID, learnerID} {
		account, err := store.GetAccount(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 59, account.TotalXP)
	}
}

func TestGamificationService_ReviewBeforeCompletionGrant(t *testing.T) {
	store := memory.New()
	g := services.NewGamificationService(store, store, &recordingNotifier{})
	ctx := context.Background()
	ex := &models.Exchange{ID: uuid.NewString(), MentorID: mentorID, LearnerID: learnerID, DurationMinutes: 60}

	require.NoError(t, g.ApplyReviewRating(ctx, ex, mentorID, 4))
	require.NoError(t, g.AwardCompletionXP(ctx, ex))

	account, err := store.GetAccount(ctx, mentorID)
	require.NoError(t, err)
	assert.Equal(t, 66, account.TotalXP, "the rated grant is not overwritten")
}

func TestGamificationService_CheckAchievements(t *testing.T) {
	store := memory.New()
	notifier := &recordingNotifier{}
	g := services.NewGamificationService(store, store, notifier)
	ctx := context.Background()

	var last *models.Exchange
	for i := 0; i < services.SkillMasterThreshold; i++ {
		created, err := store.CreateExchange(ctx, &models.Exchange{
			ID:              uuid.NewString(),
			MentorID:        mentorID,
			LearnerID:       learnerID,
			SkillID:         pythonID,
			ScheduledTime:   fixedNow.Add(time.Duration(i) * time.Hour),
			DurationMinutes: 30,
			MeetingType:     models.MeetingVirtual,
		})
		require.NoError(t, err)
		last, err = store.UpdateExchange(ctx, created.ID, func(ex *models.Exchange) error {
			ex.Status = models.StatusCompleted
			return nil
		})
		require.NoError(t, err)

		if i == 0 {
			granted, err := g.CheckAchievements(ctx, learnerID, last)
			require.NoError(t, err)
			assert.Equal(t, []string{services.AchievementFirstSession}, granted)
		}
	}

	granted, err := g.CheckAchievements(ctx, mentorID, last)
	require.NoError(t, err)
	assert.Equal(t, []string{services.AchievementFirstSession, services.SkillMasterCode(pythonID)}, granted)

	granted, err = g.CheckAchievements(ctx, mentorID, last)
	require.NoError(t, err)
	assert.Empty(t, granted)

	granted, err = g.CheckAchievements(ctx, learnerID, last)
	require.NoError(t, err)
	assert.Empty(t, granted, "learners do not earn skill_master")

	account, err := store.GetAccount(ctx, mentorID)
	require.NoError(t, err)
	assert.Equal(t, 100+2*services.AchievementCoins, account.Coins)

	achievements, err := store.ListAchievements(ctx, mentorID)
	require.NoError(t, err)
	assert.Len(t, achievements, 2)
	assert.Len(t, notifier.ofType(models.NotifyAchievement), 3)
}

func TestGamificationService_AwardPoints(t *testing.T) {
	store := memory.New()
	g := services.NewGamificationService(store, store, &recordingNotifier{})
	ctx := context.Background()

	account, err := g.AwardPoints(ctx, learnerID, -40, "session_fee")
	require.NoError(t, err)
	assert.Equal(t, 60, account.Coins)

	_, err = g.AwardPoints(ctx, learnerID, -61, "session_fee")
	assert.ErrorIs(t, err, pkgerrors.ErrInsufficientState)

	account, err = store.GetAccount(ctx, learnerID)
	require.NoError(t, err)
	assert.Equal(t, 60, account.Coins)
}
