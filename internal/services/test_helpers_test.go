package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/skillswap/skillswap-api/config"
	"github.com/skillswap/skillswap-api/internal/cache"
	"github.com/skillswap/skillswap-api/internal/database/memory"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/services"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

const (
	mentorID  = "user-mentor"
	learnerID = "user-learner"
	outsider  = "user-outsider"
	pythonID  = "python"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Exchange: config.ExchangeConfig{
			MinDurationMinutes: 15,
			MaxDurationMinutes: 240,
		},
	}
}

// sentNotification is one call captured by recordingNotifier
type sentNotification struct {
	UserID     string
	Type       models.NotificationType
	Message    string
	ExchangeID *string
}

// recordingNotifier captures notifications synchronously
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, userID string, typ models.NotificationType, message string, exchangeID *string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: typ, Message: message, ExchangeID: exchangeID})
}

func (n *recordingNotifier) ofType(typ models.NotificationType) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []sentNotification
	for _, s := range n.sent {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// staticLinker returns a fixed meeting link
type staticLinker struct{}

func (staticLinker) GenerateLink(userA, userB, skillName string) (string, error) {
	return "https://meet.example/skillswap-" + userA + "-" + userB, nil
}

// testEnv wires the real services against the in-memory store
type testEnv struct {
	store        *memory.Store
	notifier     *recordingNotifier
	skills       *services.SkillService
	gamification *services.GamificationService
	exchanges    *services.ExchangeService
	reviews      *services.ReviewService
	accounts     *services.AccountService
}

func newTestEnv(t *testing.T, opts ...services.ExchangeOption) *testEnv {
	t.Helper()

	store := memory.New()
	notifier := &recordingNotifier{}
	skills := services.NewSkillService(store, cache.NewSkillCache(store.ListSkills, time.Minute))
	gamification := services.NewGamificationService(store, store, notifier)

	opts = append([]services.ExchangeOption{services.WithClock(func() time.Time { return fixedNow })}, opts...)
	env := &testEnv{
		store:        store,
		notifier:     notifier,
		skills:       skills,
		gamification: gamification,
		exchanges:    services.NewExchangeService(store, store, skills, gamification, notifier, staticLinker{}, testConfig(), opts...),
		reviews:      services.NewReviewService(store, gamification, notifier),
		accounts:     services.NewAccountService(store, store),
	}

	ctx := context.Background()
	_, err := skills.CreateSkill(ctx, &models.CreateSkillRequest{Name: "Python", Category: "programming"})
	require.NoError(t, err)

	env.assert(t, mentorID, pythonID, models.LevelAdvanced, true, false)
	env.assert(t, learnerID, pythonID, models.LevelBeginner, false, true)

	return env
}

func (e *testEnv) assert(t *testing.T, userID, skillID string, level models.SkillLevel, canTeach, wantsToLearn bool) {
	t.Helper()
	_, err := e.skills.UpsertAssertion(context.Background(), userID, skillID, &models.UpsertAssertionRequest{
		Level:        level,
		CanTeach:     canTeach,
		WantsToLearn: wantsToLearn,
	})
	require.NoError(t, err)
}

// learnerRequest is a valid request by the learner for a mentor
func learnerRequest() *models.InitiateExchangeRequest {
	return &models.InitiateExchangeRequest{
		PartnerID:       mentorID,
		Role:            models.RoleLearner,
		SkillID:         pythonID,
		ScheduledTime:   fixedNow.Add(25 * time.Hour),
		DurationMinutes: 60,
		MeetingType:     models.MeetingVirtual,
	}
}

func (e *testEnv) initiate(t *testing.T) *models.Exchange {
	t.Helper()
	ex, err := e.exchanges.Initiate(context.Background(), learnerID, learnerRequest())
	require.NoError(t, err)
	return ex
}

func (e *testEnv) accepted(t *testing.T) *models.Exchange {
	t.Helper()
	ex := e.initiate(t)
	ex, err := e.exchanges.Accept(context.Background(), ex.ID, learnerID)
	require.NoError(t, err)
	return ex
}

func (e *testEnv) completed(t *testing.T) *models.Exchange {
	t.Helper()
	ex := e.accepted(t)
	ex, err := e.exchanges.Complete(context.Background(), ex.ID, mentorID)
	require.NoError(t, err)
	return ex
}
