package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap-api/internal/database/memory"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/services"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExchangeService_Initiate_AsLearner(t *testing.T) {
	env := newTestEnv(t)

	ex, err := env.exchanges.Initiate(context.Background(), learnerID, learnerRequest())

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, ex.Status)
	assert.Equal(t, mentorID, ex.MentorID)
	assert.Equal(t, learnerID, ex.LearnerID)
	assert.Equal(t, pythonID, ex.SkillID)
	assert.NotNil(t, ex.MentorAssertionID)
	assert.NotNil(t, ex.LearnerAssertionID)
	assert.Equal(t, "https://meet.example/skillswap-user-mentor-user-learner", ex.MeetingLink)
	assert.Empty(t, ex.Location)

	sent := env.notifier.ofType(models.NotifyExchangeRequest)
	require.Len(t, sent, 1)
	assert.Equal(t, mentorID, sent[0].UserID)
	require.NotNil(t, sent[0].ExchangeID)
	assert.Equal(t, ex.ID, *sent[0].ExchangeID)
}

func TestExchangeService_Initiate_AsMentor(t *testing.T) {
	env := newTestEnv(t)

	req := learnerRequest()
	req.PartnerID = learnerID
	req.Role = models.RoleMentor

	ex, err := env.exchanges.Initiate(context.Background(), mentorID, req)

	require.NoError(t, err)
	assert.Equal(t, mentorID, ex.MentorID)
	assert.Equal(t, learnerID, ex.LearnerID)

	sent := env.notifier.ofType(models.NotifyExchangeRequest)
	require.Len(t, sent, 1)
	assert.Equal(t, learnerID, sent[0].UserID)
}

func TestExchangeService_Initiate_Validation(t *testing.T) {
	tests := []struct {
		name      string
		requester string
		mutate    func(req *models.InitiateExchangeRequest)
		wantErr   error
	}{
		{
			name:      "past schedule",
			requester: learnerID,
			mutate: func(req *models.InitiateExchangeRequest) {
				req.ScheduledTime = fixedNow.Add(-time.Minute)
			},
			wantErr: services.ErrScheduleInPast,
		},
		{
			name:      "past schedule wins over every other problem",
			requester: learnerID,
			mutate: func(req *models.InitiateExchangeRequest) {
				req.ScheduledTime = fixedNow.Add(-time.Hour)
				req.PartnerID = learnerID
				req.MeetingType = models.MeetingInPerson
				req.DurationMinutes = 1
				req.SkillID = "cobol"
			},
			wantErr: services.ErrScheduleInPast,
		},
		{
			name:      "self exchange",
			requester: learnerID,
			mutate:    func(req *models.InitiateExchangeRequest) { req.PartnerID = learnerID },
			wantErr:   services.ErrInvalidParticipants,
		},
		{
			name:      "in person without location",
			requester: learnerID,
			mutate: func(req *models.InitiateExchangeRequest) {
				req.MeetingType = models.MeetingInPerson
				req.Location = ""
			},
			wantErr: services.ErrLocationRequired,
		},
		{
			name:      "in person with blank location",
			requester: learnerID,
			mutate: func(req *models.InitiateExchangeRequest) {
				req.MeetingType = models.MeetingInPerson
				req.Location = "   "
			},
			wantErr: services.ErrLocationRequired,
		},
		{
			name:      "too short",
			requester: learnerID,
			mutate:    func(req *models.InitiateExchangeRequest) { req.DurationMinutes = 10 },
			wantErr:   services.ErrInvalidDuration,
		},
		{
			name:      "too long",
			requester: learnerID,
			mutate:    func(req *models.InitiateExchangeRequest) { req.DurationMinutes = 241 },
			wantErr:   services.ErrInvalidDuration,
		},
		{
			name:      "unknown skill",
			requester: learnerID,
			mutate:    func(req *models.InitiateExchangeRequest) { req.SkillID = "cobol" },
			wantErr:   services.ErrNotFound,
		},
		{
			name:      "partner without assertion",
			requester: learnerID,
			mutate:    func(req *models.InitiateExchangeRequest) { req.PartnerID = outsider },
			wantErr:   services.ErrNotFound,
		},
		{
			name:      "requester claims the wrong side",
			requester: learnerID,
			mutate:    func(req *models.InitiateExchangeRequest) { req.Role = models.RoleMentor },
			wantErr:   services.ErrRoleMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := learnerRequest()
			tt.mutate(req)

			ex, err := env.exchanges.Initiate(context.Background(), tt.requester, req)

			assert.Nil(t, ex)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, env.notifier.ofType(models.NotifyExchangeRequest))
		})
	}
}

func TestExchangeService_Initiate_LocationRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	req := learnerRequest()
	req.MeetingType = models.MeetingInPerson
	req.Location = "Library"

	ex, err := env.exchanges.Initiate(context.Background(), learnerID, req)
	require.NoError(t, err)
	assert.Equal(t, "Library", ex.Location)
	assert.Empty(t, ex.MeetingLink)

	stored, err := env.store.GetExchange(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.Equal(t, "Library", stored.Location)
	assert.Equal(t, models.MeetingInPerson, stored.MeetingType)
}

func TestExchangeService_Initiate_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	first := env.initiate(t)

	t.Run("same direction", func(t *testing.T) {
		ex, err := env.exchanges.Initiate(context.Background(), learnerID, learnerRequest())

		assert.Nil(t, ex)
		require.ErrorIs(t, err, services.ErrDuplicateExchange)
		var dup *services.DuplicateExchangeError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, first.ID, dup.ExistingID)
	})

	t.Run("reverse direction", func(t *testing.T) {
		req := learnerRequest()
		req.PartnerID = learnerID
		req.Role = models.RoleMentor

		_, err := env.exchanges.Initiate(context.Background(), mentorID, req)

		var dup *services.DuplicateExchangeError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, first.ID, dup.ExistingID)
	})

	t.Run("still blocked while accepted", func(t *testing.T) {
		_, err := env.exchanges.Accept(context.Background(), first.ID, learnerID)
		require.NoError(t, err)

		_, err = env.exchanges.Initiate(context.Background(), learnerID, learnerRequest())
		assert.ErrorIs(t, err, services.ErrDuplicateExchange)
	})

	t.Run("allowed again once closed", func(t *testing.T) {
		_, err := env.exchanges.Cancel(context.Background(), first.ID, mentorID)
		require.NoError(t, err)

		ex, err := env.exchanges.Initiate(context.Background(), learnerID, learnerRequest())
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, ex.ID)
	})

	all, err := env.store.ListExchangesForUser(context.Background(), learnerID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExchangeService_Initiate_ConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)

	const workers = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.exchanges.Initiate(context.Background(), learnerID, learnerRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, services.ErrDuplicateExchange):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, duplicates)

	pending, err := env.store.ListExchangesForUser(context.Background(), learnerID, []models.ExchangeStatus{models.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

// unnamedConflictStore reports an open duplicate without returning it
type unnamedConflictStore struct {
	*memory.Store
}

func (s unnamedConflictStore) CreateExchange(ctx context.Context, ex *models.Exchange) (*models.Exchange, error) {
	return nil, pkgerrors.ConflictError("open exchange")
}

// revokingStore runs revoke right before inserting the exchange
type revokingStore struct {
	*memory.Store
	revoke func()
}

func (s revokingStore) CreateExchange(ctx context.Context, ex *models.Exchange) (*models.Exchange, error) {
	s.revoke()
	return s.Store.CreateExchange(ctx, ex)
}

func TestExchangeService_Initiate_ConflictWithoutExistingExchange(t *testing.T) {
	env := newTestEnv(t)
	exchanges := services.NewExchangeService(unnamedConflictStore{env.store}, env.store, env.skills,
		env.gamification, env.notifier, staticLinker{}, testConfig(),
		services.WithClock(func() time.Time { return fixedNow }))

	ex, err := exchanges.Initiate(context.Background(), learnerID, learnerRequest())

	assert.Nil(t, ex)
	require.ErrorIs(t, err, services.ErrDuplicateExchange)
	var dup *services.DuplicateExchangeError
	require.True(t, errors.As(err, &dup))
	assert.Empty(t, dup.ExistingID)
	assert.Equal(t, services.ErrDuplicateExchange.Error(), err.Error())
}

func TestExchangeService_Initiate_RoleRevokedBeforeInsert(t *testing.T) {
	env := newTestEnv(t)
	store := revokingStore{Store: env.store, revoke: func() {
		_, err := env.store.UpsertAssertion(context.Background(), &models.SkillAssertion{
			UserID:       mentorID,
			SkillID:      pythonID,
			Level:        models.LevelAdvanced,
			WantsToLearn: true,
		})
		require.NoError(t, err)
	}}
	exchanges := services.NewExchangeService(store, env.store, env.skills,
		env.gamification, env.notifier, staticLinker{}, testConfig(),
		services.WithClock(func() time.Time { return fixedNow }))

	ex, err := exchanges.Initiate(context.Background(), learnerID, learnerRequest())

	assert.Nil(t, ex)
	assert.ErrorIs(t, err, services.ErrRoleMismatch)
	assert.Empty(t, env.notifier.ofType(models.NotifyExchangeRequest))

	all, err := env.store.ListExchangesForUser(context.Background(), learnerID, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestExchangeService_Initiate_MeetingLink(t *testing.T) {
	t.Run("explicit link is kept", func(t *testing.T) {
		linker := new(MockMeetingLinker)
		env := newTestEnv(t)
		svc := services.NewExchangeService(env.store, env.store, env.skills, env.gamification, env.notifier, linker, testConfig(),
			services.WithClock(func() time.Time { return fixedNow }))

		req := learnerRequest()
		req.MeetingLink = "https://zoom.example/j/123"

		ex, err := svc.Initiate(context.Background(), learnerID, req)

		require.NoError(t, err)
		assert.Equal(t, "https://zoom.example/j/123", ex.MeetingLink)
		linker.AssertNotCalled(t, "GenerateLink", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("generator failure leaves link empty", func(t *testing.T) {
		linker := new(MockMeetingLinker)
		linker.On("GenerateLink", mentorID, learnerID, "Python").Return("", errors.New("entropy exhausted"))
		env := newTestEnv(t)
		svc := services.NewExchangeService(env.store, env.store, env.skills, env.gamification, env.notifier, linker, testConfig(),
			services.WithClock(func() time.Time { return fixedNow }))

		ex, err := svc.Initiate(context.Background(), learnerID, learnerRequest())

		require.NoError(t, err)
		assert.Empty(t, ex.MeetingLink)
		linker.AssertExpectations(t)
	})
}

func TestExchangeService_Accept(t *testing.T) {
	env := newTestEnv(t)
	ex := env.initiate(t)

	_, err := env.exchanges.Accept(context.Background(), ex.ID, mentorID)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	_, err = env.exchanges.Accept(context.Background(), ex.ID, outsider)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	accepted, err := env.exchanges.Accept(context.Background(), ex.ID, learnerID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)

	sent := env.notifier.ofType(models.NotifyNewEvent)
	require.Len(t, sent, 1)
	assert.Equal(t, mentorID, sent[0].UserID)
}

func TestExchangeService_Reject(t *testing.T) {
	env := newTestEnv(t)
	ex := env.initiate(t)

	_, err := env.exchanges.Reject(context.Background(), ex.ID, mentorID)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	rejected, err := env.exchanges.Reject(context.Background(), ex.ID, learnerID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	sent := env.notifier.ofType(models.NotifyExchangeRejected)
	require.Len(t, sent, 1)
	assert.Equal(t, mentorID, sent[0].UserID)
}

func TestExchangeService_AcceptRejectOnlyFromPending(t *testing.T) {
	setups := map[models.ExchangeStatus]func(env *testEnv, t *testing.T) *models.Exchange{
		models.StatusAccepted: func(env *testEnv, t *testing.T) *models.Exchange {
			return env.accepted(t)
		},
		models.StatusCompleted: func(env *testEnv, t *testing.T) *models.Exchange {
			return env.completed(t)
		},
		models.StatusCancelled: func(env *testEnv, t *testing.T) *models.Exchange {
			ex := env.accepted(t)
			ex, err := env.exchanges.Cancel(context.Background(), ex.ID, learnerID)
			require.NoError(t, err)
			return ex
		},
		models.StatusRejected: func(env *testEnv, t *testing.T) *models.Exchange {
			ex := env.initiate(t)
			ex, err := env.exchanges.Reject(context.Background(), ex.ID, learnerID)
			require.NoError(t, err)
			return ex
		},
	}

	for status, setup := range setups {
		t.Run(string(status), func(t *testing.T) {
			env := newTestEnv(t)
			ex := setup(env, t)
			require.Equal(t, status, ex.Status)

			_, err := env.exchanges.Accept(context.Background(), ex.ID, learnerID)
			assert.ErrorIs(t, err, services.ErrInvalidTransition)

			_, err = env.exchanges.Reject(context.Background(), ex.ID, learnerID)
			assert.ErrorIs(t, err, services.ErrInvalidTransition)

			stored, err := env.store.GetExchange(context.Background(), ex.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
		})
	}
}

func TestExchangeService_PermissionCheckedBeforeState(t *testing.T) {
	env := newTestEnv(t)
	ex := env.completed(t)

	_, err := env.exchanges.Accept(context.Background(), ex.ID, mentorID)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	_, err = env.exchanges.Complete(context.Background(), ex.ID, outsider)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)
}

func TestExchangeService_Cancel(t *testing.T) {
	env := newTestEnv(t)
	ex := env.initiate(t)

	_, err := env.exchanges.Cancel(context.Background(), ex.ID, learnerID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition, "pending exchanges are rejected, not cancelled")

	_, err = env.exchanges.Accept(context.Background(), ex.ID, learnerID)
	require.NoError(t, err)

	_, err = env.exchanges.Cancel(context.Background(), ex.ID, outsider)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	cancelled, err := env.exchanges.Cancel(context.Background(), ex.ID, mentorID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	sent := env.notifier.ofType(models.NotifyExchangeCancelled)
	require.Len(t, sent, 1)
	assert.Equal(t, learnerID, sent[0].UserID)

	_, err = env.exchanges.Complete(context.Background(), ex.ID, mentorID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestExchangeService_Complete_AwardsXPOnce(t *testing.T) {
	env := newTestEnv(t)
	ex := env.accepted(t)
	ctx := context.Background()

	_, err := env.exchanges.Complete(ctx, ex.ID, learnerID)
	require.NoError(t, err)

	completed, err := env.store.GetExchange(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, fixedNow, *completed.CompletedAt)

	_, err = env.exchanges.Complete(ctx, ex.ID, mentorID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	expected := services.CalculateXP(60, nil)
	for _, userID := range []string{mentorID, learnerID} {
		account, err := env.store.GetAccount(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, expected, account.TotalXP, userID)
		// starting balance plus the first_session achievement
		assert.Equal(t, 100+services.AchievementCoins, account.Coins, userID)
	}

	sent := env.notifier.ofType(models.NotifyExchangeCompleted)
	require.Len(t, sent, 1)
	assert.Equal(t, mentorID, sent[0].UserID)
}

func TestExchangeService_Complete_SideEffectFailuresDoNotRollBack(t *testing.T) {
	env := newTestEnv(t)
	ex := env.accepted(t)

	gamification := new(MockGamification)
	gamification.On("AwardCompletionXP", mock.Anything, mock.AnythingOfType("*models.Exchange")).Return(errors.New("ledger down"))
	gamification.On("CheckLevelUp", mock.Anything, mock.Anything).Return(false, errors.New("ledger down"))
	gamification.On("CheckAchievements", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("ledger down"))

	archiver := new(MockArchiver)
	archiver.On("PutJSON", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket missing"))

	svc := services.NewExchangeService(env.store, env.store, env.skills, gamification, env.notifier, staticLinker{}, testConfig(),
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithArchiver(archiver))

	completed, err := svc.Complete(context.Background(), ex.ID, mentorID)
	svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	gamification.AssertNumberOfCalls(t, "AwardCompletionXP", 1)
	gamification.AssertNumberOfCalls(t, "CheckLevelUp", 2)
	gamification.AssertNumberOfCalls(t, "CheckAchievements", 2)
	archiver.AssertExpectations(t)

	stored, err := env.store.GetExchange(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestExchangeService_ArchivesTerminalExchanges(t *testing.T) {
	archiver := new(MockArchiver)
	env := newTestEnv(t, services.WithArchiver(archiver))
	ex := env.initiate(t)

	archiver.On("PutJSON", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "exchanges/") && strings.HasSuffix(key, "/"+ex.ID+".json")
	}), mock.MatchedBy(func(v any) bool {
		snapshot, ok := v.(*models.Exchange)
		return ok && snapshot.ID == ex.ID && snapshot.Status == models.StatusRejected
	})).Return(nil).Once()

	_, err := env.exchanges.Reject(context.Background(), ex.ID, learnerID)
	require.NoError(t, err)
	env.exchanges.Wait()

	archiver.AssertExpectations(t)
}

func TestArchiveKey(t *testing.T) {
	ex := &models.Exchange{ID: "abc", UpdatedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)}
	assert.Equal(t, "exchanges/2026/02/abc.json", services.ArchiveKey(ex))
}

func TestExchangeService_ConcurrentAcceptReject(t *testing.T) {
	env := newTestEnv(t)
	ex := env.initiate(t)

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []models.ExchangeStatus
		refusals int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var (
				res *models.Exchange
				err error
			)
			if i%2 == 0 {
				res, err = env.exchanges.Accept(context.Background(), ex.ID, learnerID)
			} else {
				res, err = env.exchanges.Reject(context.Background(), ex.ID, learnerID)
			}
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, res.Status)
			} else if errors.Is(err, services.ErrInvalidTransition) {
				refusals++
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, workers-1, refusals)

	stored, err := env.store.GetExchange(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], stored.Status)
}

func TestExchangeService_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err := env.exchanges.Accept(context.Background(), id, learnerID)
		assert.ErrorIs(t, err, services.ErrNotFound, id)

		_, err = env.exchanges.Get(context.Background(), id, learnerID)
		assert.ErrorIs(t, err, services.ErrNotFound, id)
	}
}

func TestExchangeService_Get(t *testing.T) {
	env := newTestEnv(t)
	ex := env.completed(t)

	detail, err := env.exchanges.Get(context.Background(), ex.ID, learnerID)
	require.NoError(t, err)
	assert.Equal(t, ex.ID, detail.ID)
	assert.False(t, detail.HasReviewed)
	assert.Empty(t, detail.Reviews)

	_, err = env.exchanges.Get(context.Background(), ex.ID, outsider)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	_, err = env.reviews.SubmitReview(context.Background(), ex.ID, learnerID, &models.SubmitReviewRequest{Rating: 4})
	require.NoError(t, err)

	detail, err = env.exchanges.Get(context.Background(), ex.ID, learnerID)
	require.NoError(t, err)
	assert.True(t, detail.HasReviewed)
	assert.Len(t, detail.Reviews, 1)

	detail, err = env.exchanges.Get(context.Background(), ex.ID, mentorID)
	require.NoError(t, err)
	assert.False(t, detail.HasReviewed)
}

func TestExchangeService_ListForUser(t *testing.T) {
	env := newTestEnv(t)
	ex := env.accepted(t)

	all, err := env.exchanges.ListForUser(context.Background(), mentorID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, all.Total)

	pending, err := env.exchanges.ListForUser(context.Background(), mentorID, "pending")
	require.NoError(t, err)
	assert.Equal(t, 0, pending.Total)

	open, err := env.exchanges.ListForUser(context.Background(), learnerID, "pending, Accepted")
	require.NoError(t, err)
	require.Equal(t, 1, open.Total)
	assert.Equal(t, ex.ID, open.Exchanges[0].ID)

	none, err := env.exchanges.ListForUser(context.Background(), outsider, "")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Total)

	_, err = env.exchanges.ListForUser(context.Background(), mentorID, "pending,bogus")
	assert.ErrorIs(t, err, services.ErrInvalidStatusFilter)
}

func TestExchangeService_Upcoming(t *testing.T) {
	env := newTestEnv(t)
	pending := env.initiate(t)

	upcoming, err := env.exchanges.Upcoming(context.Background(), learnerID)
	require.NoError(t, err)
	assert.Equal(t, 0, upcoming.Total, "pending exchanges are not scheduled yet")

	_, err = env.exchanges.Accept(context.Background(), pending.ID, learnerID)
	require.NoError(t, err)

	upcoming, err = env.exchanges.Upcoming(context.Background(), mentorID)
	require.NoError(t, err)
	require.Equal(t, 1, upcoming.Total)
	assert.Equal(t, pending.ID, upcoming.Exchanges[0].ID)
}

func TestParseStatusFilter(t *testing.T) {
	statuses, err := services.ParseStatusFilter("")
	require.NoError(t, err)
	assert.Empty(t, statuses)

	statuses, err = services.ParseStatusFilter("completed,,cancelled")
	require.NoError(t, err)
	assert.Equal(t, []models.ExchangeStatus{models.StatusCompleted, models.StatusCancelled}, statuses)

	_, err = services.ParseStatusFilter("done")
	assert.ErrorIs(t, err, services.ErrInvalidStatusFilter)
}
