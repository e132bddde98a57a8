package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap-api/config"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/repository"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"github.com/skillswap/skillswap-api/pkg/tracing"
	"go.uber.org/zap"
)

const archiveTimeout = 30 * time.Second

// transition describes one edge of the exchange state machine
type transition struct {
	action  string
	to      models.ExchangeStatus
	allowed func(ex *models.Exchange, actorID string) bool
}

var (
	acceptTransition = transition{
		action:  "accept",
		to:      models.StatusAccepted,
		allowed: learnerOnly,
	}
	rejectTransition = transition{
		action:  "reject",
		to:      models.StatusRejected,
		allowed: learnerOnly,
	}
	cancelTransition = transition{
		action:  "cancel",
		to:      models.StatusCancelled,
		allowed: participant,
	}
	completeTransition = transition{
		action:  "complete",
		to:      models.StatusCompleted,
		allowed: participant,
	}
)

func learnerOnly(ex *models.Exchange, actorID string) bool {
	return actorID != "" && actorID == ex.LearnerID
}

func participant(ex *models.Exchange, actorID string) bool {
	return ex.IsParticipant(actorID)
}

// ExchangeOption customizes an ExchangeService
type ExchangeOption func(*ExchangeService)

// WithClock replaces time.Now
func WithClock(now Clock) ExchangeOption {
	return func(s *ExchangeService) { s.now = now }
}

// WithArchiver stores a snapshot of every exchange that reaches a terminal
// status
func WithArchiver(archiver Archiver) ExchangeOption {
	return func(s *ExchangeService) { s.archiver = archiver }
}

// ExchangeService matches users into exchanges and drives their lifecycle
type ExchangeService struct {
	exchanges    repository.ExchangeStore
	reviews      repository.ReviewStore
	skills       SkillGraph
	gamification Gamification
	notifier     Notifier
	meetings     MeetingLinker
	archiver     Archiver
	config       *config.Config
	now          Clock
	background   sync.WaitGroup
}

// NewExchangeService creates a new exchange service instance
func NewExchangeService(
	exchanges repository.ExchangeStore,
	reviews repository.ReviewStore,
	skills SkillGraph,
	gamification Gamification,
	notifier Notifier,
	meetings MeetingLinker,
	cfg *config.Config,
	opts ...ExchangeOption,
) *ExchangeService {
	s := &ExchangeService{
		exchanges:    exchanges,
		reviews:      reviews,
		skills:       skills,
		gamification: gamification,
		notifier:     notifier,
		meetings:     meetings,
		config:       cfg,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait blocks until background archive uploads finish
func (s *ExchangeService) Wait() {
	s.background.Wait()
}

// Initiate validates a proposed exchange and stores it as pending. The
// requester takes the side named by req.Role and the partner the other one.
func (s *ExchangeService) Initiate(ctx context.Context, requesterID string, req *models.InitiateExchangeRequest) (ex *models.Exchange, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "ExchangeService.Initiate", tracing.UserID(requesterID))
	defer func() {
		tracing.EndSpan(span, err)
		metrics.ExchangeOperationDuration.WithLabelValues("initiate").Observe(metrics.MeasureDuration(start))
		metrics.ExchangesInitiated.WithLabelValues(initiateOutcome(err)).Inc()
	}()

	if err := s.validateInitiate(requesterID, req); err != nil {
		return nil, err
	}

	mentorID, learnerID := requesterID, req.PartnerID
	if req.Role == models.RoleLearner {
		mentorID, learnerID = req.PartnerID, requesterID
	}

	skill, err := s.skills.GetSkill(ctx, req.SkillID)
	if err != nil {
		return nil, err
	}
	mentorAssertion, err := s.skills.GetAssertion(ctx, mentorID, skill.ID)
	if err != nil {
		return nil, err
	}
	learnerAssertion, err := s.skills.GetAssertion(ctx, learnerID, skill.ID)
	if err != nil {
		return nil, err
	}
	if !mentorAssertion.CanTeach || !learnerAssertion.WantsToLearn {
		return nil, ErrRoleMismatch
	}

	candidate := &models.Exchange{
		ID:                 uuid.NewString(),
		MentorID:           mentorID,
		LearnerID:          learnerID,
		SkillID:            skill.ID,
		MentorAssertionID:  &mentorAssertion.ID,
		LearnerAssertionID: &learnerAssertion.ID,
		ScheduledTime:      req.ScheduledTime.UTC(),
		DurationMinutes:    req.DurationMinutes,
		MeetingType:        req.MeetingType,
		Notes:              strings.TrimSpace(req.Notes),
	}
	switch req.MeetingType {
	case models.MeetingInPerson:
		candidate.Location = req.Location
	case models.MeetingVirtual:
		candidate.MeetingLink = s.meetingLink(mentorID, learnerID, skill.Name, req.MeetingLink)
	}

	ex, err = s.exchanges.CreateExchange(ctx, candidate)
	if err != nil {
		switch {
		case pkgerrors.Is(err, pkgerrors.ErrConflict):
			// the store may not know which exchange blocked the insert
			existingID := ""
			if ex != nil {
				existingID = ex.ID
			}
			logger.Info("Duplicate exchange request",
				zap.String("requester_id", requesterID),
				zap.String("existing_exchange_id", existingID))
			return nil, &DuplicateExchangeError{ExistingID: existingID}
		case pkgerrors.Is(err, pkgerrors.ErrPreconditionFailed):
			logger.Info("Skill assertion changed during exchange initiation",
				zap.String("requester_id", requesterID),
				zap.Error(err))
			return nil, ErrRoleMismatch
		}
		return nil, mapStoreError(err, "exchange")
	}

	logger.Info("Exchange initiated",
		zap.String("exchange_id", ex.ID),
		zap.String("mentor_id", ex.MentorID),
		zap.String("learner_id", ex.LearnerID),
		zap.String("skill_id", ex.SkillID),
		zap.String("meeting_type", string(ex.MeetingType)))

	s.notifier.Notify(ctx, req.PartnerID, models.NotifyExchangeRequest,
		fmt.Sprintf("New %s exchange request scheduled for %s", skill.Name, ex.ScheduledTime.Format(time.RFC1123)),
		&ex.ID)

	return ex, nil
}

// validateInitiate runs the checks that need no lookups. A past schedule is
// reported before anything else.
func (s *ExchangeService) validateInitiate(requesterID string, req *models.InitiateExchangeRequest) error {
	if req.ScheduledTime.Before(s.now()) {
		return ErrScheduleInPast
	}
	if requesterID == "" || req.PartnerID == "" || requesterID == req.PartnerID {
		return ErrInvalidParticipants
	}
	if req.MeetingType == models.MeetingInPerson && strings.TrimSpace(req.Location) == "" {
		return ErrLocationRequired
	}
	if req.DurationMinutes < s.config.Exchange.MinDurationMinutes || req.DurationMinutes > s.config.Exchange.MaxDurationMinutes {
		return fmt.Errorf("%w: %d minutes (allowed %d-%d)", ErrInvalidDuration,
			req.DurationMinutes, s.config.Exchange.MinDurationMinutes, s.config.Exchange.MaxDurationMinutes)
	}
	return nil
}

// meetingLink keeps an explicit link and otherwise asks the generator. A
// generator failure leaves the exchange without a link.
func (s *ExchangeService) meetingLink(mentorID, learnerID, skillName, explicit string) string {
	if link := strings.TrimSpace(explicit); link != "" {
		return link
	}
	if s.meetings == nil {
		return ""
	}
	link, err := s.meetings.GenerateLink(mentorID, learnerID, skillName)
	if err != nil {
		metrics.SideEffectFailures.WithLabelValues("meeting_link").Inc()
		logger.Warn("Failed to generate meeting link", zap.Error(err))
		return ""
	}
	return link
}

// Accept confirms a pending exchange. Only the learner may accept.
func (s *ExchangeService) Accept(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error) {
	ex, err := s.transition(ctx, exchangeID, actorID, acceptTransition)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, ex.MentorID, models.NotifyNewEvent,
		fmt.Sprintf("Your exchange on %s was accepted", ex.ScheduledTime.Format(time.RFC1123)), &ex.ID)

	return ex, nil
}

// Reject declines a pending exchange. Only the learner may reject.
func (s *ExchangeService) Reject(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error) {
	ex, err := s.transition(ctx, exchangeID, actorID, rejectTransition)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, ex.MentorID, models.NotifyExchangeRejected,
		fmt.Sprintf("Your exchange on %s was declined", ex.ScheduledTime.Format(time.RFC1123)), &ex.ID)
	s.archive(ctx, ex)

	return ex, nil
}

// Cancel calls off an accepted exchange. Either participant may cancel.
func (s *ExchangeService) Cancel(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error) {
	ex, err := s.transition(ctx, exchangeID, actorID, cancelTransition)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, ex.Counterpart(actorID), models.NotifyExchangeCancelled,
		fmt.Sprintf("Your exchange on %s was cancelled", ex.ScheduledTime.Format(time.RFC1123)), &ex.ID)
	s.archive(ctx, ex)

	return ex, nil
}

// Complete marks an accepted exchange as held and runs the gamification
// side effects once. A second call fails with ErrInvalidTransition.
func (s *ExchangeService) Complete(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error) {
	ex, err := s.transition(ctx, exchangeID, actorID, completeTransition)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, ex.Counterpart(actorID), models.NotifyExchangeCompleted,
		"Your exchange was marked as completed. Leave a review for your partner", &ex.ID)
	s.rewardCompletion(ctx, ex)
	s.archive(ctx, ex)

	return ex, nil
}

// transition applies t under the exchange row lock. Permission is checked
// before the current status.
func (s *ExchangeService) transition(ctx context.Context, exchangeID, actorID string, t transition) (ex *models.Exchange, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "ExchangeService."+t.action,
		tracing.ExchangeID(exchangeID), tracing.UserID(actorID))
	defer func() {
		tracing.EndSpan(span, err)
		metrics.ExchangeOperationDuration.WithLabelValues(t.action).Observe(metrics.MeasureDuration(start))
	}()

	if !isValidID(exchangeID) {
		metrics.ExchangeTransitionFailures.WithLabelValues(t.action, "not_found").Inc()
		return nil, fmt.Errorf("exchange: %w", ErrNotFound)
	}

	var from models.ExchangeStatus
	ex, err = s.exchanges.UpdateExchange(ctx, exchangeID, func(locked *models.Exchange) error {
		if !t.allowed(locked, actorID) {
			return ErrNotAuthorized
		}
		if !locked.Status.CanTransitionTo(t.to) {
			return fmt.Errorf("%w: cannot %s a %s exchange", ErrInvalidTransition, t.action, locked.Status)
		}

		from = locked.Status
		now := s.now().UTC()
		locked.Status = t.to
		if t.to == models.StatusCompleted {
			locked.CompletedAt = &now
		}
		return nil
	})
	if err != nil {
		reason := transitionFailureReason(err)
		metrics.ExchangeTransitionFailures.WithLabelValues(t.action, reason).Inc()
		logger.Info("Exchange transition refused",
			zap.String("action", t.action),
			zap.String("exchange_id", exchangeID),
			zap.String("actor_id", actorID),
			zap.String("reason", reason))
		if errors.Is(err, ErrNotAuthorized) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, mapStoreError(err, "exchange")
	}

	metrics.ExchangeTransitions.WithLabelValues(string(from), string(ex.Status)).Inc()
	logger.Info("Exchange transitioned",
		zap.String("exchange_id", ex.ID),
		zap.String("actor_id", actorID),
		zap.String("from", string(from)),
		zap.String("to", string(ex.Status)))

	return ex, nil
}

// rewardCompletion runs the gamification collaborator for both participants.
// The completion is already committed, so failures are only logged.
func (s *ExchangeService) rewardCompletion(ctx context.Context, ex *models.Exchange) {
	ctx = context.WithoutCancel(ctx)

	if err := s.gamification.AwardCompletionXP(ctx, ex); err != nil {
		s.sideEffectFailed("xp_award", ex, err)
	}
	for _, userID := range []string{ex.MentorID, ex.LearnerID} {
		if _, err := s.gamification.CheckLevelUp(ctx, userID); err != nil {
			s.sideEffectFailed("level_up", ex, err, zap.String("user_id", userID))
		}
		if _, err := s.gamification.CheckAchievements(ctx, userID, ex); err != nil {
			s.sideEffectFailed("achievements", ex, err, zap.String("user_id", userID))
		}
	}
}

// archive uploads a snapshot of a terminal exchange in the background
func (s *ExchangeService) archive(ctx context.Context, ex *models.Exchange) {
	if s.archiver == nil {
		return
	}

	snapshot := *ex
	key := ArchiveKey(&snapshot)
	ctx = context.WithoutCancel(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
		defer cancel()

		if err := s.archiver.PutJSON(ctx, key, &snapshot); err != nil {
			s.sideEffectFailed("archive", &snapshot, err, zap.String("key", key))
		}
	}()
}

func (s *ExchangeService) sideEffectFailed(effect string, ex *models.Exchange, err error, fields ...zap.Field) {
	metrics.SideEffectFailures.WithLabelValues(effect).Inc()
	logger.LogError(err, "Exchange side effect failed",
		append([]zap.Field{
			zap.String("effect", effect),
			zap.String("exchange_id", ex.ID),
		}, fields...)...)
}

// ArchiveKey returns the object key for an exchange snapshot, partitioned by
// the month the exchange was last updated
func ArchiveKey(ex *models.Exchange) string {
	return fmt.Sprintf("exchanges/%s/%s.json", ex.UpdatedAt.UTC().Format("2006/01"), ex.ID)
}

// Get returns an exchange to one of its participants together with its
// reviews
func (s *ExchangeService) Get(ctx context.Context, exchangeID, actorID string) (*models.ExchangeDetail, error) {
	if !isValidID(exchangeID) {
		return nil, fmt.Errorf("exchange: %w", ErrNotFound)
	}

	ex, err := s.exchanges.GetExchange(ctx, exchangeID)
	if err != nil {
		return nil, mapStoreError(err, "exchange")
	}
	if !ex.IsParticipant(actorID) {
		return nil, ErrNotAuthorized
	}

	reviews, err := s.reviews.ListReviewsForExchange(ctx, ex.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	detail := &models.ExchangeDetail{Exchange: ex, Reviews: reviews}
	for _, r := range reviews {
		if r.ReviewerID == actorID {
			detail.HasReviewed = true
			break
		}
	}
	return detail, nil
}

// ListForUser returns userID's exchanges newest first. statusFilter is an
// optional comma-separated list of statuses.
func (s *ExchangeService) ListForUser(ctx context.Context, userID, statusFilter string) (*models.ExchangesResponse, error) {
	statuses, err := ParseStatusFilter(statusFilter)
	if err != nil {
		return nil, err
	}

	exchanges, err := s.exchanges.ListExchangesForUser(ctx, userID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return &models.ExchangesResponse{Exchanges: exchanges, Total: len(exchanges)}, nil
}

// Upcoming returns userID's accepted exchanges that have not started yet,
// soonest first
func (s *ExchangeService) Upcoming(ctx context.Context, userID string) (*models.ExchangesResponse, error) {
	exchanges, err := s.exchanges.ListUpcoming(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming exchanges: %w", err)
	}
	return &models.ExchangesResponse{Exchanges: exchanges, Total: len(exchanges)}, nil
}

// ParseStatusFilter parses a comma-separated status list. An empty filter
// matches every status.
func ParseStatusFilter(filter string) ([]models.ExchangeStatus, error) {
	var statuses []models.ExchangeStatus
	for _, part := range strings.Split(filter, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status := models.ExchangeStatus(strings.ToLower(part))
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatusFilter, part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func isValidID(id string) bool {
	return uuid.Validate(id) == nil
}

func initiateOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrDuplicateExchange):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRoleMismatch):
		return "role_mismatch"
	case errors.Is(err, ErrScheduleInPast), errors.Is(err, ErrInvalidParticipants),
		errors.Is(err, ErrLocationRequired), errors.Is(err, ErrInvalidDuration):
		return "invalid"
	default:
		return "error"
	}
}

func transitionFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case pkgerrors.Is(err, pkgerrors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
