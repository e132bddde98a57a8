package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/repository"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"github.com/skillswap/skillswap-api/pkg/tracing"
	"go.uber.org/zap"
)

// ReviewService handles review submissions for completed exchanges
type ReviewService struct {
	reviews      repository.ReviewStore
	gamification Gamification
	notifier     Notifier
}

// NewReviewService creates a new review service instance
func NewReviewService(reviews repository.ReviewStore, gamification Gamification, notifier Notifier) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		gamification: gamification,
		notifier:     notifier,
	}
}

// SubmitReview stores reviewerID's rating of the other participant and
// recomputes that participant's XP for the exchange
func (s *ReviewService) SubmitReview(ctx context.Context, exchangeID, reviewerID string, req *models.SubmitReviewRequest) (review *models.Review, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "ReviewService.SubmitReview",
		tracing.ExchangeID(exchangeID), tracing.UserID(reviewerID))
	defer func() {
		tracing.EndSpan(span, err)
	}()

	if req.Rating < 1 || req.Rating > 5 {
		metrics.ReviewSubmissions.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidRating
	}
	if !isValidID(exchangeID) {
		metrics.ReviewSubmissions.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("exchange: %w", ErrNotFound)
	}

	candidate := &models.Review{
		ID:         uuid.NewString(),
		ExchangeID: exchangeID,
		ReviewerID: reviewerID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}

	var reviewed *models.Exchange
	review, err = s.reviews.CreateReview(ctx, candidate, func(ex *models.Exchange) error {
		if !ex.IsParticipant(reviewerID) {
			return ErrNotParticipant
		}
		if ex.Status != models.StatusCompleted {
			return ErrNotCompleted
		}
		candidate.ReviewedUserID = ex.Counterpart(reviewerID)
		reviewed = ex
		return nil
	})
	if err != nil {
		outcome, mapped := mapReviewError(err)
		metrics.ReviewSubmissions.WithLabelValues(outcome).Inc()
		logger.Info("Review refused",
			zap.String("exchange_id", exchangeID),
			zap.String("reviewer_id", reviewerID),
			zap.String("outcome", outcome))
		return nil, mapped
	}

	// the review is committed; the XP adjustment is best-effort
	bgCtx := context.WithoutCancel(ctx)
	if err := s.gamification.ApplyReviewRating(bgCtx, reviewed, review.ReviewedUserID, review.Rating); err != nil {
		metrics.SideEffectFailures.WithLabelValues("review_xp").Inc()
		logger.LogError(err, "Failed to apply review rating",
			zap.String("exchange_id", exchangeID),
			zap.String("reviewed_user_id", review.ReviewedUserID))
	} else if _, err := s.gamification.CheckLevelUp(bgCtx, review.ReviewedUserID); err != nil {
		metrics.SideEffectFailures.WithLabelValues("level_up").Inc()
		logger.LogError(err, "Failed to check level up after review",
			zap.String("user_id", review.ReviewedUserID))
	}

	s.notifier.Notify(ctx, review.ReviewedUserID, models.NotifyNewReview,
		fmt.Sprintf("You received a %d-star review", review.Rating), &review.ExchangeID)

	metrics.ReviewSubmissions.WithLabelValues("success").Inc()
	logger.Info("Review submitted successfully",
		zap.String("exchange_id", exchangeID),
		zap.String("review_id", review.ID),
		zap.String("reviewer_id", reviewerID),
		zap.String("reviewed_user_id", review.ReviewedUserID),
		zap.Int("rating", review.Rating),
		zap.Duration("duration", time.Since(start)))

	return review, nil
}

func mapReviewError(err error) (string, error) {
	switch {
	case pkgerrors.Is(err, ErrNotParticipant):
		return "not_participant", err
	case pkgerrors.Is(err, ErrNotCompleted):
		return "not_completed", err
	case pkgerrors.Is(err, pkgerrors.ErrConflict):
		return "duplicate", ErrDuplicateReview
	case pkgerrors.Is(err, pkgerrors.ErrNotFound):
		return "not_found", fmt.Errorf("exchange: %w", ErrNotFound)
	default:
		return "error", fmt.Errorf("failed to create review: %w", err)
	}
}
