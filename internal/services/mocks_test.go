package services_test

import (
	"context"

	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockGamification is a mock implementation of services.Gamification
type MockGamification struct {
	mock.Mock
}

func (m *MockGamification) CalculateXP(ex *models.Exchange, rating *int) int {
	args := m.Called(ex, rating)
	return args.Int(0)
}

func (m *MockGamification) AwardCompletionXP(ctx context.Context, ex *models.Exchange) error {
	args := m.Called(ctx, ex)
	return args.Error(0)
}

func (m *MockGamification) ApplyReviewRating(ctx context.Context, ex *models.Exchange, reviewedUserID string, rating int) error {
	args := m.Called(ctx, ex, reviewedUserID, rating)
	return args.Error(0)
}

func (m *MockGamification) CheckLevelUp(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGamification) CheckAchievements(ctx context.Context, userID string, ex *models.Exchange) ([]string, error) {
	args := m.Called(ctx, userID, ex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockArchiver is a mock implementation of services.Archiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) PutJSON(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

// MockMeetingLinker is a mock implementation of services.MeetingLinker
type MockMeetingLinker struct {
	mock.Mock
}

func (m *MockMeetingLinker) GenerateLink(userA, userB, skillName string) (string, error) {
	args := m.Called(userA, userB, skillName)
	return args.String(0), args.Error(1)
}
