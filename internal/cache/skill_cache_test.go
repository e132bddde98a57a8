package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillCache_LoadsOnceUntilInvalidated(t *testing.T) {
	loads := 0
	sc := NewSkillCache(func(ctx context.Context) ([]*models.Skill, error) {
		loads++
		return []*models.Skill{
			{ID: "python", Name: "Python"},
			{ID: "go", Name: "Go"},
		}, nil
	}, time.Minute)

	skills, err := sc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "Go", skills[0].Name)

	s, ok, err := sc.Get(context.Background(), "python")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Python", s.Name)

	_, ok, err = sc.Get(context.Background(), "rust")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, loads)

	sc.Invalidate()
	_, err = sc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestSkillCache_LoadError(t *testing.T) {
	sc := NewSkillCache(func(ctx context.Context) ([]*models.Skill, error) {
		return nil, errors.New("db down")
	}, 0)

	_, _, err := sc.Get(context.Background(), "python")
	assert.Error(t, err)
}
