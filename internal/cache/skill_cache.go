package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	skillsCacheKey     = "skills"
	skillsCacheName    = "skills"
	defaultSkillsTTL   = 10 * time.Minute
	skillsCleanupEvery = time.Hour
)

// SkillLoader fetches the full skill catalog
type SkillLoader func(ctx context.Context) ([]*models.Skill, error)

// SkillCache keeps the skill catalog in memory. The catalog is small and
// read on every initiation, so it is loaded whole and indexed by ID.
type SkillCache struct {
	cache *gocache.Cache
	load  SkillLoader
	ttl   time.Duration
	mu    sync.Mutex // serializes reloads
}

// NewSkillCache creates a new skill cache
func NewSkillCache(load SkillLoader, ttl time.Duration) *SkillCache {
	if ttl <= 0 {
		ttl = defaultSkillsTTL
	}
	return &SkillCache{
		cache: gocache.New(ttl, skillsCleanupEvery),
		load:  load,
		ttl:   ttl,
	}
}

// List returns the catalog sorted by name
func (sc *SkillCache) List(ctx context.Context) ([]*models.Skill, error) {
	index, err := sc.index(ctx)
	if err != nil {
		return nil, err
	}

	skills := make([]*models.Skill, 0, len(index))
	for _, s := range index {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

// Get returns a skill by ID. The second result is false if the skill is not
// in the catalog.
func (sc *SkillCache) Get(ctx context.Context, id string) (*models.Skill, bool, error) {
	index, err := sc.index(ctx)
	if err != nil {
		return nil, false, err
	}
	s, ok := index[id]
	return s, ok, nil
}

// Invalidate drops the cached catalog so the next read reloads it
func (sc *SkillCache) Invalidate() {
	sc.cache.Delete(skillsCacheKey)
	metrics.CacheSize.WithLabelValues(skillsCacheName).Set(0)
}

func (sc *SkillCache) index(ctx context.Context) (map[string]*models.Skill, error) {
	if index, ok := sc.cached(); ok {
		metrics.CacheHits.WithLabelValues(skillsCacheName).Inc()
		return index, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	// another caller may have reloaded while we waited
	if index, ok := sc.cached(); ok {
		metrics.CacheHits.WithLabelValues(skillsCacheName).Inc()
		return index, nil
	}
	metrics.CacheMisses.WithLabelValues(skillsCacheName).Inc()

	skills, err := sc.load(ctx)
	if err != nil {
		logger.Error("Failed to refresh skills cache", zap.Error(err))
		return nil, fmt.Errorf("failed to load skills: %w", err)
	}

	index := make(map[string]*models.Skill, len(skills))
	for _, s := range skills {
		index[s.ID] = s
	}
	sc.cache.Set(skillsCacheKey, index, sc.ttl)
	metrics.CacheSize.WithLabelValues(skillsCacheName).Set(float64(len(index)))

	logger.Debug("Skills cache refreshed", zap.Int("count", len(index)))
	return index, nil
}

func (sc *SkillCache) cached() (map[string]*models.Skill, bool) {
	data, found := sc.cache.Get(skillsCacheKey)
	if !found {
		return nil, false
	}
	index, ok := data.(map[string]*models.Skill)
	if !ok {
		logger.Error("Invalid skills cache data type")
		sc.cache.Delete(skillsCacheKey)
		return nil, false
	}
	return index, true
}
