package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/dto"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

type statsRepository interface {
	TeacherStats(ctx context.Context, teacherID string) (*dto.DashboardStats, error)
}

// dashboardInvalidator drops cached stats after a write that changes them.
type dashboardInvalidator interface {
	Invalidate(ctx context.Context, teacherID string)
}

// DashboardService serves the teacher dashboard counters.
type DashboardService struct {
	repo     statsRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService. cache may be nil.
func NewDashboardService(repo statsRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func dashboardCacheKey(teacherID string) string {
	return fmt.Sprintf("dash:teacher:%s:stats", teacherID)
}

// Stats returns the counters and whether they came from cache.
func (s *DashboardService) Stats(ctx context.Context, teacherID string) (*dto.DashboardStats, bool, error) {
	if teacherID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrUnauthorized, "missing teacher context")
	}
	key := dashboardCacheKey(teacherID)
	if s.cache.Enabled() {
		var cached dto.DashboardStats
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	stats, err := s.repo.TeacherStats(ctx, teacherID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load dashboard stats")
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, false, nil
}

// Invalidate drops the teacher's cached counters. Failures are logged only.
func (s *DashboardService) Invalidate(ctx context.Context, teacherID string) {
	if s == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(teacherID)); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}
