package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/repository/memstore"
)

func TestDashboardServiceCountsTeacherActivity(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")
	s1 := approvedStudent(t, store, "s1", teacher.ID)
	approvedStudent(t, store, "s2", teacher.ID)
	registerStudent(t, store, "s3", teacher.ID)

	tests := NewTestService(store.Tests(), nil, nil, nil, nil)
	test, err := tests.Create(ctx, teacher.ID, physicsRequest())
	require.NoError(t, err)
	assignments := NewAssignmentService(AssignmentServiceParams{Repo: store.Assignments(), Tests: tests, Roster: store.Links()})
	_, err = assignments.Assign(ctx, test.ID, teacher.ID, models.AssignTestRequest{StudentIDs: []string{s1.ID}})
	require.NoError(t, err)

	svc := NewDashboardService(store.Stats(), nil, time.Minute, zap.NewNop())
	stats, hit, err := svc.Stats(ctx, teacher.ID)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 1, stats.PendingApprovals)
	assert.Equal(t, 1, stats.TestsCreated)
	assert.Equal(t, 1, stats.TestsAssigned)

	svc.Invalidate(ctx, teacher.ID)
}

func TestDashboardServiceCachesUntilInvalidated(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")

	cacheRepo := &stubCacheRepo{}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(store.Stats(), cache, time.Minute, zap.NewNop())
	tests := NewTestService(store.Tests(), nil, svc, nil, nil)

	stats, hit, err := svc.Stats(ctx, teacher.ID)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, stats.TestsCreated)
	assert.Contains(t, cacheRepo.data, "dash:teacher:"+teacher.ID+":stats")

	_, hit, err = svc.Stats(ctx, teacher.ID)
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = tests.Create(ctx, teacher.ID, physicsRequest())
	require.NoError(t, err)

	stats, hit, err = svc.Stats(ctx, teacher.ID)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, stats.TestsCreated)
}

func TestDashboardServiceRequiresTeacher(t *testing.T) {
	svc := NewDashboardService(memstore.New().Stats(), nil, 0, nil)
	_, _, err := svc.Stats(context.Background(), "")
	assert.Error(t, err)

	var nilSvc *DashboardService
	nilSvc.Invalidate(context.Background(), "teacher-1")
}

// stubCacheRepo keeps JSON payloads in a map, mirroring the Redis repository.
type stubCacheRepo struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.data[key]
	if !ok {
		return errCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.data == nil {
		s.data = map[string][]byte{}
	}
	s.data[key] = raw
	return nil
}

func (s *stubCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
