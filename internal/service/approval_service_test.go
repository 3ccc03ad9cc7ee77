package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/repository/memstore"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

func newApprovalService(store *memstore.Store, recorder *invalidationRecorder) *ApprovalService {
	var dashboard dashboardInvalidator
	if recorder != nil {
		dashboard = recorder
	}
	return NewApprovalService(store.Links(), store.Users(), dashboard, NewMetricsService(), nil, nil)
}

func TestApprovalServiceApproveAddsStudentToRoster(t *testing.T) {
	store := memstore.New()
	recorder := &invalidationRecorder{}
	svc := newApprovalService(store, recorder)
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")
	student, linkID := registerStudent(t, store, "asha", teacher.ID)

	pending, err := svc.ListPending(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, linkID, pending[0].LinkID)
	assert.Equal(t, student.ID, pending[0].ID)

	link, err := svc.Decide(ctx, linkID, teacher.ID, models.DecideLinkRequest{Status: models.LinkStatusApproved}, RequestMeta{IP: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusApproved, link.Status)

	roster, err := svc.ListApprovedStudents(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, student.ID, roster[0].ID)

	pending, err = svc.ListPending(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	logs := store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionLinkDecision, logs[0].Action)
	assert.Equal(t, "10.0.0.1", logs[0].IPAddress)
	assert.JSONEq(t, `{"status":"pending"}`, string(logs[0].OldValues))
	assert.Equal(t, []string{teacher.ID}, recorder.teachers)
}

func TestApprovalServiceDecisionsAreTerminal(t *testing.T) {
	store := memstore.New()
	svc := newApprovalService(store, nil)
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")
	_, linkID := registerStudent(t, store, "ravi", teacher.ID)

	_, err := svc.Decide(ctx, linkID, teacher.ID, models.DecideLinkRequest{Status: models.LinkStatusRejected}, RequestMeta{})
	require.NoError(t, err)

	link, err := svc.Decide(ctx, linkID, teacher.ID, models.DecideLinkRequest{Status: models.LinkStatusRejected}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusRejected, link.Status)

	_, err = svc.Decide(ctx, linkID, teacher.ID, models.DecideLinkRequest{Status: models.LinkStatusApproved}, RequestMeta{})
	assert.Equal(t, appErrors.ErrConflict.Code, errCode(err))

	roster, err := svc.ListApprovedStudents(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
	assert.Len(t, store.AuditLogs(), 1)
}

func TestApprovalServiceRejectsInvalidRequests(t *testing.T) {
	store := memstore.New()
	svc := newApprovalService(store, nil)
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")
	other := registerTeacher(t, store, "other")
	_, linkID := registerStudent(t, store, "meera", teacher.ID)

	_, err := svc.Decide(ctx, linkID, teacher.ID, models.DecideLinkRequest{Status: models.LinkStatusPending}, RequestMeta{})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	_, err = svc.Decide(ctx, linkID, teacher.ID, models.DecideLinkRequest{Status: "maybe"}, RequestMeta{})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	_, err = svc.Decide(ctx, linkID, other.ID, models.DecideLinkRequest{Status: models.LinkStatusApproved}, RequestMeta{})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(err))

	_, err = svc.Decide(ctx, "missing", teacher.ID, models.DecideLinkRequest{Status: models.LinkStatusApproved}, RequestMeta{})
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
}

func TestApprovalServiceConcurrentDecisionsAgree(t *testing.T) {
	store := memstore.New()
	svc := newApprovalService(store, nil)
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")
	_, linkID := registerStudent(t, store, "kabir", teacher.ID)

	statuses := []models.LinkStatus{models.LinkStatusApproved, models.LinkStatusRejected}
	errs := make([]error, len(statuses))
	var wg sync.WaitGroup
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status models.LinkStatus) {
			defer wg.Done()
			_, errs[i] = svc.Decide(ctx, linkID, teacher.ID, models.DecideLinkRequest{Status: status}, RequestMeta{})
		}(i, status)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.Equal(t, appErrors.ErrConflict.Code, errCode(err))
		}
	}
	assert.Equal(t, 1, failures)
	assert.Len(t, store.AuditLogs(), 1)
}

func TestApprovalServiceListsAreNeverNil(t *testing.T) {
	svc := newApprovalService(memstore.New(), nil)

	pending, err := svc.ListPending(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, pending)

	roster, err := svc.ListApprovedStudents(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, roster)
}
