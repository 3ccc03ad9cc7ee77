package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

type linkRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentTeacherLink, error)
	DecidePending(ctx context.Context, id string, status models.LinkStatus) (bool, error)
	ListPending(ctx context.Context, teacherID string) ([]models.PendingStudent, error)
	ListApprovedStudents(ctx context.Context, teacherID string) ([]models.RosterStudent, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RequestMeta identifies the client behind an audited action.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// ApprovalService runs the student-teacher link state machine. Decisions
// are terminal: a link leaves pending once and never changes again.
type ApprovalService struct {
	repo      linkRepository
	audit     auditWriter
	dashboard dashboardInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApprovalService constructs the service. audit and dashboard may be nil.
func NewApprovalService(repo linkRepository, audit auditWriter, dashboard dashboardInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ApprovalService{repo: repo, audit: audit, dashboard: dashboard, metrics: metrics, validator: validate, logger: logger}
}

// Decide applies the teacher's decision to a link. Re-sending the decision a
// link already carries succeeds without change; any other change to a
// decided link is a conflict.
func (s *ApprovalService) Decide(ctx context.Context, linkID, teacherID string, req models.DecideLinkRequest, meta RequestMeta) (*models.StudentTeacherLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "status must be approved or rejected")
	}

	link, err := s.load(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "link belongs to another teacher")
	}
	if link.Status == req.Status {
		return link, nil
	}
	if !models.CanTransition(link.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "link has already been "+string(link.Status))
	}

	applied, err := s.repo.DecidePending(ctx, linkID, req.Status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update link")
	}
	if !applied {
		// Decided concurrently; the stored value wins.
		current, err := s.load(ctx, linkID)
		if err != nil {
			return nil, err
		}
		if current.Status == req.Status {
			return current, nil
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "link has already been "+string(current.Status))
	}

	previous := link.Status
	link.Status = req.Status
	s.metrics.RecordLinkDecision(string(req.Status))
	s.recordAudit(ctx, teacherID, link, previous, meta)
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx, teacherID)
	}
	return link, nil
}

// ListPending returns the teacher's pending requests.
func (s *ApprovalService) ListPending(ctx context.Context, teacherID string) ([]models.PendingStudent, error) {
	items, err := s.repo.ListPending(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pending students")
	}
	if items == nil {
		items = []models.PendingStudent{}
	}
	return items, nil
}

// ListApprovedStudents returns the teacher's roster, each student once.
func (s *ApprovalService) ListApprovedStudents(ctx context.Context, teacherID string) ([]models.RosterStudent, error) {
	items, err := s.repo.ListApprovedStudents(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	if items == nil {
		items = []models.RosterStudent{}
	}
	return items, nil
}

func (s *ApprovalService) load(ctx context.Context, linkID string) (*models.StudentTeacherLink, error) {
	link, err := s.repo.FindByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "link not found")
		}
		return nil, appErrors.Internal(err, "failed to load link")
	}
	return link, nil
}

func (s *ApprovalService) recordAudit(ctx context.Context, teacherID string, link *models.StudentTeacherLink, previous models.LinkStatus, meta RequestMeta) {
	if s.audit == nil {
		return
	}
	oldValues, _ := json.Marshal(map[string]string{"status": string(previous)})
	newValues, _ := json.Marshal(map[string]string{"status": string(link.Status), "studentId": link.StudentID})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &teacherID,
		Action:     models.AuditActionLinkDecision,
		Resource:   "student_teacher_link",
		ResourceID: &link.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record link decision audit log", zap.Error(err))
	}
}
