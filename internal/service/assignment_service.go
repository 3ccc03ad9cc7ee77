package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
	"github.com/Ksohaib16/Test-Generator/pkg/export"
)

type assignmentRepository interface {
	CreateBatch(ctx context.Context, assignments []models.Assignment) error
	ListByTest(ctx context.Context, testID string) ([]models.AssignmentDetail, error)
}

type rosterChecker interface {
	ApprovedStudentIDs(ctx context.Context, teacherID string, studentIDs []string) (map[string]bool, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// AssignmentService binds tests to approved students.
type AssignmentService struct {
	repo      assignmentRepository
	tests     ownedTestReader
	roster    rosterChecker
	csv       tableRenderer
	dashboard dashboardInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// AssignmentServiceParams groups constructor dependencies.
type AssignmentServiceParams struct {
	Repo      assignmentRepository
	Tests     ownedTestReader
	Roster    rosterChecker
	CSV       tableRenderer
	Dashboard dashboardInvalidator
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(params AssignmentServiceParams) *AssignmentService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &AssignmentService{
		repo:      params.Repo,
		tests:     params.Tests,
		roster:    params.Roster,
		csv:       csv,
		dashboard: params.Dashboard,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
	}
}

// Assign creates one assignment per distinct student in a single
// transaction and returns how many were created. Repeated calls create
// additional rows.
func (s *AssignmentService) Assign(ctx context.Context, testID, teacherID string, req models.AssignTestRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Validation(err, "invalid assignment payload")
	}

	test, err := s.tests.Get(ctx, testID, teacherID)
	if err != nil {
		return 0, err
	}

	studentIDs := uniqueStrings(req.StudentIDs)
	approved, err := s.roster.ApprovedStudentIDs(ctx, teacherID, studentIDs)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to verify students")
	}
	var unknown []string
	for _, id := range studentIDs {
		if !approved[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return 0, fieldError("studentIds", "approved", "students are not approved for this teacher: "+strings.Join(unknown, ", "))
	}

	batch := make([]models.Assignment, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		batch = append(batch, models.Assignment{
			TestID:              test.ID,
			StudentID:           studentID,
			AssignedByTeacherID: teacherID,
			DueDate:             req.DueDate,
			Status:              models.AssignmentStatusAssigned,
			Notes:               req.Notes,
		})
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return 0, appErrors.Internal(err, "failed to assign test")
	}

	s.metrics.AddAssignments(len(batch))
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx, teacherID)
	}
	s.logger.Info("test assigned", zap.String("test_id", test.ID), zap.String("teacher_id", teacherID), zap.Int("count", len(batch)))
	return len(batch), nil
}

// List returns the assignments of a test owned by teacherID.
func (s *AssignmentService) List(ctx context.Context, testID, teacherID string) ([]models.AssignmentDetail, error) {
	if _, err := s.tests.Get(ctx, testID, teacherID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByTest(ctx, testID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	if items == nil {
		items = []models.AssignmentDetail{}
	}
	return items, nil
}

// ExportCSV renders a test's assignments as CSV.
func (s *AssignmentService) ExportCSV(ctx context.Context, testID, teacherID string) (string, []byte, error) {
	test, err := s.tests.Get(ctx, testID, teacherID)
	if err != nil {
		return "", nil, err
	}
	items, err := s.repo.ListByTest(ctx, testID)
	if err != nil {
		return "", nil, appErrors.Internal(err, "failed to list assignments")
	}

	table := export.Table{Columns: []string{"student_id", "student_name", "student_email", "roll_number", "assigned_at", "due_date", "status", "score", "notes"}}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			item.StudentID,
			item.StudentName,
			item.StudentEmail,
			deref(item.RollNumber),
			item.AssignedAt.UTC().Format(time.RFC3339),
			formatTime(item.DueDate),
			string(item.Status),
			formatInt(item.Score),
			deref(item.Notes),
		})
	}
	content, err := s.csv.Render(table)
	if err != nil {
		return "", nil, appErrors.Internal(err, "failed to export assignments")
	}
	return export.Filename(test.Title+" assignments", "csv"), content, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
