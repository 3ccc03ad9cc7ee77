package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

type testRepository interface {
	Create(ctx context.Context, test *models.Test) error
	FindByID(ctx context.Context, id string) (*models.Test, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Test, error)
	Update(ctx context.Context, test *models.Test) error
	Delete(ctx context.Context, id string) error
}

type questionSnapshotter interface {
	Snapshots(ctx context.Context, ids []string) ([]models.QuestionSnapshot, error)
}

// AssembleTest validates the request and builds the test it describes. The
// snapshots are deep-copied and total marks is their sum. No id or
// timestamps are set; those belong to persistence.
func AssembleTest(req models.CreateTestRequest, teacherID string) (*models.Test, error) {
	return assembleTest(packageValidator, req, teacherID)
}

func assembleTest(v *validator.Validate, req models.CreateTestRequest, teacherID string) (*models.Test, error) {
	if err := v.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid test payload")
	}
	if err := validateSnapshots(v, req.Questions); err != nil {
		return nil, err
	}

	questions := models.QuestionSnapshots(req.Questions).Clone()
	total := questions.TotalMarks()
	return &models.Test{
		Title:              req.Title,
		Subject:            req.Subject,
		Chapter:            req.Chapter,
		Topic:              req.Topic,
		Type:               req.Type,
		Difficulty:         req.Difficulty,
		Duration:           req.Duration,
		TotalMarks:         &total,
		CreatedByTeacherID: teacherID,
		QuestionsList:      questions,
	}, nil
}

// TestService owns test CRUD for the creating teacher.
type TestService struct {
	repo      testRepository
	questions questionSnapshotter
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTestService constructs the service. questions and dashboard may be nil.
func NewTestService(repo testRepository, questions questionSnapshotter, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *TestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &TestService{repo: repo, questions: questions, dashboard: dashboard, validator: validate, logger: logger}
}

// Create assembles and inserts a test.
func (s *TestService) Create(ctx context.Context, teacherID string, req models.CreateTestRequest) (*models.Test, error) {
	if len(req.QuestionIDs) > 0 {
		if len(req.Questions) > 0 {
			return nil, fieldError("questionIds", "excluded_with", "provide either questions or questionIds, not both")
		}
		if s.questions == nil {
			return nil, fieldError("questionIds", "unsupported", "question bank lookup is unavailable")
		}
		snapshots, err := s.questions.Snapshots(ctx, req.QuestionIDs)
		if err != nil {
			return nil, err
		}
		req.Questions = snapshots
	}

	test, err := assembleTest(s.validator, req, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, test); err != nil {
		return nil, appErrors.Internal(err, "failed to create test")
	}
	s.invalidate(ctx, teacherID)
	s.logger.Info("test created",
		zap.String("test_id", test.ID),
		zap.String("teacher_id", teacherID),
		zap.Int("questions", len(test.QuestionsList)),
		zap.Int("total_marks", *test.TotalMarks),
	)
	return test, nil
}

// Get returns a test owned by teacherID.
func (s *TestService) Get(ctx context.Context, id, teacherID string) (*models.Test, error) {
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Internal(err, "failed to load test")
	}
	if !test.OwnedBy(teacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "test belongs to another teacher")
	}
	return test, nil
}

// List returns the teacher's tests, newest first.
func (s *TestService) List(ctx context.Context, teacherID string) ([]models.Test, error) {
	tests, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list tests")
	}
	if tests == nil {
		tests = []models.Test{}
	}
	return tests, nil
}

// Update applies a partial update. Replacing the question list recomputes
// total marks; metadata-only updates leave it as stored.
func (s *TestService) Update(ctx context.Context, id, teacherID string, req models.UpdateTestRequest) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid test payload")
	}
	if req.Questions != nil {
		if err := validateSnapshots(s.validator, *req.Questions); err != nil {
			return nil, err
		}
	}

	test, err := s.Get(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Subject != nil {
		test.Subject = *req.Subject
	}
	if req.Chapter != nil {
		test.Chapter = req.Chapter
	}
	if req.Topic != nil {
		test.Topic = req.Topic
	}
	if req.Type != nil {
		test.Type = *req.Type
	}
	if req.Difficulty != nil {
		test.Difficulty = *req.Difficulty
	}
	if req.Duration != nil {
		test.Duration = req.Duration
	}
	if req.Questions != nil {
		test.QuestionsList = models.QuestionSnapshots(*req.Questions).Clone()
		total := test.QuestionsList.TotalMarks()
		test.TotalMarks = &total
	}

	if err := s.repo.Update(ctx, test); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Internal(err, "failed to update test")
	}
	return test, nil
}

// Delete removes a test owned by teacherID together with its assignments.
func (s *TestService) Delete(ctx context.Context, id, teacherID string) error {
	if _, err := s.Get(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return appErrors.Internal(err, "failed to delete test")
	}
	s.invalidate(ctx, teacherID)
	return nil
}

func (s *TestService) invalidate(ctx context.Context, teacherID string) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx, teacherID)
	}
}
