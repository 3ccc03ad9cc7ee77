package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
	"github.com/Ksohaib16/Test-Generator/pkg/export"
)

type ownedTestReader interface {
	Get(ctx context.Context, id, teacherID string) (*models.Test, error)
}

type teacherDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindInstitutionByID(ctx context.Context, id string) (*models.Institution, error)
}

type paperRenderer interface {
	Render(doc export.TestDocument, opts export.PaperOptions) ([]byte, error)
}

// RenderedPaper is a finished PDF ready for download.
type RenderedPaper struct {
	Filename string
	Content  []byte
}

// RenderService turns stored tests into downloadable papers.
type RenderService struct {
	tests              ownedTestReader
	users              teacherDirectory
	renderer           paperRenderer
	metrics            *MetricsService
	defaultInstitution string
	logger             *zap.Logger
}

// NewRenderService constructs the service.
func NewRenderService(tests ownedTestReader, users teacherDirectory, renderer paperRenderer, metrics *MetricsService, defaultInstitution string, logger *zap.Logger) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewTestPaperRenderer()
	}
	if defaultInstitution == "" {
		defaultInstitution = export.DefaultInstitution
	}
	return &RenderService{
		tests:              tests,
		users:              users,
		renderer:           renderer,
		metrics:            metrics,
		defaultInstitution: defaultInstitution,
		logger:             logger,
	}
}

// Render produces the PDF for a test owned by teacherID.
func (s *RenderService) Render(ctx context.Context, testID, teacherID string, opts models.PDFOptions) (*RenderedPaper, error) {
	test, err := s.tests.Get(ctx, testID, teacherID)
	if err != nil {
		return nil, err
	}

	teacherName, institution, err := s.displayNames(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	doc := PaperDocument(test, teacherName, institution)
	start := time.Now()
	content, err := s.renderer.Render(doc, export.PaperOptions{
		IncludeHeader:       opts.IncludeHeader,
		IncludeInstructions: opts.IncludeInstructions,
		ShowMarks:           opts.ShowMarks,
		IncludeAnswers:      opts.IncludeAnswers,
	})
	s.metrics.ObservePDFRender(time.Since(start), err != nil)
	if err != nil {
		s.logger.Error("test paper render failed", zap.String("test_id", testID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRendering.Code, appErrors.ErrRendering.Status, "failed to generate PDF")
	}

	return &RenderedPaper{Filename: export.Filename(test.Title, "pdf"), Content: content}, nil
}

func (s *RenderService) displayNames(ctx context.Context, teacherID string) (string, string, error) {
	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return "", "", appErrors.Internal(err, "failed to load teacher")
	}
	institution := s.defaultInstitution
	if teacher.InstitutionID != nil {
		inst, err := s.users.FindInstitutionByID(ctx, *teacher.InstitutionID)
		switch {
		case err == nil:
			institution = inst.Name
		case errors.Is(err, sql.ErrNoRows):
			s.logger.Warn("teacher institution missing", zap.String("institution_id", *teacher.InstitutionID))
		default:
			return "", "", appErrors.Internal(err, "failed to load institution")
		}
	}
	return teacher.Name, institution, nil
}

// PaperDocument maps a stored test onto the printable document.
func PaperDocument(test *models.Test, teacherName, institution string) export.TestDocument {
	doc := export.TestDocument{
		InstitutionName: institution,
		Title:           test.Title,
		Subject:         test.Subject,
		Chapter:         test.Chapter,
		Duration:        test.Duration,
		TotalMarks:      test.TotalMarks,
		TeacherName:     teacherName,
		Questions:       make([]export.PaperQuestion, 0, len(test.QuestionsList)),
	}
	for _, q := range test.QuestionsList {
		doc.Questions = append(doc.Questions, export.PaperQuestion{
			Kind:        export.QuestionKind(q.Type),
			Text:        q.QuestionText,
			Options:     q.Options,
			Answer:      q.Answer,
			AnswerIndex: q.AnswerIndex(),
			Explanation: q.Explanation,
			Marks:       q.Marks,
		})
	}
	return doc
}
