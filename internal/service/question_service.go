package service

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

type questionRepository interface {
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Question, error)
	ExistsByText(ctx context.Context, text string) (bool, error)
	Create(ctx context.Context, q *models.Question) error
}

// OwnerSelf is the owner filter value naming the caller.
const OwnerSelf = "me"

var questionFilterKeys = map[string]bool{
	"subject": true, "chapter": true, "topic": true, "difficulty": true, "type": true, "owner": true,
}

// ParseQuestionFilter converts query parameters into a filter. Unknown keys
// and out-of-range enum values are rejected; blank values are ignored.
func ParseQuestionFilter(values url.Values, callerID string) (models.QuestionFilter, error) {
	var filter models.QuestionFilter

	var unknown []string
	for key := range values {
		if !questionFilterKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		err := appErrors.Clone(appErrors.ErrValidation, "unsupported filter: "+strings.Join(unknown, ", "))
		for _, key := range unknown {
			err.Details = append(err.Details, appErrors.FieldError{Field: key, Rule: "unknown"})
		}
		return filter, err
	}

	get := func(key string) *string {
		v := strings.TrimSpace(values.Get(key))
		if v == "" {
			return nil
		}
		return &v
	}

	filter.Subject = get("subject")
	filter.Chapter = get("chapter")
	filter.Topic = get("topic")
	if v := get("difficulty"); v != nil {
		d := models.Difficulty(*v)
		switch d {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
			filter.Difficulty = &d
		default:
			return filter, fieldError("difficulty", "oneof", "difficulty must be one of easy, medium, hard")
		}
	}
	if v := get("type"); v != nil {
		t := models.QuestionType(*v)
		switch t {
		case models.QuestionTypeMCQ, models.QuestionTypeShortAnswer, models.QuestionTypeLongAnswer:
			filter.Type = &t
		default:
			return filter, fieldError("type", "oneof", "type must be one of mcq, short_answer, long_answer")
		}
	}
	if v := get("owner"); v != nil {
		owner := *v
		if owner == OwnerSelf {
			owner = callerID
		}
		filter.OwnerID = &owner
	}
	return filter, nil
}

// QuestionService manages the question bank.
type QuestionService struct {
	repo      questionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService constructs the service.
func NewQuestionService(repo questionRepository, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &QuestionService{repo: repo, validator: validate, logger: logger}
}

// List returns the questions matching filter.
func (s *QuestionService) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list questions")
	}
	if items == nil {
		items = []models.Question{}
	}
	return items, nil
}

// Create validates and stores a question owned by teacherID.
func (s *QuestionService) Create(ctx context.Context, teacherID string, req models.CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid question payload")
	}
	if err := checkChoices("question", req.Type, req.Options, req.Answer); err != nil {
		return nil, err
	}

	marks := 1
	if req.Marks != nil {
		marks = *req.Marks
	}
	q := &models.Question{
		Subject:      req.Subject,
		Chapter:      req.Chapter,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		Type:         req.Type,
		QuestionText: req.QuestionText,
		Options:      req.Options,
		Answer:       req.Answer,
		Explanation:  req.Explanation,
		Marks:        marks,
		Tags:         req.Tags,
	}
	if teacherID != "" {
		q.CreatedByTeacherID = &teacherID
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, appErrors.Internal(err, "failed to create question")
	}
	s.logger.Debug("question created", zap.String("question_id", q.ID), zap.String("teacher_id", teacherID))
	return q, nil
}

// Snapshots loads the bank questions with the given ids and returns their
// snapshots in the requested order.
func (s *QuestionService) Snapshots(ctx context.Context, ids []string) ([]models.QuestionSnapshot, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load questions")
	}
	byID := make(map[string]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	snapshots := make([]models.QuestionSnapshot, 0, len(ids))
	var missing []string
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		snapshots = append(snapshots, q.Snapshot())
	}
	if len(missing) > 0 {
		return nil, fieldError("questionIds", "exists", "unknown question ids: "+strings.Join(missing, ", "))
	}
	return snapshots, nil
}
