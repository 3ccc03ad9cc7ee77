package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Ksohaib16/Test-Generator/internal/models"
)

const questionColumns = `id, subject, chapter, topic, difficulty, type, question_text, options, answer, explanation, marks, created_by_teacher_id, tags, created_at`

// QuestionRepository persists the question bank.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// List returns questions matching every set field of the filter.
func (r *QuestionRepository) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Subject != nil {
		add("subject", *filter.Subject)
	}
	if filter.Chapter != nil {
		add("chapter", *filter.Chapter)
	}
	if filter.Topic != nil {
		add("topic", *filter.Topic)
	}
	if filter.Difficulty != nil {
		add("difficulty", string(*filter.Difficulty))
	}
	if filter.Type != nil {
		add("type", string(*filter.Type))
	}
	if filter.OwnerID != nil {
		add("created_by_teacher_id", *filter.OwnerID)
	}

	query := `SELECT ` + questionColumns + ` FROM questions WHERE 1=1`
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, args...); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// FindByID returns a question by identifier.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	var q models.Question
	if err := r.db.GetContext(ctx, &q, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

// FindByIDs loads several questions at once. Order is not guaranteed.
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ANY($1)`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find questions by ids: %w", err)
	}
	return questions, nil
}

// ExistsByText reports whether a question with the exact body already exists.
func (r *QuestionRepository) ExistsByText(ctx context.Context, text string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM questions WHERE question_text = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, text); err != nil {
		return false, fmt.Errorf("check question text: %w", err)
	}
	return exists, nil
}

// Create inserts a question, assigning id and creation time.
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO questions (` + questionColumns + `) VALUES (:id, :subject, :chapter, :topic, :difficulty, :type, :question_text, :options, :answer, :explanation, :marks, :created_by_teacher_id, :tags, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, q); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}
