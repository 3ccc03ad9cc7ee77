package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Ksohaib16/Test-Generator/internal/models"
)

const testColumns = `id, title, subject, chapter, topic, type, difficulty, duration, total_marks, created_by_teacher_id, questions_list, created_at, updated_at`

// TestRepository persists assembled test papers.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs the repository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// Create inserts the test once. Creation time is always stamped here.
func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	test.CreatedAt = now
	test.UpdatedAt = now
	const query = `INSERT INTO tests (` + testColumns + `) VALUES (:id, :title, :subject, :chapter, :topic, :type, :difficulty, :duration, :total_marks, :created_by_teacher_id, :questions_list, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

// FindByID returns a test by identifier.
func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE id = $1`
	var test models.Test
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return &test, nil
}

// ListByTeacher returns the teacher's tests, newest first.
func (r *TestRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE created_by_teacher_id = $1 ORDER BY created_at DESC`
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, query, teacherID); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// Update rewrites the mutable columns. created_at is never touched.
func (r *TestRepository) Update(ctx context.Context, test *models.Test) error {
	test.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tests SET title = :title, subject = :subject, chapter = :chapter, topic = :topic, type = :type, difficulty = :difficulty, duration = :duration, total_marks = :total_marks, questions_list = :questions_list, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, test)
	if err != nil {
		return fmt.Errorf("update test: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a test; its assignments cascade.
func (r *TestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
