package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Ksohaib16/Test-Generator/internal/models"
)

// AssignmentRepository persists assigned tests.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// CreateBatch inserts every assignment inside one transaction. Either all
// rows are stored or none are.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []models.Assignment) (err error) {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const query = `INSERT INTO assigned_tests (id, test_id, student_id, assigned_by_teacher_id, assigned_at, due_date, status, score, notes) VALUES (:id, :test_id, :student_id, :assigned_by_teacher_id, :assigned_at, :due_date, :status, :score, :notes)`
	for i := range assignments {
		a := &assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.AssignedAt = now
		if a.Status == "" {
			a.Status = models.AssignmentStatusAssigned
		}
		if _, err = tx.NamedExecContext(ctx, query, a); err != nil {
			return fmt.Errorf("insert assignment for student %s: %w", a.StudentID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignments: %w", err)
	}
	return nil
}

// ListByTest returns a test's assignments joined with student details.
func (r *AssignmentRepository) ListByTest(ctx context.Context, testID string) ([]models.AssignmentDetail, error) {
	const query = `
SELECT a.id, a.test_id, a.student_id, a.assigned_by_teacher_id, a.assigned_at, a.due_date, a.status, a.score, a.notes,
	u.name AS student_name, u.email AS student_email, u.roll_number
FROM assigned_tests a
JOIN users u ON u.id = a.student_id
WHERE a.test_id = $1
ORDER BY a.assigned_at ASC, u.name ASC`
	var items []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query, testID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}
