package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Ksohaib16/Test-Generator/internal/models"
)

// LinkRepository persists student-teacher approval links.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository constructs the repository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// FindByID returns a link by identifier.
func (r *LinkRepository) FindByID(ctx context.Context, id string) (*models.StudentTeacherLink, error) {
	const query = `SELECT id, teacher_id, student_id, status, created_at, updated_at FROM student_teacher_links WHERE id = $1`
	var link models.StudentTeacherLink
	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return &link, nil
}

// DecidePending moves a pending link to status. It reports false when the
// link was no longer pending, leaving it untouched.
func (r *LinkRepository) DecidePending(ctx context.Context, id string, status models.LinkStatus) (bool, error) {
	const query = `UPDATE student_teacher_links SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("decide link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decide link rows: %w", err)
	}
	return affected == 1, nil
}

// ListPending returns the teacher's pending requests with student details.
func (r *LinkRepository) ListPending(ctx context.Context, teacherID string) ([]models.PendingStudent, error) {
	const query = `
SELECT l.id AS link_id, u.id, u.name, u.email, u.roll_number, l.created_at AS request_date
FROM student_teacher_links l
JOIN users u ON u.id = l.student_id
WHERE l.teacher_id = $1 AND l.status = 'pending'
ORDER BY l.created_at ASC`
	var items []models.PendingStudent
	if err := r.db.SelectContext(ctx, &items, query, teacherID); err != nil {
		return nil, fmt.Errorf("list pending students: %w", err)
	}
	return items, nil
}

// ListApprovedStudents returns each approved student once.
func (r *LinkRepository) ListApprovedStudents(ctx context.Context, teacherID string) ([]models.RosterStudent, error) {
	const query = `
SELECT DISTINCT u.id, u.name, u.email, u.roll_number
FROM student_teacher_links l
JOIN users u ON u.id = l.student_id
WHERE l.teacher_id = $1 AND l.status = 'approved'
ORDER BY u.name ASC`
	var items []models.RosterStudent
	if err := r.db.SelectContext(ctx, &items, query, teacherID); err != nil {
		return nil, fmt.Errorf("list approved students: %w", err)
	}
	return items, nil
}

// ApprovedStudentIDs returns the subset of ids approved for the teacher.
func (r *LinkRepository) ApprovedStudentIDs(ctx context.Context, teacherID string, studentIDs []string) (map[string]bool, error) {
	const query = `SELECT DISTINCT student_id FROM student_teacher_links WHERE teacher_id = $1 AND status = 'approved' AND student_id = ANY($2)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, teacherID, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("check approved students: %w", err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
