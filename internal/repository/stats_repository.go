package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Ksohaib16/Test-Generator/internal/dto"
)

// StatsRepository computes dashboard counters.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// TeacherStats counts approved students, pending requests, tests owned and
// assignments issued by the teacher.
func (r *StatsRepository) TeacherStats(ctx context.Context, teacherID string) (*dto.DashboardStats, error) {
	const query = `
SELECT
	(SELECT COUNT(DISTINCT student_id) FROM student_teacher_links WHERE teacher_id = $1 AND status = 'approved') AS total_students,
	(SELECT COUNT(*) FROM student_teacher_links WHERE teacher_id = $1 AND status = 'pending') AS pending_approvals,
	(SELECT COUNT(*) FROM tests WHERE created_by_teacher_id = $1) AS tests_created,
	(SELECT COUNT(*) FROM assigned_tests WHERE assigned_by_teacher_id = $1) AS tests_assigned`
	var stats dto.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query, teacherID); err != nil {
		return nil, fmt.Errorf("teacher stats: %w", err)
	}
	return &stats, nil
}
