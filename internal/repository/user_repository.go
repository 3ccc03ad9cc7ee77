package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Ksohaib16/Test-Generator/internal/models"
)

const userColumns = `id, name, email, password_hash, role, institution_id, roll_number, created_at`

// UserRepository provides database access for accounts, sessions and audit logs.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Register inserts the user together with the optional institution it founds
// and the optional pending link it requests, atomically.
func (r *UserRepository) Register(ctx context.Context, user *models.User, institution *models.Institution, link *models.StudentTeacherLink) (err error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin register transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if institution != nil {
		if institution.ID == "" {
			institution.ID = uuid.NewString()
		}
		institution.CreatedByTeacherID = &user.ID
		institution.CreatedAt = now
		const insertInstitution = `INSERT INTO institutions (id, name, address, created_by_teacher_id, created_at) VALUES (:id, :name, :address, :created_by_teacher_id, :created_at)`
		if _, err = tx.NamedExecContext(ctx, insertInstitution, institution); err != nil {
			return fmt.Errorf("create institution: %w", err)
		}
		user.InstitutionID = &institution.ID
	}

	const insertUser = `INSERT INTO users (id, name, email, password_hash, role, institution_id, roll_number, created_at) VALUES (:id, :name, :email, :password_hash, :role, :institution_id, :roll_number, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertUser, user); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", models.ErrDuplicateEmail)
		}
		return fmt.Errorf("create user: %w", err)
	}

	if link != nil {
		if link.ID == "" {
			link.ID = uuid.NewString()
		}
		link.StudentID = user.ID
		link.Status = models.LinkStatusPending
		link.CreatedAt = now
		link.UpdatedAt = now
		const insertLink = `INSERT INTO student_teacher_links (id, teacher_id, student_id, status, created_at, updated_at) VALUES (:id, :teacher_id, :student_id, :status, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, insertLink, link); err != nil {
			return fmt.Errorf("create student link: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit register: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// FindInstitutionByID returns an institution by identifier.
func (r *UserRepository) FindInstitutionByID(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, address, created_by_teacher_id, created_at FROM institutions WHERE id = $1 LIMIT 1`
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return &inst, nil
}

// CreateSession persists a login session.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sessions (id, user_id, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindSession returns a session by identifier.
func (r *UserRepository) FindSession(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, user_id, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM sessions WHERE id = $1 LIMIT 1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// RevokeSession marks a session as revoked.
func (r *UserRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE sessions SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
