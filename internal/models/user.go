package models

import (
	"errors"
	"time"
)

// ErrDuplicateEmail is returned by user stores when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRole represents the available roles for access control.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// User represents an application user stored in the users table.
type User struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          UserRole  `db:"role" json:"role"`
	InstitutionID *string   `db:"institution_id" json:"institutionId,omitempty"`
	RollNumber    *string   `db:"roll_number" json:"rollNumber,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Summary projects the user into the shape returned by the auth endpoints.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
		RollNumber:    u.RollNumber,
	}
}

// Institution groups teachers; its name heads rendered papers.
type Institution struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Address            *string   `db:"address" json:"address,omitempty"`
	CreatedByTeacherID *string   `db:"created_by_teacher_id" json:"createdByTeacherId,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}
