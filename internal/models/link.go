package models

import "time"

// LinkStatus is the approval state of a student-teacher link.
type LinkStatus string

const (
	LinkStatusPending  LinkStatus = "pending"
	LinkStatusApproved LinkStatus = "approved"
	LinkStatusRejected LinkStatus = "rejected"
)

// Terminal reports whether no further decision may change the status.
func (s LinkStatus) Terminal() bool {
	return s == LinkStatusApproved || s == LinkStatusRejected
}

// CanTransition encodes the approval state machine: only pending links may be
// decided, and a decision is either approved or rejected.
func CanTransition(from, to LinkStatus) bool {
	return from == LinkStatusPending && to.Terminal()
}

// StudentTeacherLink gates whether a student appears in a teacher's roster.
type StudentTeacherLink struct {
	ID        string     `db:"id" json:"id"`
	TeacherID string     `db:"teacher_id" json:"teacherId"`
	StudentID string     `db:"student_id" json:"studentId"`
	Status    LinkStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// PendingStudent is a pending link joined with the requesting student.
type PendingStudent struct {
	LinkID      string    `db:"link_id" json:"linkId"`
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	RollNumber  *string   `db:"roll_number" json:"rollNumber,omitempty"`
	RequestDate time.Time `db:"request_date" json:"requestDate"`
}

// RosterStudent is an approved student visible to the teacher.
type RosterStudent struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Email      string  `db:"email" json:"email"`
	RollNumber *string `db:"roll_number" json:"rollNumber,omitempty"`
}

// DecideLinkRequest is a teacher's decision on a pending link.
type DecideLinkRequest struct {
	Status LinkStatus `json:"status" validate:"required,oneof=approved rejected"`
}
