package models

import "time"

// AssignmentStatus tracks an assigned test through its lifecycle.
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusGraded    AssignmentStatus = "graded"
)

// Assignment binds one test to one student.
type Assignment struct {
	ID                  string           `db:"id" json:"id"`
	TestID              string           `db:"test_id" json:"testId"`
	StudentID           string           `db:"student_id" json:"studentId"`
	AssignedByTeacherID string           `db:"assigned_by_teacher_id" json:"assignedByTeacherId"`
	AssignedAt          time.Time        `db:"assigned_at" json:"assignedAt"`
	DueDate             *time.Time       `db:"due_date" json:"dueDate,omitempty"`
	Status              AssignmentStatus `db:"status" json:"status"`
	Score               *int             `db:"score" json:"score,omitempty"`
	Notes               *string          `db:"notes" json:"notes,omitempty"`
}

// AssignmentDetail adds student display fields to an assignment.
type AssignmentDetail struct {
	Assignment
	StudentName  string  `db:"student_name" json:"studentName"`
	StudentEmail string  `db:"student_email" json:"studentEmail"`
	RollNumber   *string `db:"roll_number" json:"rollNumber,omitempty"`
}

// AssignTestRequest assigns one test to several students.
type AssignTestRequest struct {
	StudentIDs []string   `json:"studentIds" validate:"required,min=1,dive,required"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// AssignTestResponse reports how many assignments were created.
type AssignTestResponse struct {
	Count int `json:"count"`
}
