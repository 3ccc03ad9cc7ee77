package models

import "time"

// TestType enumerates the kinds of test paper a teacher can assemble.
type TestType string

const (
	TestTypeTopic        TestType = "topic_test"
	TestTypeChapter      TestType = "chapter_test"
	TestTypeMock         TestType = "mock_test"
	TestTypeBoardPattern TestType = "board_pattern"
)

// Test is an assembled paper owned by one teacher.
type Test struct {
	ID                 string            `db:"id" json:"id"`
	Title              string            `db:"title" json:"title"`
	Subject            string            `db:"subject" json:"subject"`
	Chapter            *string           `db:"chapter" json:"chapter,omitempty"`
	Topic              *string           `db:"topic" json:"topic,omitempty"`
	Type               TestType          `db:"type" json:"type"`
	Difficulty         Difficulty        `db:"difficulty" json:"difficulty"`
	Duration           *int              `db:"duration" json:"duration,omitempty"`
	TotalMarks         *int              `db:"total_marks" json:"totalMarks,omitempty"`
	CreatedByTeacherID string            `db:"created_by_teacher_id" json:"createdByTeacherId"`
	QuestionsList      QuestionSnapshots `db:"questions_list" json:"questionsList"`
	CreatedAt          time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updatedAt"`
}

// OwnedBy reports whether teacherID created the test.
func (t *Test) OwnedBy(teacherID string) bool {
	return t != nil && t.CreatedByTeacherID == teacherID
}

// PDFOptions toggles the optional sections of a rendered paper.
type PDFOptions struct {
	IncludeHeader       bool `json:"includeHeader"`
	IncludeInstructions bool `json:"includeInstructions"`
	ShowMarks           bool `json:"showMarks"`
	IncludeAnswers      bool `json:"includeAnswers"`
}

// CreateTestRequest is the assembler input. Exactly one of Questions and
// QuestionIDs is expected; QuestionIDs are resolved against the bank.
type CreateTestRequest struct {
	Title       string             `json:"title" validate:"required,min=5"`
	Subject     string             `json:"subject" validate:"required"`
	Chapter     *string            `json:"chapter,omitempty"`
	Topic       *string            `json:"topic,omitempty"`
	Type        TestType           `json:"type" validate:"required,oneof=topic_test chapter_test mock_test board_pattern"`
	Difficulty  Difficulty         `json:"difficulty" validate:"required,oneof=easy medium hard mixed"`
	Duration    *int               `json:"duration,omitempty" validate:"omitempty,gt=0"`
	Questions   []QuestionSnapshot `json:"questions,omitempty"`
	QuestionIDs []string           `json:"questionIds,omitempty" validate:"omitempty,dive,required"`
}

// UpdateTestRequest carries a partial update; nil fields are left unchanged.
type UpdateTestRequest struct {
	Title      *string             `json:"title,omitempty" validate:"omitempty,min=5"`
	Subject    *string             `json:"subject,omitempty" validate:"omitempty,min=1"`
	Chapter    *string             `json:"chapter,omitempty"`
	Topic      *string             `json:"topic,omitempty"`
	Type       *TestType           `json:"type,omitempty" validate:"omitempty,oneof=topic_test chapter_test mock_test board_pattern"`
	Difficulty *Difficulty         `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard mixed"`
	Duration   *int                `json:"duration,omitempty" validate:"omitempty,gt=0"`
	Questions  *[]QuestionSnapshot `json:"questions,omitempty"`
}
