package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Difficulty grades how hard a question or test is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is only valid for tests.
	DifficultyMixed Difficulty = "mixed"
)

// QuestionType determines how a question is answered and printed.
type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeShortAnswer QuestionType = "short_answer"
	QuestionTypeLongAnswer  QuestionType = "long_answer"
)

// Question is a reusable question bank entry.
type Question struct {
	ID                 string         `db:"id" json:"id"`
	Subject            string         `db:"subject" json:"subject"`
	Chapter            string         `db:"chapter" json:"chapter"`
	Topic              *string        `db:"topic" json:"topic,omitempty"`
	Difficulty         Difficulty     `db:"difficulty" json:"difficulty"`
	Type               QuestionType   `db:"type" json:"type"`
	QuestionText       string         `db:"question_text" json:"questionText"`
	Options            pq.StringArray `db:"options" json:"options,omitempty"`
	Answer             *string        `db:"answer" json:"answer,omitempty"`
	Explanation        *string        `db:"explanation" json:"explanation,omitempty"`
	Marks              int            `db:"marks" json:"marks"`
	CreatedByTeacherID *string        `db:"created_by_teacher_id" json:"createdByTeacherId,omitempty"`
	Tags               pq.StringArray `db:"tags" json:"tags,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
}

// QuestionFilter lists the supported question bank filter dimensions.
// A nil field does not constrain the result.
type QuestionFilter struct {
	Subject    *string
	Chapter    *string
	Topic      *string
	Difficulty *Difficulty
	Type       *QuestionType
	OwnerID    *string
}

// Matches reports whether q satisfies every set field of f.
func (f QuestionFilter) Matches(q Question) bool {
	if f.Subject != nil && q.Subject != *f.Subject {
		return false
	}
	if f.Chapter != nil && q.Chapter != *f.Chapter {
		return false
	}
	if f.Topic != nil && (q.Topic == nil || *q.Topic != *f.Topic) {
		return false
	}
	if f.Difficulty != nil && q.Difficulty != *f.Difficulty {
		return false
	}
	if f.Type != nil && q.Type != *f.Type {
		return false
	}
	if f.OwnerID != nil && (q.CreatedByTeacherID == nil || *q.CreatedByTeacherID != *f.OwnerID) {
		return false
	}
	return true
}

// Snapshot returns a by-value copy suitable for embedding in a test.
func (q Question) Snapshot() QuestionSnapshot {
	return QuestionSnapshot{
		ID:           q.ID,
		Subject:      q.Subject,
		Chapter:      q.Chapter,
		Topic:        cloneString(q.Topic),
		Difficulty:   q.Difficulty,
		Type:         q.Type,
		QuestionText: q.QuestionText,
		Options:      cloneStrings(q.Options),
		Answer:       cloneString(q.Answer),
		Explanation:  cloneString(q.Explanation),
		Marks:        q.Marks,
		Tags:         cloneStrings(q.Tags),
	}
}

// QuestionSnapshot is a denormalised question copy owned by a test.
type QuestionSnapshot struct {
	ID           string       `json:"id,omitempty"`
	Subject      string       `json:"subject"`
	Chapter      string       `json:"chapter"`
	Topic        *string      `json:"topic,omitempty"`
	Difficulty   Difficulty   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Type         QuestionType `json:"type" validate:"required,oneof=mcq short_answer long_answer"`
	QuestionText string       `json:"questionText" validate:"required"`
	Options      []string     `json:"options,omitempty"`
	Answer       *string      `json:"answer,omitempty"`
	Explanation  *string      `json:"explanation,omitempty"`
	Marks        int          `json:"marks" validate:"gt=0"`
	Tags         []string     `json:"tags,omitempty"`
}

// Clone deep-copies the snapshot so callers never share slices.
func (s QuestionSnapshot) Clone() QuestionSnapshot {
	s.Topic = cloneString(s.Topic)
	s.Options = cloneStrings(s.Options)
	s.Answer = cloneString(s.Answer)
	s.Explanation = cloneString(s.Explanation)
	s.Tags = cloneStrings(s.Tags)
	return s
}

// AnswerIndex locates the stored answer within Options, or -1.
func (s QuestionSnapshot) AnswerIndex() int {
	return OptionIndex(s.Options, s.Answer)
}

// QuestionSnapshots is persisted as a JSONB array.
type QuestionSnapshots []QuestionSnapshot

// Value marshals the snapshots to JSON for persistence.
func (q QuestionSnapshots) Value() (driver.Value, error) {
	if q == nil {
		q = QuestionSnapshots{}
	}
	data, err := json.Marshal([]QuestionSnapshot(q))
	if err != nil {
		return nil, fmt.Errorf("marshal question snapshots: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array into the snapshots.
func (q *QuestionSnapshots) Scan(value interface{}) error {
	if value == nil {
		*q = QuestionSnapshots{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for QuestionSnapshots", value)
	}
	if len(data) == 0 {
		*q = QuestionSnapshots{}
		return nil
	}
	var out []QuestionSnapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal question snapshots: %w", err)
	}
	*q = out
	return nil
}

// TotalMarks sums the marks of every snapshot.
func (q QuestionSnapshots) TotalMarks() int {
	total := 0
	for _, s := range q {
		total += s.Marks
	}
	return total
}

// Clone deep-copies the list.
func (q QuestionSnapshots) Clone() QuestionSnapshots {
	if q == nil {
		return nil
	}
	out := make(QuestionSnapshots, len(q))
	for i, s := range q {
		out[i] = s.Clone()
	}
	return out
}

// OptionIndex locates answer within options, or -1.
func OptionIndex(options []string, answer *string) int {
	if answer == nil {
		return -1
	}
	for i, opt := range options {
		if opt == *answer {
			return i
		}
	}
	return -1
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// CreateQuestionRequest adds a question to the bank. Marks defaults to 1.
type CreateQuestionRequest struct {
	Subject      string       `json:"subject" validate:"required"`
	Chapter      string       `json:"chapter" validate:"required"`
	Topic        *string      `json:"topic,omitempty"`
	Difficulty   Difficulty   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Type         QuestionType `json:"type" validate:"required,oneof=mcq short_answer long_answer"`
	QuestionText string       `json:"questionText" validate:"required"`
	Options      []string     `json:"options,omitempty"`
	Answer       *string      `json:"answer,omitempty"`
	Explanation  *string      `json:"explanation,omitempty"`
	Marks        *int         `json:"marks,omitempty" validate:"omitempty,gt=0"`
	Tags         []string     `json:"tags,omitempty"`
}
