package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/repository/memstore"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func errCode(err error) string {
	if appErr := appErrors.FromError(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

type invalidationRecorder struct {
	teachers []string
}

func (r *invalidationRecorder) Invalidate(ctx context.Context, teacherID string) {
	r.teachers = append(r.teachers, teacherID)
}

func registerTeacher(t *testing.T, store *memstore.Store, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@school.test", PasswordHash: "x", Role: models.RoleTeacher}
	require.NoError(t, store.Users().Register(context.Background(), user, nil, nil))
	return user
}

// registerStudent creates a student with a pending link to teacherID and
// returns the student and the link id.
func registerStudent(t *testing.T, store *memstore.Store, name, teacherID string) (*models.User, string) {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@school.test", PasswordHash: "x", Role: models.RoleStudent}
	link := &models.StudentTeacherLink{TeacherID: teacherID}
	require.NoError(t, store.Users().Register(context.Background(), user, nil, link))
	return user, link.ID
}

func approvedStudent(t *testing.T, store *memstore.Store, name, teacherID string) *models.User {
	t.Helper()
	user, linkID := registerStudent(t, store, name, teacherID)
	ok, err := store.Links().DecidePending(context.Background(), linkID, models.LinkStatusApproved)
	require.NoError(t, err)
	require.True(t, ok)
	return user
}

func physicsRequest() models.CreateTestRequest {
	return models.CreateTestRequest{
		Title:      "Physics Chapter Test",
		Subject:    "science",
		Type:       models.TestTypeChapter,
		Difficulty: models.DifficultyMedium,
		Questions: []models.QuestionSnapshot{
			{
				Subject: "science", Chapter: "Motion", Difficulty: models.DifficultyEasy, Type: models.QuestionTypeMCQ,
				QuestionText: "SI unit of force?", Options: []string{"Joule", "Newton"}, Answer: strPtr("Newton"), Marks: 2,
			},
			{
				Subject: "science", Chapter: "Motion", Difficulty: models.DifficultyMedium, Type: models.QuestionTypeShortAnswer,
				QuestionText: "State Newton's second law.", Answer: strPtr("F = ma"), Marks: 3,
			},
		},
	}
}
