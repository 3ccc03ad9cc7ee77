package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/repository/memstore"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

func TestAssembleTestPhysicsChapter(t *testing.T) {
	test, err := AssembleTest(physicsRequest(), "teacher-1")
	require.NoError(t, err)

	require.NotNil(t, test.TotalMarks)
	assert.Equal(t, 5, *test.TotalMarks)
	assert.Len(t, test.QuestionsList, 2)
	assert.Equal(t, "teacher-1", test.CreatedByTeacherID)
	assert.True(t, test.CreatedAt.IsZero())
}

func TestAssembleTestRejectsEmptyQuestionList(t *testing.T) {
	req := physicsRequest()
	req.Questions = nil

	_, err := AssembleTest(req, "teacher-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "questions", appErrors.FromError(err).Details[0].Field)
}

func TestAssembleTestValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.CreateTestRequest)
		field  string
	}{
		{"short title", func(r *models.CreateTestRequest) { r.Title = "Quiz" }, "title"},
		{"missing subject", func(r *models.CreateTestRequest) { r.Subject = "" }, "subject"},
		{"unknown type", func(r *models.CreateTestRequest) { r.Type = "pop_quiz" }, "type"},
		{"unknown difficulty", func(r *models.CreateTestRequest) { r.Difficulty = "brutal" }, "difficulty"},
		{"zero duration", func(r *models.CreateTestRequest) { r.Duration = intPtr(0) }, "duration"},
		{"zero marks", func(r *models.CreateTestRequest) { r.Questions[1].Marks = 0 }, "questions[1].marks"},
		{"answer not option", func(r *models.CreateTestRequest) { r.Questions[0].Answer = strPtr("Pascal") }, "questions[0].answer"},
		{"single option", func(r *models.CreateTestRequest) { r.Questions[0].Options = []string{"Newton"} }, "questions[0].options"},
		{"blank text", func(r *models.CreateTestRequest) { r.Questions[1].QuestionText = "" }, "questions[1].questionText"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := physicsRequest()
			tc.mutate(&req)
			_, err := AssembleTest(req, "teacher-1")
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			require.NotEmpty(t, appErr.Details)
			assert.Equal(t, tc.field, appErr.Details[0].Field)
		})
	}
}

func TestAssembleTestAcceptsFiveRuneTitle(t *testing.T) {
	req := physicsRequest()
	req.Title = "Étude"
	_, err := AssembleTest(req, "teacher-1")
	require.NoError(t, err)
}

func TestAssembleTestTotalMarksIsSum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		req := physicsRequest()
		req.Questions = nil
		want := 0
		for n := rng.Intn(12) + 1; n > 0; n-- {
			marks := rng.Intn(10) + 1
			want += marks
			req.Questions = append(req.Questions, models.QuestionSnapshot{
				Difficulty: models.DifficultyHard, Type: models.QuestionTypeLongAnswer, QuestionText: "Discuss.", Marks: marks,
			})
		}
		test, err := AssembleTest(req, "teacher-1")
		require.NoError(t, err)
		assert.Equal(t, want, *test.TotalMarks)
		assert.Equal(t, want, test.QuestionsList.TotalMarks())
	}
}

func TestAssembleTestCopiesSnapshots(t *testing.T) {
	req := physicsRequest()
	test, err := AssembleTest(req, "teacher-1")
	require.NoError(t, err)

	req.Questions[0].Options[0] = "Erg"
	*req.Questions[0].Answer = "Erg"

	assert.Equal(t, "Joule", test.QuestionsList[0].Options[0])
	assert.Equal(t, "Newton", *test.QuestionsList[0].Answer)
}

func newTestService(store *memstore.Store, recorder *invalidationRecorder) *TestService {
	questions := NewQuestionService(store.Questions(), nil, nil)
	var dashboard dashboardInvalidator
	if recorder != nil {
		dashboard = recorder
	}
	return NewTestService(store.Tests(), questions, dashboard, nil, nil)
}

func TestTestServiceCreateAndGet(t *testing.T) {
	store := memstore.New()
	recorder := &invalidationRecorder{}
	svc := newTestService(store, recorder)
	ctx := context.Background()

	created, err := svc.Create(ctx, "teacher-1", physicsRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, []string{"teacher-1"}, recorder.teachers)

	got, err := svc.Get(ctx, created.ID, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 5, *got.TotalMarks)

	_, err = svc.Get(ctx, created.ID, "teacher-2")
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(err))

	_, err = svc.Get(ctx, "missing", "teacher-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
}

func TestTestServiceCreateFromQuestionBank(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, nil)
	questions := NewQuestionService(store.Questions(), nil, nil)
	ctx := context.Background()

	_, err := questions.Seed(ctx)
	require.NoError(t, err)
	bank, err := questions.List(ctx, models.QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, bank, 4)

	req := physicsRequest()
	req.Questions = nil
	req.QuestionIDs = []string{bank[3].ID, bank[0].ID}
	test, err := svc.Create(ctx, "teacher-1", req)
	require.NoError(t, err)

	require.Len(t, test.QuestionsList, 2)
	assert.Equal(t, bank[3].QuestionText, test.QuestionsList[0].QuestionText)
	assert.Equal(t, bank[0].QuestionText, test.QuestionsList[1].QuestionText)
	assert.Equal(t, bank[3].Marks+bank[0].Marks, *test.TotalMarks)

	req.QuestionIDs = []string{"nope"}
	_, err = svc.Create(ctx, "teacher-1", req)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	both := physicsRequest()
	both.QuestionIDs = []string{bank[0].ID}
	_, err = svc.Create(ctx, "teacher-1", both)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}

func TestTestServiceSnapshotsAreDecoupledFromBank(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, nil)
	ctx := context.Background()

	req := physicsRequest()
	created, err := svc.Create(ctx, "teacher-1", req)
	require.NoError(t, err)

	created.QuestionsList[0].QuestionText = "mutated"
	got, err := svc.Get(ctx, created.ID, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "SI unit of force?", got.QuestionsList[0].QuestionText)
}

func TestTestServiceUpdate(t *testing.T) {
	store := memstore.New()
	svc := newTestService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "teacher-1", physicsRequest())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, "teacher-1", models.UpdateTestRequest{Title: strPtr("Physics Revision Test"), Duration: intPtr(40)})
	require.NoError(t, err)
	assert.Equal(t, "Physics Revision Test", updated.Title)
	assert.Equal(t, 5, *updated.TotalMarks)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	replacement := []models.QuestionSnapshot{{Difficulty: models.DifficultyHard, Type: models.QuestionTypeLongAnswer, QuestionText: "Derive v = u + at.", Marks: 7}}
	updated, err = svc.Update(ctx, created.ID, "teacher-1", models.UpdateTestRequest{Questions: &replacement})
	require.NoError(t, err)
	assert.Equal(t, 7, *updated.TotalMarks)
	assert.Len(t, updated.QuestionsList, 1)

	empty := []models.QuestionSnapshot{}
	_, err = svc.Update(ctx, created.ID, "teacher-1", models.UpdateTestRequest{Questions: &empty})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	_, err = svc.Update(ctx, created.ID, "teacher-1", models.UpdateTestRequest{Title: strPtr("abc")})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	_, err = svc.Update(ctx, created.ID, "teacher-2", models.UpdateTestRequest{Title: strPtr("Hijacked title")})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(err))
}

func TestTestServiceListAndDelete(t *testing.T) {
	store := memstore.New()
	recorder := &invalidationRecorder{}
	svc := newTestService(store, recorder)
	ctx := context.Background()

	first, err := svc.Create(ctx, "teacher-1", physicsRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, "teacher-2", physicsRequest())
	require.NoError(t, err)

	list, err := svc.List(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(svc.Delete(ctx, first.ID, "teacher-2")))
	require.NoError(t, svc.Delete(ctx, first.ID, "teacher-1"))
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(svc.Delete(ctx, first.ID, "teacher-1")))

	list, err = svc.List(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, []string{"teacher-1", "teacher-2", "teacher-1"}, recorder.teachers)
}
