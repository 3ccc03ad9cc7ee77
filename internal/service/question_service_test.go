package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/repository/memstore"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

func TestParseQuestionFilter(t *testing.T) {
	filter, err := ParseQuestionFilter(url.Values{
		"subject":    {"Mathematics"},
		"difficulty": {"easy"},
		"type":       {"mcq"},
		"chapter":    {"  "},
		"owner":      {"me"},
	}, "teacher-1")
	require.NoError(t, err)

	require.NotNil(t, filter.Subject)
	assert.Equal(t, "Mathematics", *filter.Subject)
	assert.Equal(t, models.DifficultyEasy, *filter.Difficulty)
	assert.Equal(t, models.QuestionTypeMCQ, *filter.Type)
	assert.Nil(t, filter.Chapter)
	assert.Equal(t, "teacher-1", *filter.OwnerID)
}

func TestParseQuestionFilterRejectsBadInput(t *testing.T) {
	cases := map[string]url.Values{
		"unknown key":      {"grade": {"10"}},
		"mixed difficulty": {"difficulty": {"mixed"}},
		"unknown type":     {"type": {"essay"}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuestionFilter(values, "teacher-1")
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
		})
	}

	_, err := ParseQuestionFilter(url.Values{"grade": {"10"}}, "teacher-1")
	assert.Equal(t, "grade", appErrors.FromError(err).Details[0].Field)
}

func TestQuestionServiceCreate(t *testing.T) {
	store := memstore.New()
	svc := NewQuestionService(store.Questions(), nil, nil)
	ctx := context.Background()

	q, err := svc.Create(ctx, "teacher-1", models.CreateQuestionRequest{
		Subject:      "Science",
		Chapter:      "Light",
		Difficulty:   models.DifficultyEasy,
		Type:         models.QuestionTypeShortAnswer,
		QuestionText: "Define refraction.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, 1, q.Marks)
	assert.Equal(t, "teacher-1", *q.CreatedByTeacherID)

	_, err = svc.Create(ctx, "teacher-1", models.CreateQuestionRequest{
		Subject:      "Science",
		Chapter:      "Light",
		Difficulty:   models.DifficultyEasy,
		Type:         models.QuestionTypeMCQ,
		QuestionText: "Speed of light?",
		Options:      []string{"3e8 m/s", "3e6 m/s"},
		Answer:       strPtr("340 m/s"),
	})
	require.Error(t, err)
	assert.Equal(t, "question.answer", appErrors.FromError(err).Details[0].Field)

	_, err = svc.Create(ctx, "teacher-1", models.CreateQuestionRequest{
		Subject:      "Science",
		Chapter:      "Light",
		Difficulty:   models.DifficultyEasy,
		Type:         models.QuestionTypeShortAnswer,
		QuestionText: "Define reflection.",
		Marks:        intPtr(0),
	})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}

func TestQuestionServiceListFilters(t *testing.T) {
	store := memstore.New()
	svc := NewQuestionService(store.Questions(), nil, nil)
	ctx := context.Background()

	_, err := svc.Seed(ctx)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "teacher-1", models.CreateQuestionRequest{
		Subject: "Mathematics", Chapter: "Trigonometry", Difficulty: models.DifficultyHard,
		Type: models.QuestionTypeLongAnswer, QuestionText: "Prove the sine rule.", Marks: intPtr(6),
	})
	require.NoError(t, err)

	trig, err := svc.List(ctx, models.QuestionFilter{Chapter: strPtr("Trigonometry")})
	require.NoError(t, err)
	assert.Len(t, trig, 3)

	mine, err := svc.List(ctx, models.QuestionFilter{OwnerID: strPtr("teacher-1")})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Prove the sine rule.", mine[0].QuestionText)

	none, err := svc.List(ctx, models.QuestionFilter{Subject: strPtr("History")})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestQuestionServiceSeedIsIdempotent(t *testing.T) {
	store := memstore.New()
	svc := NewQuestionService(store.Questions(), nil, nil)
	ctx := context.Background()

	inserted, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)

	inserted, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	all, err := svc.List(ctx, models.QuestionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for _, q := range all {
		assert.Nil(t, q.CreatedByTeacherID)
	}
}
