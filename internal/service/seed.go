package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

func sp(s string) *string { return &s }
func ip(i int) *int       { return &i }

// SampleQuestions is the starter question bank shipped with the service.
func SampleQuestions() []models.CreateQuestionRequest {
	return []models.CreateQuestionRequest{
		{
			Subject:      "Mathematics",
			Chapter:      "Trigonometry",
			Topic:        sp("Introduction to Trigonometry"),
			Difficulty:   models.DifficultyEasy,
			Type:         models.QuestionTypeMCQ,
			QuestionText: "If sin θ = 3/5, then the value of cos θ is:",
			Options:      []string{"4/5", "3/4", "5/3", "4/3"},
			Answer:       sp("4/5"),
			Explanation:  sp("Using the Pythagorean identity sin²θ + cos²θ = 1, we get cos²θ = 1 - sin²θ = 1 - (3/5)² = 1 - 9/25 = 16/25. So cos θ = 4/5."),
			Marks:        ip(2),
			Tags:         []string{"trigonometry", "easy", "pythagorean identity"},
		},
		{
			Subject:      "Mathematics",
			Chapter:      "Trigonometry",
			Topic:        sp("Trigonometric Identities"),
			Difficulty:   models.DifficultyMedium,
			Type:         models.QuestionTypeShortAnswer,
			QuestionText: "Prove the identity: (1 + tan²A) = sec²A",
			Answer:       sp("We know that tan²A + 1 = sec²A is a fundamental identity, so (1 + tan²A) = sec²A is automatically true."),
			Marks:        ip(3),
			Tags:         []string{"trigonometry", "medium", "identities"},
		},
		{
			Subject:      "Mathematics",
			Chapter:      "Triangles",
			Topic:        sp("Similar Triangles"),
			Difficulty:   models.DifficultyHard,
			Type:         models.QuestionTypeLongAnswer,
			QuestionText: "In a triangle ABC, if sin A = 1/2, sin B = 1/3, then find the value of sin C. Also prove that the triangle is obtuse-angled.",
			Answer:       sp("Using the fact that in any triangle, A + B + C = 180°, we can determine sin C. Since sin A = 1/2, A = 30°. Similarly, sin B = 1/3 gives B ≈ 19.5°. Thus C = 180° - A - B ≈ 130.5°, which means sin C ≈ 0.766. Since C > 90°, the triangle is obtuse-angled."),
			Marks:        ip(5),
			Tags:         []string{"triangles", "hard", "sine rule"},
		},
		{
			Subject:      "Science",
			Chapter:      "Chemical Reactions",
			Topic:        sp("Types of Chemical Reactions"),
			Difficulty:   models.DifficultyMedium,
			Type:         models.QuestionTypeMCQ,
			QuestionText: "The reaction 2H₂O₂ → 2H₂O + O₂ is an example of which type of reaction?",
			Options:      []string{"Combination reaction", "Decomposition reaction", "Displacement reaction", "Double displacement reaction"},
			Answer:       sp("Decomposition reaction"),
			Explanation:  sp("In this reaction, hydrogen peroxide decomposes to form water and oxygen gas, making it a decomposition reaction."),
			Marks:        ip(1),
			Tags:         []string{"chemistry", "medium", "chemical reactions"},
		},
	}
}

// Seed inserts the sample questions that are not yet in the bank and
// returns how many were added. Seeded questions have no owner.
func (s *QuestionService) Seed(ctx context.Context) (int, error) {
	inserted := 0
	for _, req := range SampleQuestions() {
		exists, err := s.repo.ExistsByText(ctx, req.QuestionText)
		if err != nil {
			return inserted, appErrors.Internal(err, "failed to check sample question")
		}
		if exists {
			continue
		}
		if _, err := s.Create(ctx, "", req); err != nil {
			return inserted, err
		}
		inserted++
	}
	s.logger.Info("sample questions seeded", zap.Int("inserted", inserted))
	return inserted, nil
}
