// Package scoring holds the two pure engines of the quiz core: exact-match
// scoring and the tiered recommendation table. Neither does I/O; identical
// inputs always produce identical outputs so stored scores can be audited
// by recomputation.
package scoring

import (
	"quizflow-service/internal/models"
	"quizflow-service/internal/quizerr"
)

// Score counts position-wise exact matches between answers and each
// question's correct answer. Comparison is case-sensitive with no
// trimming: the generator emits correct answers character-identical to
// one of its options, and clients echo the selected option verbatim.
func Score(questions []models.Question, answers []string) (int, error) {
	if len(answers) != len(questions) {
		return 0, quizerr.Newf(quizerr.Validation,
			"expected %d answers, got %d", len(questions), len(answers))
	}
	score := 0
	for i, q := range questions {
		if answers[i] == q.CorrectAnswer {
			score++
		}
	}
	return score, nil
}
