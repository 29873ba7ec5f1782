package scoring

import (
	"math"

	"quizflow-service/internal/quizerr"
)

// tier is one recommendation band. Bound is the fraction of maxScore that
// forms the tier's inclusive upper bound, so the table works for any quiz
// length; at maxScore=5 the bounds resolve to 2, 3, 4 and 5.
type tier struct {
	Name    string
	Bound   float64
	Message string
}

var tiers = []tier{
	{"beginner", 0.4, "Keep learning! We recommend starting with the basics and practicing regularly."},
	{"intermediate", 0.6, "Good job! Focus on the topics you missed and try to deepen your understanding."},
	{"advanced", 0.8, "Excellent work! Consider exploring advanced topics and helping others learn."},
	{"expert", 1.0, "Perfect score! You've mastered these concepts. Time to tackle new challenges!"},
}

// Recommend maps a score to its tier message. The bounds partition
// [0, maxScore]: the first tier whose upper bound is >= score wins, so
// every integer score maps to exactly one message.
func Recommend(score, maxScore int) (string, error) {
	if maxScore <= 0 {
		return "", quizerr.Newf(quizerr.Validation, "max score must be positive, got %d", maxScore)
	}
	if score < 0 || score > maxScore {
		return "", quizerr.Newf(quizerr.Validation, "score %d outside [0, %d]", score, maxScore)
	}
	for _, t := range tiers {
		if score <= int(math.Round(t.Bound*float64(maxScore))) {
			return t.Message, nil
		}
	}
	// Unreachable: the last bound equals maxScore.
	return tiers[len(tiers)-1].Message, nil
}
