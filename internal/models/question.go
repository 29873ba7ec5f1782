package models

import "fmt"

// Question is one generated multiple-choice question. IDs are 1-based
// ordinals within a quiz. Immutable once generated.
type Question struct {
	ID            int      `bson:"id" json:"id"`
	Question      string   `bson:"question" json:"question"`
	Options       []string `bson:"options" json:"options"`
	CorrectAnswer string   `bson:"correct_answer" json:"correct_answer"`
}

// Validate checks the generator's output contract: non-empty prompt, at
// least two options, and a correct answer that is character-identical to
// one of the options.
func (q *Question) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question %d: empty prompt", q.ID)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %d: needs at least 2 options, got %d", q.ID, len(q.Options))
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return fmt.Errorf("question %d: correct answer %q not among options", q.ID, q.CorrectAnswer)
}
