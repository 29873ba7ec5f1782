package models

import "time"

// QuizAnswer records one submitted answer. IsCorrect is computed once,
// server-side, when the answer is recorded; re-submitting the same
// ordinal overwrites the previous entry.
type QuizAnswer struct {
	QuestionID int       `bson:"question_id" json:"question_id"`
	Answer     string    `bson:"answer" json:"answer"`
	IsCorrect  bool      `bson:"is_correct" json:"is_correct"`
	AnsweredAt time.Time `bson:"answered_at" json:"answered_at"`
}
