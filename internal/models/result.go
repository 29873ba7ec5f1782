package models

import "time"

// QuizResult is the immutable record of a completed attempt. Questions and
// answers are denormalized copies so old results stay readable regardless
// of what the generator produces later. Feedback is the optional LLM
// narrative; Recommendation is the tiered message and is always present.
type QuizResult struct {
	ID             string       `bson:"_id,omitempty" json:"id"`
	SessionID      string       `bson:"session_id" json:"session_id"`
	Topic          string       `bson:"topic" json:"topic"`
	Questions      []Question   `bson:"questions" json:"questions"`
	Answers        []QuizAnswer `bson:"answers" json:"answers"`
	Score          int          `bson:"score" json:"score"`
	MaxScore       int          `bson:"max_score" json:"max_score"`
	Recommendation string       `bson:"recommendation" json:"recommendation"`
	Feedback       string       `bson:"feedback,omitempty" json:"feedback,omitempty"`
	CreatedAt      time.Time    `bson:"created_at" json:"created_at"`
}
