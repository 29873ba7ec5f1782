package models

import "time"

// Session lifecycle states. A session is created with zero answers,
// moves to in_progress on the first recorded answer, awaiting_feedback
// while finalize runs, and completed once a result exists. failed is
// terminal and reachable from any state.
const (
	StatusCreated          = "created"
	StatusInProgress       = "in_progress"
	StatusAwaitingFeedback = "awaiting_feedback"
	StatusCompleted        = "completed"
	StatusFailed           = "failed"
)

// QuizSession is the mutable in-flight state of one quiz attempt. It is
// owned by the session store; all mutation goes through the orchestrator,
// which serializes operations per session id.
type QuizSession struct {
	ID              string       `json:"id"`
	Topic           string       `json:"topic"`
	Email           string       `json:"email,omitempty"`
	Questions       []Question   `json:"questions"`
	CurrentQuestion int          `json:"current_question"`
	Answers         []QuizAnswer `json:"answers"`
	Status          string       `json:"status"`
	ResultID        string       `json:"result_id,omitempty"`
	FailReason      string       `json:"fail_reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// AnswerFor returns the recorded answer for a question ordinal, if any.
func (s *QuizSession) AnswerFor(questionID int) (*QuizAnswer, bool) {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			return &s.Answers[i], true
		}
	}
	return nil, false
}

// Complete reports whether every question has a recorded answer.
func (s *QuizSession) Complete() bool {
	return len(s.Answers) == len(s.Questions)
}

// OrderedAnswers returns the answer texts in question order. The second
// return is false while any question is still unanswered.
func (s *QuizSession) OrderedAnswers() ([]string, bool) {
	out := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		a, ok := s.AnswerFor(q.ID)
		if !ok {
			return nil, false
		}
		out[i] = a.Answer
	}
	return out, true
}
