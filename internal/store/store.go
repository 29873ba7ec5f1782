// Package store owns the session storage contract. Sessions are ephemeral
// and TTL-bounded; the backing implementation is injected so a single-node
// deployment can run on process memory while multi-node deployments share
// Redis.
package store

import (
	"context"
	"time"

	"quizflow-service/internal/models"
)

// SessionStore is keyed storage for in-flight quiz sessions. Create
// assigns a collision-resistant opaque id when the session has none.
// RecordAnswer overwrites any previous answer for the same ordinal, so
// re-submission is idempotent. Implementations must bound memory via TTL;
// callers serialize operations per session id, so read-modify-write inside
// RecordAnswer does not need to be atomic across processes.
type SessionStore interface {
	Create(ctx context.Context, session *models.QuizSession) error
	Get(ctx context.Context, id string) (*models.QuizSession, error)
	Update(ctx context.Context, session *models.QuizSession) error
	RecordAnswer(ctx context.Context, id string, answer models.QuizAnswer) (*models.QuizSession, error)
	Delete(ctx context.Context, id string) error
}

// DefaultTTL bounds how long a session survives, abandoned or completed.
// Completed sessions keep their result id until expiry so a duplicate
// finalize can return the stored result.
const DefaultTTL = 30 * time.Minute

// applyAnswer merges an answer into the session, replacing an existing
// entry for the same question ordinal, and advances the cursor.
func applyAnswer(s *models.QuizSession, answer models.QuizAnswer) {
	if prev, ok := s.AnswerFor(answer.QuestionID); ok {
		*prev = answer
	} else {
		s.Answers = append(s.Answers, answer)
	}
	if len(s.Answers) > s.CurrentQuestion {
		s.CurrentQuestion = len(s.Answers)
	}
	if s.Status == models.StatusCreated {
		s.Status = models.StatusInProgress
	}
}
