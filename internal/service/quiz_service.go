package service

import (
	"context"
	"log"
	"sync"
	"time"

	"quizflow-service/internal/event"
	"quizflow-service/internal/models"
	"quizflow-service/internal/quizerr"
	"quizflow-service/internal/scoring"
	"quizflow-service/internal/store"
)

// QuestionSource generates the fixed-size quiz for a topic.
type QuestionSource interface {
	GenerateQuestions(ctx context.Context, topic string) ([]models.Question, error)
	QuestionCount() int
}

// FeedbackGenerator produces the optional narrative feedback. Failures
// are recoverable; the orchestrator completes with the tiered
// recommendation alone.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, topic string, questions []models.Question, answers []string) (string, error)
}

// ResultStore persists finalized results. Create is the durability
// boundary of the finalize flow.
type ResultStore interface {
	Create(ctx context.Context, result *models.QuizResult) error
	FindByID(ctx context.Context, id string) (*models.QuizResult, error)
}

// Notifier delivers the result email after a durable write.
type Notifier interface {
	SendResult(ctx context.Context, to string, score, maxScore int, recommendation string) error
}

const notifyTimeout = 15 * time.Second

// QuizService is the lifecycle orchestrator: it sequences question
// generation, answer collection, scoring, feedback, persistence and
// notification. All operations on one session id are serialized through a
// per-session lock, which makes each transition atomic relative to other
// operations on that session and finalize idempotent under races.
type QuizService struct {
	sessions  store.SessionStore
	source    QuestionSource
	feedback  FeedbackGenerator
	results   ResultStore
	notifier  Notifier
	publisher *event.Publisher

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewQuizService(
	sessions store.SessionStore,
	source QuestionSource,
	feedback FeedbackGenerator,
	results ResultStore,
	notifier Notifier,
	publisher *event.Publisher,
) *QuizService {
	return &QuizService{
		sessions:  sessions,
		source:    source,
		feedback:  feedback,
		results:   results,
		notifier:  notifier,
		publisher: publisher,
		locks:     make(map[string]*sessionLock),
	}
}

// lockSession serializes operations on a session id. The returned func
// releases the lock and drops the entry once no one waits on it.
func (s *QuizService) lockSession(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// StartQuiz generates questions for the topic and creates a session.
// Generation failure aborts the whole operation.
func (s *QuizService) StartQuiz(ctx context.Context, topic, email string) (*models.QuizSession, error) {
	if topic == "" {
		return nil, quizerr.New(quizerr.Validation, "topic is required")
	}

	questions, err := s.source.GenerateQuestions(ctx, topic)
	if err != nil {
		return nil, err
	}

	session := &models.QuizSession{
		Topic:     topic,
		Email:     email,
		Questions: questions,
		Status:    models.StatusCreated,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.publisher.Publish(event.SessionCreated, map[string]any{
		"session_id": session.ID,
		"topic":      topic,
	})
	return session, nil
}

// GetSession returns in-flight session state.
func (s *QuizService) GetSession(ctx context.Context, id string) (*models.QuizSession, error) {
	return s.sessions.Get(ctx, id)
}

// AnswerOutcome is what a recorded answer produced: the updated session
// and, when the answer was the last one, the finalized result.
type AnswerOutcome struct {
	Session   *models.QuizSession
	IsCorrect bool
	Completed bool
	Result    *models.QuizResult
}

// SubmitAnswer records one answer. Correctness is computed here, against
// the session's own questions, never trusted from the client. Recording
// the final answer triggers finalize; for a session that already
// completed, the stored result is returned unchanged.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string) (*AnswerOutcome, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == models.StatusCompleted {
		result, err := s.results.FindByID(ctx, session.ResultID)
		if err != nil {
			return nil, err
		}
		return &AnswerOutcome{Session: session, Completed: true, Result: result}, nil
	}

	var question *models.Question
	for i := range session.Questions {
		if session.Questions[i].ID == questionID {
			question = &session.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, quizerr.Newf(quizerr.Validation, "question %d not in this quiz", questionID)
	}

	recorded := models.QuizAnswer{
		QuestionID: questionID,
		Answer:     answer,
		IsCorrect:  answer == question.CorrectAnswer,
		AnsweredAt: time.Now().UTC(),
	}
	session, err = s.sessions.RecordAnswer(ctx, sessionID, recorded)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(event.AnswerSubmitted, map[string]any{
		"session_id":  sessionID,
		"question_id": questionID,
	})

	outcome := &AnswerOutcome{Session: session, IsCorrect: recorded.IsCorrect}
	if !session.Complete() {
		return outcome, nil
	}

	result, err := s.finalizeLocked(ctx, session)
	if err != nil {
		return nil, err
	}
	outcome.Completed = true
	outcome.Result = result
	return outcome, nil
}

// SubmitQuiz is the whole-quiz submission path: it records every answer
// against the session's stored questions and finalizes. Answers must
// cover the full quiz; partial submissions are rejected.
func (s *QuizService) SubmitQuiz(ctx context.Context, sessionID string, answers []string, email string) (*models.QuizResult, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == models.StatusCompleted {
		return s.results.FindByID(ctx, session.ResultID)
	}

	if len(answers) != len(session.Questions) {
		return nil, quizerr.Newf(quizerr.Validation,
			"expected %d answers, got %d", len(session.Questions), len(answers))
	}

	now := time.Now().UTC()
	for i, q := range session.Questions {
		session, err = s.sessions.RecordAnswer(ctx, sessionID, models.QuizAnswer{
			QuestionID: q.ID,
			Answer:     answers[i],
			IsCorrect:  answers[i] == q.CorrectAnswer,
			AnsweredAt: now,
		})
		if err != nil {
			return nil, err
		}
	}

	if email != "" && session.Email == "" {
		session.Email = email
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, err
		}
	}

	return s.finalizeLocked(ctx, session)
}

// finalizeLocked runs the completion sequence. Caller holds the session
// lock. Ordering is the consistency mechanism: score (pure), feedback
// (optional), persist (durability boundary), notify (fire-and-forget).
// A persistence failure marks the session failed but keeps its answers,
// so a later finalize attempt can retry the whole sequence.
func (s *QuizService) finalizeLocked(ctx context.Context, session *models.QuizSession) (*models.QuizResult, error) {
	if session.Status == models.StatusCompleted && session.ResultID != "" {
		return s.results.FindByID(ctx, session.ResultID)
	}

	answers, ok := session.OrderedAnswers()
	if !ok {
		return nil, quizerr.Newf(quizerr.Validation,
			"incomplete submission: %d of %d answers recorded", len(session.Answers), len(session.Questions))
	}

	session.Status = models.StatusAwaitingFeedback
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	score, err := scoring.Score(session.Questions, answers)
	if err != nil {
		return nil, err
	}
	maxScore := len(session.Questions)
	recommendation, err := scoring.Recommend(score, maxScore)
	if err != nil {
		return nil, err
	}

	feedback := ""
	if s.feedback != nil {
		feedback, err = s.feedback.GenerateFeedback(ctx, session.Topic, session.Questions, answers)
		if err != nil {
			// Narrative feedback is optional; complete with the tier alone.
			log.Printf("session %s: feedback generation failed: %v", session.ID, err)
			feedback = ""
		}
	}

	result := &models.QuizResult{
		SessionID:      session.ID,
		Topic:          session.Topic,
		Questions:      session.Questions,
		Answers:        session.Answers,
		Score:          score,
		MaxScore:       maxScore,
		Recommendation: recommendation,
		Feedback:       feedback,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.results.Create(ctx, result); err != nil {
		session.Status = models.StatusFailed
		session.FailReason = "result persistence failed"
		if uerr := s.sessions.Update(ctx, session); uerr != nil {
			log.Printf("session %s: failed-state update error: %v", session.ID, uerr)
		}
		s.publisher.Publish(event.SessionFailed, map[string]any{
			"session_id": session.ID,
			"reason":     session.FailReason,
		})
		return nil, err
	}

	session.Status = models.StatusCompleted
	session.ResultID = result.ID
	session.FailReason = ""
	if err := s.sessions.Update(ctx, session); err != nil {
		// The result is durable; losing the session marker only costs
		// double-finalize protection for this id.
		log.Printf("session %s: completed-state update error: %v", session.ID, err)
	}

	if session.Email != "" && s.notifier != nil {
		// Independent context: the result is durable, a client disconnect
		// must not abort delivery, and delivery must stay bounded.
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := s.notifier.SendResult(nctx, session.Email, score, maxScore, recommendation); err != nil {
			log.Printf("session %s: result email failed: %v", session.ID, err)
		}
		cancel()
	}

	s.publisher.Publish(event.SessionCompleted, map[string]any{
		"session_id": session.ID,
		"result_id":  result.ID,
		"score":      score,
	})
	return result, nil
}

// GetResult fetches a persisted result by id. Read-only.
func (s *QuizService) GetResult(ctx context.Context, id string) (*models.QuizResult, error) {
	if id == "" {
		return nil, quizerr.New(quizerr.Validation, "result id is required")
	}
	return s.results.FindByID(ctx, id)
}
