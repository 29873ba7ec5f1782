package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizflow-service/internal/models"
	"quizflow-service/internal/quizerr"
	"quizflow-service/internal/store"
)

// --- fakes ---

type fakeSource struct {
	questions []models.Question
	err       error
}

func (f *fakeSource) GenerateQuestions(_ context.Context, _ string) ([]models.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

func (f *fakeSource) QuestionCount() int { return len(f.questions) }

type fakeFeedback struct {
	text  string
	err   error
	calls int
}

func (f *fakeFeedback) GenerateFeedback(_ context.Context, _ string, _ []models.Question, _ []string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeResults struct {
	mu         sync.Mutex
	failCreate bool
	creates    int
	byID       map[string]models.QuizResult
}

func newFakeResults() *fakeResults {
	return &fakeResults{byID: make(map[string]models.QuizResult)}
}

func (f *fakeResults) Create(_ context.Context, result *models.QuizResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return quizerr.New(quizerr.Persistence, "result store unavailable")
	}
	f.creates++
	result.ID = fmt.Sprintf("result-%d", f.creates)
	f.byID[result.ID] = *result
	return nil
}

func (f *fakeResults) FindByID(_ context.Context, id string) (*models.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, quizerr.Newf(quizerr.NotFound, "result %s not found", id)
	}
	return &r, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	calls  int
	lastTo string
}

func (f *fakeNotifier) SendResult(_ context.Context, to string, _, _ int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastTo = to
	return nil
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- helpers ---

func fiveQuestions() []models.Question {
	correct := []string{"A", "B", "C", "D", "E"}
	qs := make([]models.Question, len(correct))
	for i, c := range correct {
		qs[i] = models.Question{
			ID:            i + 1,
			Question:      fmt.Sprintf("question %d", i+1),
			Options:       []string{c, "W", "X", "Y"},
			CorrectAnswer: c,
		}
	}
	return qs
}

type harness struct {
	svc      *QuizService
	sessions *store.MemoryStore
	source   *fakeSource
	feedback *fakeFeedback
	results  *fakeResults
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sessions: store.NewMemoryStore(time.Minute),
		source:   &fakeSource{questions: fiveQuestions()},
		feedback: &fakeFeedback{text: "well done"},
		results:  newFakeResults(),
		notifier: &fakeNotifier{},
	}
	t.Cleanup(h.sessions.Close)
	h.svc = NewQuizService(h.sessions, h.source, h.feedback, h.results, h.notifier, nil)
	return h
}

// --- tests ---

func TestStartQuizRequiresTopic(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.StartQuiz(context.Background(), "", "")
	if !quizerr.Is(err, quizerr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartQuizGenerationFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.source.err = quizerr.New(quizerr.Generation, "model down")

	_, err := h.svc.StartQuiz(context.Background(), "go", "")
	if !quizerr.Is(err, quizerr.Generation) {
		t.Fatalf("expected generation error, got %v", err)
	}
}

func TestStartQuizCreatesSession(t *testing.T) {
	h := newHarness(t)

	session, err := h.svc.StartQuiz(context.Background(), "go", "user@example.com")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected assigned session id")
	}
	if session.Status != models.StatusCreated {
		t.Errorf("expected created status, got %s", session.Status)
	}
	if len(session.Questions) != 5 {
		t.Errorf("expected 5 questions, got %d", len(session.Questions))
	}

	fetched, err := h.svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Topic != "go" || fetched.Email != "user@example.com" {
		t.Errorf("session not stored faithfully: %+v", fetched)
	}
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.SubmitAnswer(context.Background(), "no-such-session", 1, "A")
	if !quizerr.Is(err, quizerr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if h.results.creates != 0 || h.notifier.callCount() != 0 {
		t.Error("stores mutated for unknown session")
	}
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	h := newHarness(t)
	session, _ := h.svc.StartQuiz(context.Background(), "go", "")

	_, err := h.svc.SubmitAnswer(context.Background(), session.ID, 42, "A")
	if !quizerr.Is(err, quizerr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnswerFlowFinalizesOnLastAnswer(t *testing.T) {
	h := newHarness(t)
	session, _ := h.svc.StartQuiz(context.Background(), "go", "user@example.com")

	submitted := []string{"A", "B", "X", "D", "E"} // 4 of 5 correct
	var outcome *AnswerOutcome
	for i, ans := range submitted {
		var err error
		outcome, err = h.svc.SubmitAnswer(context.Background(), session.ID, i+1, ans)
		if err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
		if i < len(submitted)-1 && outcome.Completed {
			t.Fatalf("completed after %d of %d answers", i+1, len(submitted))
		}
	}

	if !outcome.Completed {
		t.Fatal("expected finalize on last answer")
	}
	if outcome.Result.Score != 4 {
		t.Errorf("expected score 4, got %d", outcome.Result.Score)
	}
	if outcome.Result.Feedback != "well done" {
		t.Errorf("expected narrative feedback, got %q", outcome.Result.Feedback)
	}
	if !strings.Contains(outcome.Result.Recommendation, "advanced topics") {
		t.Errorf("expected advanced tier for 4/5, got %q", outcome.Result.Recommendation)
	}
	if h.notifier.callCount() != 1 || h.notifier.lastTo != "user@example.com" {
		t.Errorf("expected one email to user@example.com, got %d to %q", h.notifier.callCount(), h.notifier.lastTo)
	}

	// The result snapshot must match what the store serves.
	stored, err := h.svc.GetResult(context.Background(), outcome.Result.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if stored.Score != 4 || stored.Topic != "go" || len(stored.Questions) != 5 || len(stored.Answers) != 5 {
		t.Errorf("stored result incomplete: %+v", stored)
	}
}

func TestResubmittedAnswerOverwrites(t *testing.T) {
	h := newHarness(t)
	session, _ := h.svc.StartQuiz(context.Background(), "go", "")

	if _, err := h.svc.SubmitAnswer(context.Background(), session.ID, 1, "W"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	outcome, err := h.svc.SubmitAnswer(context.Background(), session.ID, 1, "A")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	if len(outcome.Session.Answers) != 1 {
		t.Fatalf("expected 1 answer after overwrite, got %d", len(outcome.Session.Answers))
	}
	if !outcome.IsCorrect {
		t.Error("expected overwriting answer to be correct")
	}
}

func TestDoubleFinalizeReturnsSameResult(t *testing.T) {
	h := newHarness(t)
	session, _ := h.svc.StartQuiz(context.Background(), "go", "user@example.com")

	answers := []string{"A", "B", "C", "D", "E"}
	first, err := h.svc.SubmitQuiz(context.Background(), session.ID, answers, "")
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := h.svc.SubmitQuiz(context.Background(), session.ID, answers, "")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("finalize not idempotent: %s then %s", first.ID, second.ID)
	}
	if h.results.creates != 1 {
		t.Errorf("expected exactly one persisted result, got %d", h.results.creates)
	}
	if h.notifier.callCount() != 1 {
		t.Errorf("expected exactly one notification, got %d", h.notifier.callCount())
	}
}

func TestConcurrentFinalFinalizesOnce(t *testing.T) {
	h := newHarness(t)
	session, _ := h.svc.StartQuiz(context.Background(), "go", "")

	for i := 1; i <= 4; i++ {
		if _, err := h.svc.SubmitAnswer(context.Background(), session.ID, i, "A"); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.svc.SubmitAnswer(context.Background(), session.ID, 5, "E")
		}()
	}
	wg.Wait()

	if h.results.creates != 1 {
		t.Errorf("racing final answers produced %d results", h.results.creates)
	}
}

func TestFeedbackFailureDegradesGracefully(t *testing.T) {
	h := newHarness(t)
	h.feedback.err = quizerr.New(quizerr.Generation, "model down")
	session, _ := h.svc.StartQuiz(context.Background(), "go", "")

	result, err := h.svc.SubmitQuiz(context.Background(), session.ID, []string{"A", "B", "C", "D", "E"}, "")
	if err != nil {
		t.Fatalf("expected completion despite feedback failure, got %v", err)
	}
	if result.Feedback != "" {
		t.Errorf("expected empty narrative feedback, got %q", result.Feedback)
	}
	if result.Recommendation == "" {
		t.Error("expected tiered recommendation to be present")
	}
	if result.Score != 5 {
		t.Errorf("expected score 5, got %d", result.Score)
	}
}

func TestPersistenceFailureFailsFinalizeAndSkipsNotify(t *testing.T) {
	h := newHarness(t)
	h.results.failCreate = true
	session, _ := h.svc.StartQuiz(context.Background(), "go", "user@example.com")

	_, err := h.svc.SubmitQuiz(context.Background(), session.ID, []string{"A", "B", "C", "D", "E"}, "")
	if !quizerr.Is(err, quizerr.Persistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if h.notifier.callCount() != 0 {
		t.Errorf("expected zero notifications after persistence failure, got %d", h.notifier.callCount())
	}

	failed, _ := h.svc.GetSession(context.Background(), session.ID)
	if failed.Status != models.StatusFailed {
		t.Errorf("expected failed status, got %s", failed.Status)
	}

	// The attempt is retryable once the store recovers.
	h.results.failCreate = false
	result, err := h.svc.SubmitQuiz(context.Background(), session.ID, []string{"A", "B", "C", "D", "E"}, "")
	if err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if result.Score != 5 {
		t.Errorf("expected score 5 on retry, got %d", result.Score)
	}
	if h.notifier.callCount() != 1 {
		t.Errorf("expected one notification after successful retry, got %d", h.notifier.callCount())
	}
}

func TestSubmitQuizRejectsPartialAnswers(t *testing.T) {
	h := newHarness(t)
	session, _ := h.svc.StartQuiz(context.Background(), "go", "")

	_, err := h.svc.SubmitQuiz(context.Background(), session.ID, []string{"A", "B"}, "")
	if !quizerr.Is(err, quizerr.Validation) {
		t.Fatalf("expected validation error for partial submission, got %v", err)
	}
	if h.results.creates != 0 {
		t.Error("partial submission reached the result store")
	}
}

func TestGetResultUnknown(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.GetResult(context.Background(), "missing")
	if !quizerr.Is(err, quizerr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNoEmailMeansNoNotification(t *testing.T) {
	h := newHarness(t)
	session, _ := h.svc.StartQuiz(context.Background(), "go", "")

	if _, err := h.svc.SubmitQuiz(context.Background(), session.ID, []string{"A", "B", "C", "D", "E"}, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if h.notifier.callCount() != 0 {
		t.Errorf("expected no notification without an email, got %d", h.notifier.callCount())
	}
}
