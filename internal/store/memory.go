package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizflow-service/internal/models"
	"quizflow-service/internal/quizerr"
)

type memoryEntry struct {
	session   models.QuizSession
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with a sweeper goroutine
// evicting expired entries. Suitable for tests and single-node runs.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memoryEntry),
		stop:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *MemoryStore) sweep() {
	interval := m.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, e := range m.sessions {
				if now.After(e.expiresAt) {
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (m *MemoryStore) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MemoryStore) Create(_ context.Context, session *models.QuizSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = &memoryEntry{
		session:   cloneSession(session),
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.QuizSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, quizerr.Newf(quizerr.NotFound, "session %s not found", id)
	}
	s := cloneSession(&e.session)
	return &s, nil
}

func (m *MemoryStore) Update(_ context.Context, session *models.QuizSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[session.ID]
	if !ok || time.Now().After(e.expiresAt) {
		return quizerr.Newf(quizerr.NotFound, "session %s not found", session.ID)
	}
	e.session = cloneSession(session)
	e.expiresAt = time.Now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) RecordAnswer(_ context.Context, id string, answer models.QuizAnswer) (*models.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, quizerr.Newf(quizerr.NotFound, "session %s not found", id)
	}
	applyAnswer(&e.session, answer)
	e.expiresAt = time.Now().Add(m.ttl)
	s := cloneSession(&e.session)
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// cloneSession copies the session and its slices so callers never alias
// store-owned state.
func cloneSession(s *models.QuizSession) models.QuizSession {
	out := *s
	out.Questions = make([]models.Question, len(s.Questions))
	copy(out.Questions, s.Questions)
	for i := range out.Questions {
		opts := make([]string, len(s.Questions[i].Options))
		copy(opts, s.Questions[i].Options)
		out.Questions[i].Options = opts
	}
	out.Answers = make([]models.QuizAnswer, len(s.Answers))
	copy(out.Answers, s.Answers)
	return out
}
