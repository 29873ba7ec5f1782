package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizflow-service/internal/models"
	"quizflow-service/internal/quizerr"
)

const sessionKeyPrefix = "quiz:session:"

// RedisStore keeps sessions as JSON values with a per-key TTL, so session
// state survives process restarts and is shared across instances. Expiry
// is handled by Redis itself.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(id string) string { return sessionKeyPrefix + id }

func (r *RedisStore) put(ctx context.Context, session *models.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return quizerr.Wrap(quizerr.Persistence, "marshal session", err)
	}
	if err := r.client.Set(ctx, r.key(session.ID), data, r.ttl).Err(); err != nil {
		return quizerr.Wrap(quizerr.Persistence, "store session", err)
	}
	return nil
}

func (r *RedisStore) Create(ctx context.Context, session *models.QuizSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	return r.put(ctx, session)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.QuizSession, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, quizerr.Newf(quizerr.NotFound, "session %s not found", id)
	}
	if err != nil {
		return nil, quizerr.Wrap(quizerr.Persistence, "fetch session", err)
	}
	var session models.QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, quizerr.Wrap(quizerr.Persistence, "decode session", err)
	}
	return &session, nil
}

func (r *RedisStore) Update(ctx context.Context, session *models.QuizSession) error {
	// Refuse to resurrect an expired or deleted session.
	if _, err := r.Get(ctx, session.ID); err != nil {
		return err
	}
	return r.put(ctx, session)
}

func (r *RedisStore) RecordAnswer(ctx context.Context, id string, answer models.QuizAnswer) (*models.QuizSession, error) {
	session, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyAnswer(session, answer)
	if err := r.put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return quizerr.Wrap(quizerr.Persistence, "delete session", err)
	}
	return nil
}
