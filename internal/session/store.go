package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session: not found")

// Store persists session state and the short-lived question cache used to
// restore a question when the session copy is gone.
type Store interface {
	Create(ctx context.Context, sid string, st *State) error
	Load(ctx context.Context, sid string) (*State, error)
	// Update applies fn to the stored state atomically. If fn returns an error
	// nothing is written.
	Update(ctx context.Context, sid string, fn func(*State) error) error
	Delete(ctx context.Context, sid string) error

	SaveQuestion(ctx context.Context, q *models.Question) error
	LoadQuestion(ctx context.Context, id string) (*models.Question, error)
}

const questionTTL = 24 * time.Hour

// ---------- In-memory ----------

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps everything in process. Suitable for tests and single-instance deployments.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	sessions  map[string]memEntry
	questions map[string]memEntry
	now       func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:       ttl,
		sessions:  make(map[string]memEntry),
		questions: make(map[string]memEntry),
		now:       time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, sid string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sid] = memEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, sid string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(sid)
}

func (m *MemoryStore) loadLocked(sid string) (*State, error) {
	e, ok := m.sessions[sid]
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().After(e.expiresAt) {
		delete(m.sessions, sid)
		return nil, ErrNotFound
	}
	var st State
	if err := json.Unmarshal(e.data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (m *MemoryStore) Update(ctx context.Context, sid string, fn func(*State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.loadLocked(sid)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.sessions[sid] = memEntry{data: data, expiresAt: m.sessions[sid].expiresAt}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	return nil
}

func (m *MemoryStore) SaveQuestion(ctx context.Context, q *models.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = memEntry{data: data, expiresAt: m.now().Add(questionTTL)}
	return nil
}

func (m *MemoryStore) LoadQuestion(ctx context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.questions[id]
	if !ok || m.now().After(e.expiresAt) {
		delete(m.questions, id)
		return nil, ErrNotFound
	}
	var q models.Question
	if err := json.Unmarshal(e.data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ---------- Redis ----------

const maxUpdateRetries = 5

// RedisStore shares session state across instances. Update uses WATCH/MULTI so
// concurrent requests for one session never lose a decrement.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(sid string) string { return "arena:session:" + sid }
func questionKey(id string) string { return "arena:question:" + id }

func (r *RedisStore) Create(ctx context.Context, sid string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(sid), data, r.ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, sid string) (*State, error) {
	data, err := r.rdb.Get(ctx, sessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}

func (r *RedisStore) Update(ctx context.Context, sid string, fn func(*State) error) error {
	key := sessionKey(sid)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := fn(&st); err != nil {
			return err
		}
		out, err := json.Marshal(&st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update session %s: too much contention", sid)
}

func (r *RedisStore) Delete(ctx context.Context, sid string) error {
	return database.CacheDelete(ctx, r.rdb, sessionKey(sid))
}

func (r *RedisStore) SaveQuestion(ctx context.Context, q *models.Question) error {
	return database.CacheSet(ctx, r.rdb, questionKey(q.ID), q, questionTTL)
}

func (r *RedisStore) LoadQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := database.CacheGet(ctx, r.rdb, questionKey(id), &q)
	if errors.Is(err, database.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	return &q, nil
}
