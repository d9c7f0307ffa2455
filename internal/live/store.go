package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Store keeps sessions between requests. Get returns a private copy.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type memEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore holds sessions in process. Entries expire ttl after their
// last write; Start runs a periodic sweep that drops them.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time

	cron *cron.Cron
	log  *zap.Logger
}

func NewMemoryStore(ttl time.Duration, log *zap.Logger) *MemoryStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryStore{
		entries: map[string]memEntry{},
		ttl:     ttl,
		now:     time.Now,
		log:     log,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID] = memEntry{session: s.Clone(), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Sweep removes expired sessions and reports how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Start schedules Sweep with a cron spec such as "@every 1m".
func (m *MemoryStore) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := m.Sweep(); n > 0 {
			m.log.Debug("expired edit sessions dropped", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	m.cron = c
	c.Start()
	return nil
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (m *MemoryStore) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
}

const redisKeyPrefix = "edit-session:"

// RedisStore shares sessions between instances. Sessions are msgpack
// encoded and expire through the key TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var s Session
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode edit session %s: %w", id, err)
	}
	if s.Drafts == nil {
		s.Drafts = map[string]string{}
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	raw, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode edit session %s: %w", s.ID, err)
	}
	return r.rdb.Set(ctx, redisKeyPrefix+s.ID, raw, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+id).Err()
}
