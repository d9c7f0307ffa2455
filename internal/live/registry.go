package live

import (
	"context"
	"sync"
	"time"
)

// Registry serializes operations per session: while one request for a
// session runs, including its persistence call, others for the same
// session wait.
type Registry struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, locks: map[string]*sessionLock{}}
}

func (r *Registry) lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sessionLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}

func (r *Registry) Create(ctx context.Context, s *Session) error {
	return r.store.Put(ctx, s)
}

func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	return r.store.Get(ctx, id)
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	unlock := r.lock(id)
	defer unlock()
	return r.store.Delete(ctx, id)
}

// Update runs fn on the current session and stores the result. When fn
// fails nothing is stored and the error is returned as is.
func (r *Registry) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	unlock := r.lock(id)
	defer unlock()

	s, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now()
	if err := r.store.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
