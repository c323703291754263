package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Local is an in-process lock keyed by name. The zero value is ready to use.
// The ttl argument is accepted for interface parity and ignored.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// WithLock runs fn while holding key, waiting until the key is free or ctx is done.
func (l *Local) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	slot := l.slot(key)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-slot }()
	return fn(ctx)
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots == nil {
		l.slots = make(map[string]chan struct{})
	}
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}
