package bindrt

import (
	"context"
	"sync"
	"sync/atomic"
)

// Lock is the managed exclusivity lock. Managed code holds it while it
// touches wrapped objects; long-running native calls marked release-lock
// run without it.
//
// A hold belongs to the context returned by Acquire. Contexts derived from
// it hold the lock too, so they must stay on the holding goroutine.
type Lock struct {
	mu sync.Mutex
}

type holdKey struct{ l *Lock }

// hold marks one acquisition. It is inactive while WithoutLock has the lock
// released.
type hold struct {
	active atomic.Bool
}

// Acquire takes the lock and returns a context carrying the hold.
func (l *Lock) Acquire(ctx context.Context) context.Context {
	h := &hold{}
	l.lock(h)

	return context.WithValue(ctx, holdKey{l}, h)
}

// Release drops the lock held by ctx. It panics when ctx does not hold it.
func (l *Lock) Release(ctx context.Context) {
	h := l.holdOf(ctx)
	if h == nil || !h.active.Load() {
		panic("bindrt: release of a lock the context does not hold")
	}

	l.unlock(h)
}

// Held reports whether ctx holds the lock.
func (l *Lock) Held(ctx context.Context) bool {
	h := l.holdOf(ctx)

	return h != nil && h.active.Load()
}

// WithoutLock runs fn with the lock released and reacquires it before
// returning. When ctx does not hold the lock, fn just runs and the lock is
// left alone, whoever holds it.
func (l *Lock) WithoutLock(ctx context.Context, fn func(context.Context) error) error {
	h := l.holdOf(ctx)
	if h == nil || !h.active.Load() {
		return fn(ctx)
	}

	l.unlock(h)
	defer l.lock(h)

	return fn(ctx)
}

// With runs fn holding the lock. A context already holding it is reused.
func (l *Lock) With(ctx context.Context, fn func(context.Context) error) error {
	if l.Held(ctx) {
		return fn(ctx)
	}

	ctx = l.Acquire(ctx)
	defer l.Release(ctx)

	return fn(ctx)
}

func (l *Lock) holdOf(ctx context.Context) *hold {
	h, _ := ctx.Value(holdKey{l}).(*hold)

	return h
}

func (l *Lock) lock(h *hold) {
	l.mu.Lock()
	h.active.Store(true)
}

func (l *Lock) unlock(h *hold) {
	h.active.Store(false)
	l.mu.Unlock()
}
