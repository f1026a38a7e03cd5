package agent

import (
	"context"
	"sync"
)

type sessionKeyContext struct{}

// WithSessionID routes adk runs to a session.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, sessionID)
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKeyContext{}).(string)
	return id, ok && id != ""
}

// sessionLocks serializes turns of the same session. Entries are dropped once
// no turn holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[string]*sessionLock{}}
}

func (l *sessionLocks) Lock(sessionID string) (unlock func()) {
	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		l.locks[sessionID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

type requesterKeyContext struct{}

// WithRequester attaches the requester identity used for planning and e-mail prefill.
func WithRequester(ctx context.Context, requester string) context.Context {
	return context.WithValue(ctx, requesterKeyContext{}, requester)
}

func RequesterFromContext(ctx context.Context) string {
	requester, _ := ctx.Value(requesterKeyContext{}).(string)
	return requester
}
