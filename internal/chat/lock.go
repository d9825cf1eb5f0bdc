package chat

import "sync"

// sessionLocks serializes exchanges per session id so two concurrent sends
// cannot race the message-count check or double-fire title generation.
// Entries are reference counted and removed when idle.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(sessionID string) {
	l.mu.Lock()
	e, ok := l.locks[sessionID]
	if !ok {
		e = &sessionLock{}
		l.locks[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *sessionLocks) unlock(sessionID string) {
	l.mu.Lock()
	e := l.locks[sessionID]
	e.refs--
	if e.refs == 0 {
		delete(l.locks, sessionID)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}
