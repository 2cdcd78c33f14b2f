package service

import (
	"context"
	"sync"
	"time"

	"salespipe_backend/platform/apperr"

	"github.com/google/uuid"
)

// defaultLockWait bounds how long a caller waits for another in-flight
// transition on the same lead before giving up with a conflict.
const defaultLockWait = 2 * time.Second

type leadLock struct {
	sem  chan struct{}
	refs int
}

// leadLocks serializes transitions per lead id. Different leads never
// contend; a second transition on the same lead waits up to maxWait and then
// fails with a retryable conflict instead of queueing indefinitely.
type leadLocks struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]*leadLock
	maxWait time.Duration
}

func newLeadLocks(maxWait time.Duration) *leadLocks {
	if maxWait <= 0 {
		maxWait = defaultLockWait
	}
	return &leadLocks{
		locks:   make(map[uuid.UUID]*leadLock),
		maxWait: maxWait,
	}
}

// acquire takes the per-lead lock, waiting at most maxWait. On success the
// returned release function must be called exactly once.
func (l *leadLocks) acquire(ctx context.Context, leadID uuid.UUID) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[leadID]
	if !ok {
		lock = &leadLock{sem: make(chan struct{}, 1)}
		l.locks[leadID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case lock.sem <- struct{}{}:
		return func() {
			<-lock.sem
			l.release(leadID, lock)
		}, nil
	case <-timer.C:
		l.release(leadID, lock)
		return nil, apperr.Conflict("another update to this lead is in progress, retry shortly")
	case <-ctx.Done():
		l.release(leadID, lock)
		return nil, apperr.Wrap(apperr.KindConflict, "request cancelled while waiting for lead lock", ctx.Err())
	}
}

// release drops a reference and evicts the entry once nobody holds or waits
// for it, so the map does not grow with every lead ever touched.
func (l *leadLocks) release(leadID uuid.UUID, lock *leadLock) {
	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, leadID)
	}
	l.mu.Unlock()
}
