package gate

import (
	"time"

	"checkout-arbiter/internal/session"
)

// RedirectLock suppresses duplicate top-level navigations for TTL.
// It is cooperative: the lock is a timestamp in the session and simply
// stops being honored once it expires.
type RedirectLock struct {
	TTL time.Duration
}

// Held reports whether a lock taken earlier is still in its window.
func (l RedirectLock) Held(sc session.Context, now time.Time) bool {
	return !sc.LockUntil.IsZero() && now.Before(sc.LockUntil)
}

// TryAcquire takes the lock unless it is held.
func (l RedirectLock) TryAcquire(sc *session.Context, now time.Time) bool {
	if l.Held(*sc, now) {
		return false
	}
	sc.LockUntil = now.Add(l.TTL)
	return true
}
