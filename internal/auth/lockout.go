package auth

import (
	"time"

	"github.com/nutricare/server/internal/model"
)

const (
	maxFailedLogins = 5
	failureWindow   = 15 * time.Minute
	lockDuration    = 15 * time.Minute
)

// releaseExpiredLock clears the counters once a lock has run out. It reports
// whether the lockout changed.
func releaseExpiredLock(l *model.Lockout, now time.Time) bool {
	if l.LockedUntil == nil || l.LockedUntil.After(now) {
		return false
	}
	*l = model.Lockout{}
	return true
}

// recordFailure counts a wrong password. Failures older than the window start
// a fresh count; the fifth failure inside the window locks the account.
func recordFailure(l *model.Lockout, now time.Time) {
	if l.LastFailedAt != nil && now.Sub(*l.LastFailedAt) > failureWindow {
		l.FailedCount = 0
	}
	l.FailedCount++
	l.LastFailedAt = &now
	if l.FailedCount >= maxFailedLogins {
		until := now.Add(lockDuration)
		l.LockedUntil = &until
	}
}

// resetLockout clears the counters after a successful password check. It
// reports whether anything was cleared.
func resetLockout(l *model.Lockout) bool {
	if l.FailedCount == 0 && l.LastFailedAt == nil && l.LockedUntil == nil {
		return false
	}
	*l = model.Lockout{}
	return true
}
