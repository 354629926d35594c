package auth

import "time"

// DefaultIdleTimeout is the sliding session lifetime.
const DefaultIdleTimeout = 15 * time.Minute

// SessionToken is the single live session. Only Value ever leaves the
// process.
type SessionToken struct {
	Value    string
	IssuedAt time.Time
	LastSeen time.Time
}

func newSessionToken(now time.Time) *SessionToken {
	return &SessionToken{
		Value:    GenerateToken(),
		IssuedAt: now,
		LastSeen: now,
	}
}

// IsExpired reports whether idle or more has passed since LastSeen.
// A clock that has gone backwards counts as not expired.
func (s *SessionToken) IsExpired(now time.Time, idle time.Duration) bool {
	elapsed := now.Sub(s.LastSeen)
	if elapsed < 0 {
		return false
	}
	return elapsed >= idle
}

// Touch restarts the idle clock. Call only after the token has been
// validated.
func (s *SessionToken) Touch(now time.Time) {
	s.LastSeen = now
}
