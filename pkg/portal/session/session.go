package session

import (
	"time"

	"github.com/clientgate/clientgate/pkg/kernel"
)

// State is the observable lifecycle state of a portal session.
type State string

const (
	// StateNone means no session record exists.
	StateNone State = "none"
	// StateValid means the session exists and its inactivity window is open.
	StateValid State = "valid"
	// StateExpired means the session exists but its inactivity window has
	// closed, or it was revoked. Expiry is decided lazily at read time;
	// nothing sweeps sessions in the background.
	StateExpired State = "expired"
)

// DefaultTTL is the inactivity window. Any activity restarts it.
const DefaultTTL = 30 * time.Minute

// Session is a live portal login. The record is the single local source of
// truth for session state; timestamps decide expiry, never a stored flag.
type Session struct {
	ID             kernel.SessionID  `json:"id"`
	CustomerID     kernel.CustomerID `json:"customer_id"`
	Email          string            `json:"email"`
	IssuedAt       time.Time         `json:"issued_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	Revoked        bool              `json:"revoked"`
}

// StateAt computes the session state at a point in time. The computation is
// pure, so repeated calls after expiry keep answering Expired.
func (s *Session) StateAt(now time.Time, ttl time.Duration) State {
	if s == nil {
		return StateNone
	}
	if s.Revoked {
		return StateExpired
	}
	if now.Sub(s.LastActivityAt) >= ttl {
		return StateExpired
	}
	return StateValid
}

// Touch records activity, restarting the inactivity window.
func (s *Session) Touch(now time.Time) {
	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
}
