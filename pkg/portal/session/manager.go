package session

import (
	"context"
	"time"

	"github.com/clientgate/clientgate/pkg/asyncx"
	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/logx"
	"github.com/google/uuid"
)

// Manager owns the session lifecycle. All state transitions go through it;
// callers never touch the store directly.
type Manager struct {
	store   Store
	revoker RemoteRevoker
	ttl     time.Duration

	now func() time.Time
}

// NewManager creates a session manager. revoker may be nil when no remote
// sign-in layer exists.
func NewManager(store Store, revoker RemoteRevoker, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:   store,
		revoker: revoker,
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the manager clock. Test hook.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// TTL returns the inactivity window.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Open starts a session for an authenticated customer. When id is empty a
// fresh one is minted; passing the hint from the exchange flow keeps the ID
// stable across the login handshake.
func (m *Manager) Open(ctx context.Context, id kernel.SessionID, customerID kernel.CustomerID, email string) (*Session, error) {
	if id.IsEmpty() {
		id = kernel.NewSessionID(uuid.NewString())
	}

	now := m.now()
	sess := &Session{
		ID:             id,
		CustomerID:     customerID,
		Email:          email,
		IssuedAt:       now,
		LastActivityAt: now,
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, errx.Wrap(err, "failed to persist session", errx.TypeExternal)
	}

	return sess, nil
}

// Validate reports the current state of a session. Expiry is decided here,
// from timestamps, at read time. The record is left in place so that every
// later call keeps answering Expired rather than flapping to None. A store
// failure answers Expired: an unverifiable session is not a valid one.
func (m *Manager) Validate(ctx context.Context, id kernel.SessionID) (State, *Session, error) {
	if id.IsEmpty() {
		return StateNone, nil, nil
	}

	sess, err := m.store.Find(ctx, id)
	if err != nil {
		if errx.IsCode(err, CodeNotFound) {
			return StateNone, nil, nil
		}
		logx.WithError(err).Warn("session store unreachable, failing closed")
		return StateExpired, nil, nil
	}

	state := sess.StateAt(m.now(), m.ttl)
	if state != StateValid {
		return state, nil, nil
	}
	return StateValid, sess, nil
}

// Extend restarts the inactivity window. Extending a missing or already
// expired session is a no-op; it never resurrects one.
func (m *Manager) Extend(ctx context.Context, id kernel.SessionID) error {
	state, sess, err := m.Validate(ctx, id)
	if err != nil {
		return err
	}
	if state != StateValid {
		return nil
	}

	sess.Touch(m.now())
	if err := m.store.Save(ctx, sess); err != nil {
		return errx.Wrap(err, "failed to extend session", errx.TypeExternal)
	}
	return nil
}

// Revoke ends a session. Local teardown always succeeds from the caller's
// point of view; the remote sign-out runs in the background and its failure
// is only logged.
func (m *Manager) Revoke(ctx context.Context, id kernel.SessionID) error {
	if id.IsEmpty() {
		return nil
	}

	sess, err := m.store.Find(ctx, id)
	if err != nil {
		// Nothing to tear down.
		return nil
	}

	if err := m.store.Delete(ctx, id); err != nil {
		logx.WithError(err).WithField("session_id", id.String()).Warn("failed to delete session record")
	}

	if m.revoker != nil {
		customerID := sess.CustomerID
		asyncx.Do(func() {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.revoker.SignOut(sctx, customerID); err != nil {
				logx.WithError(err).WithField("customer_id", customerID.String()).Warn("remote sign-out failed")
			}
		})
	}

	return nil
}
