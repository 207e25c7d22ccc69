package session

import (
	"context"

	"github.com/clientgate/clientgate/pkg/kernel"
)

// Store persists session records.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	// Find returns ErrNotFound when no record exists for the ID.
	Find(ctx context.Context, id kernel.SessionID) (*Session, error)
	Delete(ctx context.Context, id kernel.SessionID) error
}

// RemoteRevoker propagates a logout to the surrounding application's
// sign-in layer. Failures are the caller's to tolerate; local revocation
// never waits on them.
type RemoteRevoker interface {
	SignOut(ctx context.Context, customerID kernel.CustomerID) error
}
