// Package guard decides whether a request reaches the portal. Two identity
// sources feed it: the portal's own session and the surrounding
// application's primary sign-in. Either one is enough.
package guard

import (
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/session"
)

// AccessState is the outcome of a guard decision.
type AccessState string

const (
	// StateLoading means at least one identity source has not settled yet.
	// Callers must treat it as "not yet", never as a denial.
	StateLoading AccessState = "loading"
	// StateUnauthorized means every source settled and none authorized.
	StateUnauthorized AccessState = "unauthorized"
	// StateAuthorized means some settled source vouched for the customer.
	StateAuthorized AccessState = "authorized"
)

// SessionSignal is what the session source reports.
type SessionSignal struct {
	Settled    bool
	State      session.State
	CustomerID kernel.CustomerID
	Email      string
	Name       string
}

// PrimarySignal is what the primary sign-in source reports.
type PrimarySignal struct {
	Settled    bool
	Present    bool
	Role       string
	CustomerID kernel.CustomerID
	Email      string
	Name       string
}

// Result is the guard's verdict plus, when authorized, the identity that
// carried it.
type Result struct {
	State      AccessState
	Source     kernel.IdentitySource
	CustomerID kernel.CustomerID
	Email      string
	Name       string
	Reason     string
}

// Decide combines the two sources. Nothing is decided until both have
// settled at least once; an authorized view must never flash while a source
// is still resolving. Once settled, either source is enough: a valid session
// authorizes, and a customer-role primary identity authorizes even when the
// session is gone. Only when both settle without authorizing does the
// verdict become Unauthorized. An expired session never authorizes; it only
// means this source said no.
func Decide(sess SessionSignal, primary PrimarySignal) Result {
	if !sess.Settled || !primary.Settled {
		return Result{State: StateLoading, Reason: "identity sources still resolving"}
	}

	if sess.State == session.StateValid {
		return Result{
			State:      StateAuthorized,
			Source:     kernel.SourceSession,
			CustomerID: sess.CustomerID,
			Email:      sess.Email,
			Name:       sess.Name,
		}
	}

	if primary.Present && primary.Role == kernel.RoleCustomer {
		return Result{
			State:      StateAuthorized,
			Source:     kernel.SourcePrimary,
			CustomerID: primary.CustomerID,
			Email:      primary.Email,
			Name:       primary.Name,
		}
	}

	reason := "no identity"
	switch {
	case sess.State == session.StateExpired:
		reason = "session expired"
	case primary.Present && primary.Role != kernel.RoleCustomer:
		reason = "primary identity lacks customer role"
	}

	return Result{State: StateUnauthorized, Reason: reason}
}
