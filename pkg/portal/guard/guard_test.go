package guard_test

import (
	"testing"

	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/guard"
	"github.com/clientgate/clientgate/pkg/portal/session"
)

func validSession() guard.SessionSignal {
	return guard.SessionSignal{
		Settled:    true,
		State:      session.StateValid,
		CustomerID: "cust-1",
		Email:      "jane@example.com",
	}
}

func customerPrimary() guard.PrimarySignal {
	return guard.PrimarySignal{
		Settled:    true,
		Present:    true,
		Role:       kernel.RoleCustomer,
		CustomerID: "cust-1",
		Email:      "jane@example.com",
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		sess    guard.SessionSignal
		primary guard.PrimarySignal
		want    guard.AccessState
		source  kernel.IdentitySource
	}{
		{
			name:    "both unsettled",
			sess:    guard.SessionSignal{},
			primary: guard.PrimarySignal{},
			want:    guard.StateLoading,
		},
		{
			name:    "session settled absent, primary unsettled",
			sess:    guard.SessionSignal{Settled: true, State: session.StateNone},
			primary: guard.PrimarySignal{},
			want:    guard.StateLoading,
		},
		{
			name:    "valid session stays loading until primary settles",
			sess:    validSession(),
			primary: guard.PrimarySignal{},
			want:    guard.StateLoading,
		},
		{
			name:    "customer primary stays loading until session settles",
			sess:    guard.SessionSignal{},
			primary: customerPrimary(),
			want:    guard.StateLoading,
		},
		{
			name:    "either source alone is enough",
			sess:    guard.SessionSignal{Settled: true, State: session.StateNone},
			primary: customerPrimary(),
			want:    guard.StateAuthorized,
			source:  kernel.SourcePrimary,
		},
		{
			name:    "session wins when both authorize",
			sess:    validSession(),
			primary: customerPrimary(),
			want:    guard.StateAuthorized,
			source:  kernel.SourceSession,
		},
		{
			name:    "expired session with no primary",
			sess:    guard.SessionSignal{Settled: true, State: session.StateExpired},
			primary: guard.PrimarySignal{Settled: true},
			want:    guard.StateUnauthorized,
		},
		{
			name:    "expired session but customer primary rescues",
			sess:    guard.SessionSignal{Settled: true, State: session.StateExpired},
			primary: customerPrimary(),
			want:    guard.StateAuthorized,
			source:  kernel.SourcePrimary,
		},
		{
			name: "primary with wrong role never authorizes",
			sess: guard.SessionSignal{Settled: true, State: session.StateNone},
			primary: guard.PrimarySignal{
				Settled: true, Present: true, Role: "admin", CustomerID: "emp-1",
			},
			want: guard.StateUnauthorized,
		},
		{
			name: "expired session and non-customer primary",
			sess: guard.SessionSignal{Settled: true, State: session.StateExpired},
			primary: guard.PrimarySignal{
				Settled: true, Present: true, Role: "staff", CustomerID: "emp-1",
			},
			want: guard.StateUnauthorized,
		},
		{
			name:    "nothing at all",
			sess:    guard.SessionSignal{Settled: true, State: session.StateNone},
			primary: guard.PrimarySignal{Settled: true},
			want:    guard.StateUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.Decide(tt.sess, tt.primary)
			if got.State != tt.want {
				t.Fatalf("state = %v, want %v (reason: %s)", got.State, tt.want, got.Reason)
			}
			if tt.want == guard.StateAuthorized {
				if got.Source != tt.source {
					t.Errorf("source = %v, want %v", got.Source, tt.source)
				}
				if got.CustomerID.IsEmpty() {
					t.Error("authorized result carries no identity")
				}
			}
		})
	}
}

// An authorized view must never flash while a source is still resolving,
// no matter how strong the settled source looks.
func TestDecide_NeverAuthorizesBeforeBothSettle(t *testing.T) {
	cases := []struct {
		name    string
		sess    guard.SessionSignal
		primary guard.PrimarySignal
	}{
		{"valid session, primary unsettled", validSession(), guard.PrimarySignal{}},
		{"customer primary, session unsettled", guard.SessionSignal{}, customerPrimary()},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.Decide(tt.sess, tt.primary)
			if got.State != guard.StateLoading {
				t.Fatalf("state = %v, want %v", got.State, guard.StateLoading)
			}
			if !got.CustomerID.IsEmpty() {
				t.Errorf("loading result leaked an identity: %s", got.CustomerID)
			}
		})
	}
}

func TestDecide_IsPure(t *testing.T) {
	sess := validSession()
	primary := customerPrimary()

	first := guard.Decide(sess, primary)
	for i := 0; i < 5; i++ {
		if got := guard.Decide(sess, primary); got != first {
			t.Fatalf("decision changed between calls: %+v vs %+v", got, first)
		}
	}
}
