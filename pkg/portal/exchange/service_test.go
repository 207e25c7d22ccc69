package exchange_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/directory"
	"github.com/clientgate/clientgate/pkg/portal/exchange"
)

// --- fakes ---

type memRedemptions struct {
	mu    sync.Mutex
	armed map[string]bool
}

func newMemRedemptions() *memRedemptions {
	return &memRedemptions{armed: make(map[string]bool)}
}

func (s *memRedemptions) Arm(_ context.Context, jti string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed[jti] = true
	return nil
}

func (s *memRedemptions) Redeem(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed[jti] {
		return false, nil
	}
	delete(s.armed, jti)
	return true, nil
}

type memDirectory struct {
	byEmail map[string]*directory.Customer
	created int
}

func newMemDirectory() *memDirectory {
	return &memDirectory{byEmail: make(map[string]*directory.Customer)}
}

func (d *memDirectory) FindCustomerByEmail(_ context.Context, email string) (*directory.Customer, error) {
	c, ok := d.byEmail[email]
	if !ok {
		return nil, directory.ErrCustomerNotFound()
	}
	return c, nil
}

func (d *memDirectory) FindCustomerByID(_ context.Context, id kernel.CustomerID) (*directory.Customer, error) {
	for _, c := range d.byEmail {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, directory.ErrCustomerNotFound()
}

func (d *memDirectory) CreateCustomer(_ context.Context, email string) (*directory.Customer, error) {
	d.created++
	c := &directory.Customer{ID: kernel.NewCustomerID("cust-" + email), Email: email}
	d.byEmail[email] = c
	return c, nil
}

func (d *memDirectory) UpdateProfile(context.Context, kernel.CustomerID, map[string]any) (*directory.Customer, error) {
	return nil, directory.ErrCustomerNotFound()
}

func (d *memDirectory) ListCompanies(context.Context, kernel.CustomerID) ([]directory.Company, error) {
	return nil, nil
}

func newService(dir directory.Store) *exchange.Service {
	return exchange.NewService("test-secret", "clientgate-test", 5*time.Minute, 12*time.Hour, newMemRedemptions(), dir)
}

// --- tests ---

func TestExchange_HappyPathForKnownCustomer(t *testing.T) {
	dir := newMemDirectory()
	dir.byEmail["jane@example.com"] = &directory.Customer{
		ID: "cust-1", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe",
	}
	svc := newService(dir)
	ctx := context.Background()

	token, err := svc.IssueExchangeToken(ctx, "jane@example.com", "hint-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	grant, err := svc.Exchange(ctx, token)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	if grant.Identity.ID != "cust-1" {
		t.Errorf("wrong identity %+v", grant.Identity)
	}
	if grant.Identity.Name != "Jane Doe" {
		t.Errorf("wrong name %q", grant.Identity.Name)
	}
	if grant.Profile == nil {
		t.Error("known customer should come with a profile")
	}
	if grant.SessionID != "hint-1" {
		t.Errorf("session hint lost, got %v", grant.SessionID)
	}
	if grant.AccessToken == "" {
		t.Fatal("no access token")
	}

	claims, err := svc.ValidateAccessToken(grant.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.CustomerID != "cust-1" || claims.Role != kernel.RoleCustomer || claims.SessionID != "hint-1" {
		t.Errorf("wrong claims %+v", claims)
	}
}

func TestExchange_ProvisionsFirstTimeCustomer(t *testing.T) {
	dir := newMemDirectory()
	svc := newService(dir)
	ctx := context.Background()

	token, err := svc.IssueExchangeToken(ctx, "new@example.com", "hint-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	grant, err := svc.Exchange(ctx, token)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	if dir.created != 1 {
		t.Errorf("expected 1 created customer, got %d", dir.created)
	}
	if grant.Profile != nil {
		t.Error("first-time customer must not carry a profile yet")
	}
	if grant.Identity.Email != "new@example.com" {
		t.Errorf("wrong identity %+v", grant.Identity)
	}
}

func TestExchange_TokenIsSingleUse(t *testing.T) {
	svc := newService(newMemDirectory())
	ctx := context.Background()

	token, err := svc.IssueExchangeToken(ctx, "jane@example.com", "hint-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := svc.Exchange(ctx, token); err != nil {
		t.Fatalf("first exchange failed: %v", err)
	}
	if _, err := svc.Exchange(ctx, token); err == nil {
		t.Fatal("second exchange of the same token succeeded")
	}
}

func TestExchange_RejectsGarbage(t *testing.T) {
	svc := newService(newMemDirectory())
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Exchange(ctx, token); err == nil {
			t.Errorf("token %q accepted", token)
		}
	}
}

func TestExchange_RejectsTampered(t *testing.T) {
	svc := newService(newMemDirectory())
	ctx := context.Background()

	token, err := svc.IssueExchangeToken(ctx, "jane@example.com", "hint-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	tampered := token[:len(token)-4] + "XXXX"
	if _, err := svc.Exchange(ctx, tampered); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestExchange_RejectsExpired(t *testing.T) {
	svc := newService(newMemDirectory())
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	token, err := svc.IssueExchangeToken(ctx, "jane@example.com", "hint-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	now = now.Add(6 * time.Minute)
	if _, err := svc.Exchange(ctx, token); err == nil {
		t.Fatal("expired exchange token accepted")
	}
}

func TestAccessTokenIsNotAnExchangeToken(t *testing.T) {
	dir := newMemDirectory()
	svc := newService(dir)
	ctx := context.Background()

	token, err := svc.IssueExchangeToken(ctx, "jane@example.com", "hint-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	grant, err := svc.Exchange(ctx, token)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	// The durable credential must not be redeemable.
	if _, err := svc.Exchange(ctx, grant.AccessToken); err == nil {
		t.Fatal("access token redeemed as exchange token")
	}
	// And the exchange token must not pass access validation.
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatal("exchange token validated as access token")
	}
}

func TestValidatePrimaryToken_DistinctAudience(t *testing.T) {
	svc := newService(newMemDirectory())

	identity := exchange.Identity{ID: "cust-1", Email: "jane@example.com", Name: "Jane"}
	access, _, err := svc.GenerateAccessToken(identity, "sess-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := svc.ValidatePrimaryToken(access); err == nil {
		t.Fatal("portal credential accepted as primary identity")
	}
	if !strings.Contains(access, ".") {
		t.Fatal("not a JWT")
	}
}
