package portalapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/audit"
	"github.com/clientgate/clientgate/pkg/portal/challenge"
	"github.com/clientgate/clientgate/pkg/portal/challenge/challengesrv"
	"github.com/clientgate/clientgate/pkg/portal/directory"
	"github.com/clientgate/clientgate/pkg/portal/exchange"
	"github.com/clientgate/clientgate/pkg/portal/membership"
	"github.com/clientgate/clientgate/pkg/portal/portalapi"
	"github.com/clientgate/clientgate/pkg/portal/session"
	"github.com/gofiber/fiber/v2"
)

// --- fakes ---

type fakeRepo struct {
	byEmail map[string]*challenge.Challenge
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: make(map[string]*challenge.Challenge)}
}

func (r *fakeRepo) Save(_ context.Context, ch *challenge.Challenge) error {
	cp := *ch
	r.byEmail[ch.Email] = &cp
	return nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*challenge.Challenge, error) {
	ch, ok := r.byEmail[email]
	if !ok {
		return nil, challenge.ErrChallengeNotFound()
	}
	cp := *ch
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, ch *challenge.Challenge) error {
	cp := *ch
	r.byEmail[ch.Email] = &cp
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, email string) error {
	delete(r.byEmail, email)
	return nil
}

type fakeNotifier struct {
	lastCode string
}

func (n *fakeNotifier) SendCode(_ context.Context, _, code string, _ time.Time) error {
	n.lastCode = code
	return nil
}

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

type fixture struct {
	app      *fiber.App
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := newMemDirectory()
	tokens := exchange.NewService("test-secret", "clientgate-test",
		5*time.Minute, 12*time.Hour, newMemRedemptions(), dir)

	notifier := &fakeNotifier{}
	challenges := challengesrv.NewService(newFakeRepo(), notifier, tokens, nil, challengesrv.Options{})

	sessions := session.NewManager(session.NewMemoryStore(), nil, session.DefaultTTL)
	members := membership.NewResolver(dir, membership.NewMemorySelectionStore())

	h := portalapi.NewHandlers(challenges, tokens, sessions, members, dir, audit.NewLogxAuditService())

	app := fiber.New()
	auth := app.Group("/portal/auth")
	auth.Post("/challenge", h.RequestChallenge)
	auth.Post("/verify", h.VerifyChallenge)

	return &fixture{app: app, notifier: notifier}
}

func (f *fixture) post(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

// --- tests ---

func TestVerifyEndpoint_ReturnsExchangeTokenAndSessionHint(t *testing.T) {
	f := newFixture(t)

	status, _ := f.post(t, "/portal/auth/challenge", fiber.Map{"email": "jane@example.com"})
	if status != fiber.StatusOK {
		t.Fatalf("challenge request status = %d", status)
	}
	if f.notifier.lastCode == "" {
		t.Fatal("no code was delivered")
	}

	status, body := f.post(t, "/portal/auth/verify", fiber.Map{
		"email": "jane@example.com",
		"code":  f.notifier.lastCode,
	})
	if status != fiber.StatusOK {
		t.Fatalf("verify status = %d (body %v)", status, body)
	}

	token, _ := body["exchange_token"].(string)
	if token == "" {
		t.Error("response carries no exchange token")
	}
	hint, _ := body["session_hint"].(string)
	if hint == "" {
		t.Error("response carries no session hint")
	}
	if secs, _ := body["expires_in_seconds"].(float64); secs != 300 {
		t.Errorf("expires_in_seconds = %v, want 300", secs)
	}
}
