package challengesrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/challenge"
	"github.com/clientgate/clientgate/pkg/portal/challenge/challengesrv"
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
	lastEmail string
	lastCode  string
	sent      int
}

func (n *fakeNotifier) SendCode(_ context.Context, email, code string, _ time.Time) error {
	n.lastEmail = email
	n.lastCode = code
	n.sent++
	return nil
}

type fakeIssuer struct {
	issued int
}

func (i *fakeIssuer) IssueExchangeToken(_ context.Context, email string, _ kernel.SessionID) (string, error) {
	i.issued++
	return "exchange-token-for-" + email, nil
}

type fixture struct {
	svc      *challengesrv.Service
	repo     *fakeRepo
	notifier *fakeNotifier
	issuer   *fakeIssuer
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		notifier: &fakeNotifier{},
		issuer:   &fakeIssuer{},
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = challengesrv.NewService(f.repo, f.notifier, f.issuer, nil, challengesrv.Options{})
	f.svc.SetClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

// --- RequestChallenge ---

func TestRequestChallenge_IssuesAndDelivers(t *testing.T) {
	f := newFixture(t)

	ch, err := f.svc.RequestChallenge(context.Background(), "Jane@Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ch.Email != "jane@example.com" {
		t.Errorf("email not normalized: %q", ch.Email)
	}
	if f.notifier.lastEmail != "jane@example.com" {
		t.Errorf("code delivered to %q", f.notifier.lastEmail)
	}
	if len(f.notifier.lastCode) != challenge.DefaultCodeLength {
		t.Errorf("expected %d-digit code, got %q", challenge.DefaultCodeLength, f.notifier.lastCode)
	}
	if !ch.ExpiresAt.Equal(f.clock.Add(challenge.DefaultTTL)) {
		t.Errorf("unexpected expiry %v", ch.ExpiresAt)
	}
	if ch.CodeHash == f.notifier.lastCode {
		t.Error("code stored in clear")
	}
}

func TestRequestChallenge_InvalidEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RequestChallenge(context.Background(), "not-an-email")
	if !errx.IsCode(err, challenge.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRequestChallenge_ResendThrottle(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.RequestChallenge(context.Background(), "jane@example.com"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	_, err := f.svc.RequestChallenge(context.Background(), "jane@example.com")
	if !errx.IsCode(err, challenge.CodeTooManyRequests) {
		t.Fatalf("expected throttle, got %v", err)
	}

	f.advance(61 * time.Second)
	if _, err := f.svc.RequestChallenge(context.Background(), "jane@example.com"); err != nil {
		t.Fatalf("request after throttle window failed: %v", err)
	}
	if f.notifier.sent != 2 {
		t.Errorf("expected 2 deliveries, got %d", f.notifier.sent)
	}
}

func TestRequestChallenge_SupersedesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestChallenge(ctx, "jane@example.com"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	oldCode := f.notifier.lastCode

	f.advance(2 * time.Minute)
	if _, err := f.svc.RequestChallenge(ctx, "jane@example.com"); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	newCode := f.notifier.lastCode

	if oldCode != newCode {
		if _, err := f.svc.VerifyChallenge(ctx, "jane@example.com", oldCode); !errx.IsCode(err, challenge.CodeMismatch) {
			t.Fatalf("superseded code should mismatch, got %v", err)
		}
	}

	if _, err := f.svc.VerifyChallenge(ctx, "jane@example.com", newCode); err != nil {
		t.Fatalf("current code rejected: %v", err)
	}
}

// --- VerifyChallenge ---

func TestVerifyChallenge_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestChallenge(ctx, "jane@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	v, err := f.svc.VerifyChallenge(ctx, "jane@example.com", f.notifier.lastCode)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if v.ExchangeToken == "" {
		t.Error("expected exchange token")
	}
	if v.SessionHint.IsEmpty() {
		t.Error("expected session hint")
	}
	if f.issuer.issued != 1 {
		t.Errorf("expected 1 issued token, got %d", f.issuer.issued)
	}
}

func TestVerifyChallenge_ConsumeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestChallenge(ctx, "jane@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := f.notifier.lastCode

	if _, err := f.svc.VerifyChallenge(ctx, "jane@example.com", code); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	_, err := f.svc.VerifyChallenge(ctx, "jane@example.com", code)
	if !errx.IsCode(err, challenge.CodeConsumed) {
		t.Fatalf("expected consumed, got %v", err)
	}
}

func TestVerifyChallenge_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestChallenge(ctx, "jane@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := f.notifier.lastCode

	f.advance(11 * time.Minute)

	_, err := f.svc.VerifyChallenge(ctx, "jane@example.com", code)
	if !errx.IsCode(err, challenge.CodeExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestVerifyChallenge_AttemptsExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestChallenge(ctx, "jane@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := f.notifier.lastCode

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < challenge.DefaultMaxAttempts; i++ {
		_, err := f.svc.VerifyChallenge(ctx, "jane@example.com", wrong)
		if !errx.IsCode(err, challenge.CodeMismatch) {
			t.Fatalf("attempt %d: expected mismatch, got %v", i+1, err)
		}
	}

	// Even the right code is refused once the budget is spent.
	_, err := f.svc.VerifyChallenge(ctx, "jane@example.com", code)
	if !errx.IsCode(err, challenge.CodeTooManyAttempts) {
		t.Fatalf("expected too many attempts, got %v", err)
	}
}

func TestVerifyChallenge_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.VerifyChallenge(context.Background(), "nobody@example.com", "123456")
	if !errx.IsCode(err, challenge.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVerifyChallenge_BadCodeFormat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RequestChallenge(ctx, "jane@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	for _, code := range []string{"", "12345", "1234567", "12345a", "abcdef"} {
		_, err := f.svc.VerifyChallenge(ctx, "jane@example.com", code)
		if !errx.IsCode(err, challenge.CodeInvalidInput) {
			t.Errorf("code %q: expected invalid input, got %v", code, err)
		}
	}
}
