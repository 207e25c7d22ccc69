package challengesrv

import (
	"context"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/logx"
	"github.com/clientgate/clientgate/pkg/portal/challenge"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TokenIssuer mints the one-shot exchange token handed back after a
// successful verification.
type TokenIssuer interface {
	IssueExchangeToken(ctx context.Context, email string, sessionHint kernel.SessionID) (string, error)
}

// Auditor records security-relevant events around the challenge flow.
type Auditor interface {
	LogChallengeIssued(ctx context.Context, email string)
	LogChallengeVerification(ctx context.Context, email string, success bool)
}

// Options tunes the challenge flow. Zero values fall back to the domain
// defaults.
type Options struct {
	TTL            time.Duration
	CodeLength     int
	MaxAttempts    int
	ResendThrottle time.Duration
}

// Service implements the OTP challenge protocol: issue a code to an email,
// verify it, and hand back an exchange token.
type Service struct {
	repo     challenge.Repository
	notifier challenge.Notifier
	issuer   TokenIssuer
	audit    Auditor
	opts     Options

	validate *validator.Validate

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates the challenge service.
func NewService(repo challenge.Repository, notifier challenge.Notifier, issuer TokenIssuer, audit Auditor, opts Options) *Service {
	if opts.TTL == 0 {
		opts.TTL = challenge.DefaultTTL
	}
	if opts.CodeLength == 0 {
		opts.CodeLength = challenge.DefaultCodeLength
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = challenge.DefaultMaxAttempts
	}
	if opts.ResendThrottle == 0 {
		opts.ResendThrottle = time.Minute
	}

	return &Service{
		repo:     repo,
		notifier: notifier,
		issuer:   issuer,
		audit:    audit,
		opts:     opts,
		validate: validator.New(),
		now:      time.Now,
	}
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// RequestChallenge issues a login code for the email and hands it to the
// delivery channel. Any prior active challenge for the same email is
// superseded. The response never reveals whether the email belongs to a
// known customer.
func (s *Service) RequestChallenge(ctx context.Context, email string) (*challenge.Challenge, error) {
	email = challenge.NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, challenge.ErrInvalidInput().WithDetail("field", "email")
	}

	now := s.now()

	// Reissue throttle: one code per email per throttle window.
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		if !existing.IsConsumed() && now.Sub(existing.IssuedAt) < s.opts.ResendThrottle {
			return nil, challenge.ErrTooManyRequests().
				WithDetail("retry_after_seconds", int(s.opts.ResendThrottle.Seconds()))
		}
	}

	code, err := challenge.GenerateCode(s.opts.CodeLength)
	if err != nil {
		return nil, errx.Wrap(err, "failed to generate login code", errx.TypeInternal)
	}

	hash, err := challenge.HashCode(code)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash login code", errx.TypeInternal)
	}

	ch := &challenge.Challenge{
		ID:          uuid.NewString(),
		Email:       email,
		CodeHash:    hash,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.opts.TTL),
		Attempts:    0,
		MaxAttempts: s.opts.MaxAttempts,
	}

	// Save first: a delivered code must always be verifiable. Saving under
	// the email key supersedes any previous challenge.
	if err := s.repo.Save(ctx, ch); err != nil {
		return nil, errx.Wrap(err, "failed to save challenge", errx.TypeInternal)
	}

	if err := s.notifier.SendCode(ctx, email, code, ch.ExpiresAt); err != nil {
		logx.WithError(err).WithField("email", email).Error("challenge: code delivery handoff failed")
		return nil, challenge.ErrDeliveryFailed()
	}

	if s.audit != nil {
		s.audit.LogChallengeIssued(ctx, email)
	}

	return ch, nil
}

// Verified is the outcome of a successful verification.
type Verified struct {
	ExchangeToken string           `json:"exchange_token"`
	SessionHint   kernel.SessionID `json:"session_hint"`
}

// VerifyChallenge checks a submitted code against the active challenge for
// the email. On success the challenge is consumed (one-time use) and an
// exchange token plus session hint are returned. Every failure leaves
// identity and session state untouched.
func (s *Service) VerifyChallenge(ctx context.Context, email, code string) (*Verified, error) {
	email = challenge.NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, challenge.ErrInvalidInput().WithDetail("field", "email")
	}
	if !challenge.ValidCodeFormat(code, s.opts.CodeLength) {
		return nil, challenge.ErrInvalidInput().WithDetail("field", "code")
	}

	ch, err := s.repo.GetByEmail(ctx, email)
	if err != nil || ch == nil {
		s.auditVerification(ctx, email, false)
		return nil, challenge.ErrChallengeNotFound()
	}

	now := s.now()

	if ch.IsExpired(now) {
		s.auditVerification(ctx, email, false)
		return nil, challenge.ErrChallengeExpired()
	}
	if ch.IsConsumed() {
		s.auditVerification(ctx, email, false)
		return nil, challenge.ErrChallengeConsumed()
	}
	if ch.Attempts >= ch.MaxAttempts {
		s.auditVerification(ctx, email, false)
		return nil, challenge.ErrTooManyAttempts()
	}

	ch.Attempts++

	if !ch.MatchCode(code) {
		if err := s.repo.Update(ctx, ch); err != nil {
			return nil, errx.Wrap(err, "failed to record attempt", errx.TypeInternal)
		}
		s.auditVerification(ctx, email, false)
		return nil, challenge.ErrChallengeMismatch().
			WithDetail("attempts_remaining", ch.MaxAttempts-ch.Attempts)
	}

	if err := ch.Consume(now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, ch); err != nil {
		return nil, errx.Wrap(err, "failed to consume challenge", errx.TypeInternal)
	}

	hint := kernel.NewSessionID(uuid.NewString())
	token, err := s.issuer.IssueExchangeToken(ctx, email, hint)
	if err != nil {
		return nil, errx.Wrap(err, "failed to issue exchange token", errx.TypeInternal)
	}

	s.auditVerification(ctx, email, true)

	return &Verified{ExchangeToken: token, SessionHint: hint}, nil
}

func (s *Service) auditVerification(ctx context.Context, email string, success bool) {
	if s.audit != nil {
		s.audit.LogChallengeVerification(ctx, email, success)
	}
}
