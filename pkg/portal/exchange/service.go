package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/directory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audiences. An exchange token can never be replayed as an access token and
// a primary-app token can never pass for a portal credential.
const (
	AudienceExchange = "clientgate-exchange"
	AudienceAPI      = "clientgate-api"
	AudienceApp      = "clientgate-app"
)

// Service mints and redeems JWTs for the portal: one-shot exchange tokens,
// durable access tokens, and validation of primary-app tokens.
type Service struct {
	secretKey   []byte
	issuer      string
	exchangeTTL time.Duration
	accessTTL   time.Duration

	redemptions RedemptionStore
	dir         directory.Store

	now func() time.Time
}

// NewService creates the token exchange service.
func NewService(secretKey, issuer string, exchangeTTL, accessTTL time.Duration, redemptions RedemptionStore, dir directory.Store) *Service {
	if exchangeTTL == 0 {
		exchangeTTL = 5 * time.Minute
	}
	if accessTTL == 0 {
		accessTTL = 12 * time.Hour
	}
	if issuer == "" {
		issuer = "clientgate"
	}

	return &Service{
		secretKey:   []byte(secretKey),
		issuer:      issuer,
		exchangeTTL: exchangeTTL,
		accessTTL:   accessTTL,
		redemptions: redemptions,
		dir:         dir,
		now:         time.Now,
	}
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ExchangeTTL returns the lifetime of exchange tokens.
func (s *Service) ExchangeTTL() time.Duration { return s.exchangeTTL }

type exchangeClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type accessClaims struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	SessionID  string `json:"sid"`
	jwt.RegisteredClaims
}

// IssueExchangeToken mints a short-lived, single-use token binding a
// verified email to a session hint.
func (s *Service) IssueExchangeToken(ctx context.Context, email string, sessionHint kernel.SessionID) (string, error) {
	now := s.now()
	jti := uuid.NewString()

	claims := exchangeClaims{
		SessionID: sessionHint.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   email,
			Audience:  []string{AudienceExchange},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.exchangeTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	if err := s.redemptions.Arm(ctx, jti, s.exchangeTTL); err != nil {
		return "", errx.Wrap(err, "failed to arm exchange token", errx.TypeExternal)
	}

	return signed, nil
}

// Exchange redeems an exchange token exactly once, resolving (or creating)
// the customer identity in the tenant directory and minting the durable
// access credential.
func (s *Service) Exchange(ctx context.Context, token string) (*Grant, error) {
	if token == "" {
		return nil, ErrExchangeFailed().WithDetail("reason", "missing token")
	}

	claims, err := s.parseExchangeToken(token)
	if err != nil {
		return nil, err
	}

	ok, err := s.redemptions.Redeem(ctx, claims.ID)
	if err != nil {
		// Fail closed: an unreachable redemption store can not prove the
		// token unused.
		return nil, ErrExchangeFailed().WithDetail("reason", "redemption check failed")
	}
	if !ok {
		return nil, ErrExchangeFailed().WithDetail("reason", "token already used")
	}

	email := claims.Subject
	sessionID := kernel.NewSessionID(claims.SessionID)

	customer, profile, err := s.resolveCustomer(ctx, email)
	if err != nil {
		return nil, err
	}

	identity := Identity{ID: customer.ID, Email: customer.Email, Name: customer.DisplayName()}

	accessToken, expiresAt, err := s.GenerateAccessToken(identity, sessionID)
	if err != nil {
		return nil, err
	}

	return &Grant{
		Identity:    identity,
		Profile:     profile,
		AccessToken: accessToken,
		SessionID:   sessionID,
		ExpiresAt:   expiresAt,
	}, nil
}

// resolveCustomer finds the directory record for a verified email, creating
// a minimal one on first sight. A freshly created identity has no profile.
func (s *Service) resolveCustomer(ctx context.Context, email string) (*directory.Customer, *directory.Customer, error) {
	customer, err := s.dir.FindCustomerByEmail(ctx, email)
	if err == nil {
		return customer, customer, nil
	}

	if !errx.IsCode(err, directory.CodeCustomerNotFound) {
		return nil, nil, ErrExchangeFailed().WithDetail("reason", "directory unavailable")
	}

	customer, err = s.dir.CreateCustomer(ctx, email)
	if err != nil {
		return nil, nil, ErrExchangeFailed().WithDetail("reason", "identity provisioning failed")
	}

	return customer, nil, nil
}

// GenerateAccessToken mints the durable portal credential.
func (s *Service) GenerateAccessToken(identity Identity, sessionID kernel.SessionID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	claims := accessClaims{
		CustomerID: identity.ID.String(),
		Email:      identity.Email,
		Name:       identity.Name,
		Role:       kernel.RoleCustomer,
		SessionID:  sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   identity.ID.String(),
			Audience:  []string{AudienceAPI},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	return signed, expiresAt, nil
}

// ValidateAccessToken validates a durable portal credential.
func (s *Service) ValidateAccessToken(token string) (*AccessClaims, error) {
	return s.validateWithAudience(token, AudienceAPI)
}

// ValidatePrimaryToken validates a credential minted by the surrounding
// application's primary sign-in. Same signing key, distinct audience; the
// role claim is whatever the application put there.
func (s *Service) ValidatePrimaryToken(token string) (*AccessClaims, error) {
	return s.validateWithAudience(token, AudienceApp)
}

func (s *Service) validateWithAudience(token, audience string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithAudience(audience), jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		return nil, ErrTokenValidationFailed().WithDetail("error", err.Error())
	}
	if !parsed.Valid {
		return nil, ErrTokenValidationFailed().WithDetail("error", "token is invalid")
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok {
		return nil, ErrTokenValidationFailed().WithDetail("error", "invalid claims type")
	}

	return &AccessClaims{
		CustomerID: kernel.NewCustomerID(claims.CustomerID),
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       claims.Role,
		SessionID:  kernel.NewSessionID(claims.SessionID),
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) parseExchangeToken(token string) (*exchangeClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &exchangeClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithAudience(AudienceExchange), jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		return nil, ErrExchangeFailed().WithDetail("reason", "invalid token")
	}

	claims, ok := parsed.Claims.(*exchangeClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, ErrExchangeFailed().WithDetail("reason", "invalid claims")
	}

	return claims, nil
}
