package exchange

import (
	"net/http"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/directory"
)

// ============================================================================
// Claims & Grant Types
// ============================================================================

// AccessClaims are the decoded claims of a durable portal credential.
type AccessClaims struct {
	CustomerID kernel.CustomerID `json:"customer_id"`
	Email      string            `json:"email"`
	Name       string            `json:"name"`
	Role       string            `json:"role"`
	SessionID  kernel.SessionID  `json:"session_id"`
	IssuedAt   time.Time         `json:"iat"`
	ExpiresAt  time.Time         `json:"exp"`
}

// Identity is the authenticated principal produced by a successful exchange.
// It exists even when the directory holds no profile yet.
type Identity struct {
	ID    kernel.CustomerID `json:"id"`
	Email string            `json:"email"`
	Name  string            `json:"name"`
}

// Grant is the outcome of redeeming an exchange token: a durable credential
// plus the resolved identity. Profile is nil for a first-time customer the
// directory knows nothing about yet; that is not an error.
type Grant struct {
	Identity    Identity            `json:"identity"`
	Profile     *directory.Customer `json:"profile,omitempty"`
	AccessToken string              `json:"access_token"`
	SessionID   kernel.SessionID    `json:"session_id"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("EXCHANGE")

var (
	CodeExchangeFailed        = ErrRegistry.Register("FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Exchange token is missing, used or invalid")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeTokenValidationFailed = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Token validation failed")
)

func ErrExchangeFailed() *errx.Error        { return ErrRegistry.New(CodeExchangeFailed) }
func ErrTokenGenerationFailed() *errx.Error { return ErrRegistry.New(CodeTokenGenerationFailed) }
func ErrTokenValidationFailed() *errx.Error { return ErrRegistry.New(CodeTokenValidationFailed) }
