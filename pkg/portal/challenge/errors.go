package challenge

import (
	"net/http"

	"github.com/clientgate/clientgate/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("CHALLENGE")

var (
	CodeInvalidInput    = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid email or code format")
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "No active login challenge for this email")
	CodeExpired         = ErrRegistry.Register("EXPIRED", errx.TypeValidation, http.StatusBadRequest, "Login code has expired")
	CodeMismatch        = ErrRegistry.Register("MISMATCH", errx.TypeValidation, http.StatusBadRequest, "Login code does not match")
	CodeConsumed        = ErrRegistry.Register("CONSUMED", errx.TypeBusiness, http.StatusBadRequest, "Login code has already been used")
	CodeTooManyAttempts = ErrRegistry.Register("TOO_MANY_ATTEMPTS", errx.TypeBusiness, http.StatusTooManyRequests, "Too many verification attempts")
	CodeTooManyRequests = ErrRegistry.Register("TOO_MANY_REQUESTS", errx.TypeBusiness, http.StatusTooManyRequests, "Too many code requests")
	CodeDeliveryFailed  = ErrRegistry.Register("DELIVERY_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to hand off login code for delivery")
)

func ErrInvalidInput() *errx.Error      { return ErrRegistry.New(CodeInvalidInput) }
func ErrChallengeNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }
func ErrChallengeExpired() *errx.Error  { return ErrRegistry.New(CodeExpired) }
func ErrChallengeMismatch() *errx.Error { return ErrRegistry.New(CodeMismatch) }
func ErrChallengeConsumed() *errx.Error { return ErrRegistry.New(CodeConsumed) }
func ErrTooManyAttempts() *errx.Error   { return ErrRegistry.New(CodeTooManyAttempts) }
func ErrTooManyRequests() *errx.Error   { return ErrRegistry.New(CodeTooManyRequests) }
func ErrDeliveryFailed() *errx.Error    { return ErrRegistry.New(CodeDeliveryFailed) }
