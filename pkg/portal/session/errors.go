package session

import (
	"net/http"

	"github.com/clientgate/clientgate/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("SESSION")

var (
	CodeNotFound         = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Session not found")
	CodeExpired          = ErrRegistry.Register("EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Session has expired")
	CodeStoreUnavailable = ErrRegistry.Register("STORE_UNAVAILABLE", errx.TypeExternal, http.StatusBadGateway, "Session store is unavailable")
)

func ErrNotFound() *errx.Error         { return ErrRegistry.New(CodeNotFound) }
func ErrExpired() *errx.Error          { return ErrRegistry.New(CodeExpired) }
func ErrStoreUnavailable() *errx.Error { return ErrRegistry.New(CodeStoreUnavailable) }
