package membership

import (
	"net/http"

	"github.com/clientgate/clientgate/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("MEMBERSHIP")

var (
	CodeNotAMember = ErrRegistry.Register("NOT_A_MEMBER", errx.TypeAuthorization, http.StatusForbidden, "Customer is not a member of this company")
	CodeLoadFailed = ErrRegistry.Register("LOAD_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to load company memberships")
)

func ErrNotAMember() *errx.Error { return ErrRegistry.New(CodeNotAMember) }
func ErrLoadFailed() *errx.Error { return ErrRegistry.New(CodeLoadFailed) }
