package directory

import (
	"net/http"

	"github.com/clientgate/clientgate/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("DIRECTORY")

var (
	CodeCustomerNotFound = ErrRegistry.Register("CUSTOMER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Customer not found")
	CodeCompanyNotFound  = ErrRegistry.Register("COMPANY_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Company not found")
	CodeStoreUnavailable = ErrRegistry.Register("STORE_UNAVAILABLE", errx.TypeExternal, http.StatusBadGateway, "Tenant directory is unavailable")
)

func ErrCustomerNotFound() *errx.Error { return ErrRegistry.New(CodeCustomerNotFound) }
func ErrCompanyNotFound() *errx.Error  { return ErrRegistry.New(CodeCompanyNotFound) }
func ErrStoreUnavailable() *errx.Error { return ErrRegistry.New(CodeStoreUnavailable) }
