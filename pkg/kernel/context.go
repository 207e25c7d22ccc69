package kernel

// ============================================================================
// Context Types
// ============================================================================

// IdentitySource says which of the two independent sign-in paths produced a
// portal context.
type IdentitySource string

const (
	// SourceSession means the visitor authenticated through the OTP flow and
	// holds a live portal session.
	SourceSession IdentitySource = "SESSION"

	// SourcePrimary means the visitor is signed in through the application's
	// primary identity mechanism with a customer role.
	SourcePrimary IdentitySource = "PRIMARY"
)

// RoleCustomer is the only primary-identity role the portal accepts.
const RoleCustomer = "customer"

// PortalContext is the authenticated-visitor context injected into each
// request once the route guard has authorized it.
type PortalContext struct {
	CustomerID    CustomerID     `json:"customer_id"`
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	ActiveCompany CompanyID      `json:"active_company"`
	Source        IdentitySource `json:"source"`
}

// IsValid reports whether the context identifies a customer.
func (pc *PortalContext) IsValid() bool {
	return !pc.CustomerID.IsEmpty()
}

// HasCompany reports whether an active company has been fixed yet. A customer
// with zero memberships is authenticated but has no company scope.
func (pc *PortalContext) HasCompany() bool {
	return !pc.ActiveCompany.IsEmpty()
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// PortalContextKey stores the *PortalContext on an authorized request.
	PortalContextKey ContextKey = "portal_context"

	// RequestIDKey stores the request id.
	RequestIDKey ContextKey = "request_id"
)
