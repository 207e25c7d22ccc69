package directory

import (
	"context"

	"github.com/clientgate/clientgate/pkg/kernel"
)

// Store is the read/merge contract against the external tenant directory.
// Identity and membership records are owned there; the portal only delegates
// writes through UpdateProfile.
type Store interface {
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	FindCustomerByID(ctx context.Context, id kernel.CustomerID) (*Customer, error)

	// CreateCustomer provisions a minimal identity for an email seen for the
	// first time. The resulting customer has no memberships yet.
	CreateCustomer(ctx context.Context, email string) (*Customer, error)

	// UpdateProfile writes an already-filtered set of profile fields. Callers
	// must run the patch through FilterProfilePatch first.
	UpdateProfile(ctx context.Context, id kernel.CustomerID, fields map[string]any) (*Customer, error)

	// ListCompanies returns the companies the customer is a member of, in the
	// directory's stable order. The portal never re-sorts this.
	ListCompanies(ctx context.Context, id kernel.CustomerID) ([]Company, error)
}
