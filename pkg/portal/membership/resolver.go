// Package membership resolves which companies a customer belongs to and
// which one their portal view is currently scoped to.
package membership

import (
	"context"

	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/directory"
)

// Memberships is a customer's company affiliations plus the company their
// requests are scoped to. Active is always one of Companies; when the
// customer never picked one it defaults to the first in directory order.
type Memberships struct {
	Companies []directory.Company `json:"companies"`
	Active    *directory.Company  `json:"active,omitempty"`
}

// SelectionStore remembers which company a customer last picked. Selections
// are a preference, not an entitlement; the resolver revalidates them
// against the membership set on every load.
type SelectionStore interface {
	GetSelection(ctx context.Context, customerID kernel.CustomerID) (kernel.CompanyID, error)
	SaveSelection(ctx context.Context, customerID kernel.CustomerID, companyID kernel.CompanyID) error
}

// Resolver loads membership sets and handles active company selection.
type Resolver struct {
	dir        directory.Store
	selections SelectionStore
}

func NewResolver(dir directory.Store, selections SelectionStore) *Resolver {
	return &Resolver{dir: dir, selections: selections}
}

// LoadMemberships fetches the customer's companies and resolves the active
// one. A customer with no memberships gets an empty set and no active
// company; the portal renders, just without company-scoped data.
func (r *Resolver) LoadMemberships(ctx context.Context, customerID kernel.CustomerID) (*Memberships, error) {
	companies, err := r.dir.ListCompanies(ctx, customerID)
	if err != nil {
		return nil, ErrLoadFailed().WithDetail("customer_id", customerID.String())
	}

	m := &Memberships{Companies: companies}
	if len(companies) == 0 {
		return m, nil
	}

	if selected, err := r.selections.GetSelection(ctx, customerID); err == nil && !selected.IsEmpty() {
		for i := range companies {
			if companies[i].ID == selected {
				m.Active = &companies[i]
				return m, nil
			}
		}
		// A stale selection falls through to the default rather than
		// granting access to a company the customer left.
	}

	m.Active = &companies[0]
	return m, nil
}

// SelectCompany switches the active company. The target must be in the
// customer's membership set; otherwise nothing changes and the previous
// selection stays in force.
func (r *Resolver) SelectCompany(ctx context.Context, customerID kernel.CustomerID, companyID kernel.CompanyID) (*Memberships, error) {
	m, err := r.LoadMemberships(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var target *directory.Company
	for i := range m.Companies {
		if m.Companies[i].ID == companyID {
			target = &m.Companies[i]
			break
		}
	}
	if target == nil {
		return nil, ErrNotAMember().
			WithDetail("customer_id", customerID.String()).
			WithDetail("company_id", companyID.String())
	}

	if err := r.selections.SaveSelection(ctx, customerID, companyID); err != nil {
		return nil, ErrLoadFailed().WithDetail("error", err.Error())
	}

	m.Active = target
	return m, nil
}
