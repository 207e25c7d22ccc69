package directoryinfra

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/directory"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresDirectoryStore implements directory.Store against the tenant
// directory database.
type PostgresDirectoryStore struct {
	db *sqlx.DB
}

// NewPostgresDirectoryStore creates the postgres directory store.
func NewPostgresDirectoryStore(db *sqlx.DB) directory.Store {
	return &PostgresDirectoryStore{db: db}
}

const customerColumns = `id, email, first_name, last_name, phone, created_at, updated_at`

// FindCustomerByEmail looks a customer up by normalized email.
func (s *PostgresDirectoryStore) FindCustomerByEmail(ctx context.Context, email string) (*directory.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE LOWER(email) = LOWER($1)`, customerColumns)

	var c directory.Customer
	err := s.db.GetContext(ctx, &c, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, directory.ErrCustomerNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find customer by email", errx.TypeExternal)
	}

	return &c, nil
}

// FindCustomerByID looks a customer up by id.
func (s *PostgresDirectoryStore) FindCustomerByID(ctx context.Context, id kernel.CustomerID) (*directory.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)

	var c directory.Customer
	err := s.db.GetContext(ctx, &c, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, directory.ErrCustomerNotFound().WithDetail("customer_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find customer by id", errx.TypeExternal)
	}

	return &c, nil
}

// CreateCustomer provisions a minimal identity row for a first-seen email.
func (s *PostgresDirectoryStore) CreateCustomer(ctx context.Context, email string) (*directory.Customer, error) {
	query := fmt.Sprintf(`
		INSERT INTO customers (id, email, created_at, updated_at)
		VALUES ($1, LOWER($2), NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING %s`, customerColumns)

	var c directory.Customer
	if err := s.db.GetContext(ctx, &c, query, uuid.NewString(), email); err != nil {
		return nil, errx.Wrap(err, "failed to create customer", errx.TypeExternal).
			WithDetail("email", email)
	}

	return &c, nil
}

// UpdateProfile writes the given (already allow-list filtered) fields. An
// empty patch is a no-op read.
func (s *PostgresDirectoryStore) UpdateProfile(ctx context.Context, id kernel.CustomerID, fields map[string]any) (*directory.Customer, error) {
	fields = directory.FilterProfilePatch(fields)
	if len(fields) == 0 {
		return s.FindCustomerByID(ctx, id)
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	i := 1
	for col, val := range fields {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id.String())

	query := fmt.Sprintf(`UPDATE customers SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), i, customerColumns)

	var c directory.Customer
	err := s.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, directory.ErrCustomerNotFound().WithDetail("customer_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to update profile", errx.TypeExternal)
	}

	return &c, nil
}

// ListCompanies returns the customer's companies in membership-creation
// order. The ordering is part of the contract: the first row is the default
// active company.
func (s *PostgresDirectoryStore) ListCompanies(ctx context.Context, id kernel.CustomerID) ([]directory.Company, error) {
	query := `
		SELECT c.id, c.name, c.email, c.phone, c.created_at
		FROM companies c
		JOIN company_memberships m ON m.company_id = c.id
		WHERE m.customer_id = $1
		ORDER BY m.created_at ASC`

	var companies []directory.Company
	if err := s.db.SelectContext(ctx, &companies, query, id.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list companies", errx.TypeExternal).
			WithDetail("customer_id", id.String())
	}

	return companies, nil
}
