package directory

import (
	"strings"
	"time"

	"github.com/clientgate/clientgate/pkg/kernel"
)

// Customer is the identity record owned by the tenant directory. The portal
// reads and merges it but never caches it authoritatively.
type Customer struct {
	ID        kernel.CustomerID `db:"id" json:"id"`
	Email     string            `db:"email" json:"email"`
	FirstName string            `db:"first_name" json:"first_name"`
	LastName  string            `db:"last_name" json:"last_name"`
	Phone     string            `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// DisplayName renders the customer's name, falling back to the email.
func (c *Customer) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// Company is a service-provider tenant a customer may belong to.
type Company struct {
	ID        kernel.CompanyID `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Email     string           `db:"email" json:"email,omitempty"`
	Phone     string           `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// editableProfileFields is the allow-list for profile updates. Anything not
// listed here is silently dropped, never written. The filter is what keeps
// a crafted patch from touching id, email or membership columns.
var editableProfileFields = map[string]bool{
	"first_name": true,
	"last_name":  true,
	"phone":      true,
}

// FilterProfilePatch drops every field that is not explicitly editable.
func FilterProfilePatch(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if editableProfileFields[k] {
			out[k] = v
		}
	}
	return out
}
