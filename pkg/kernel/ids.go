package kernel

// ID types shared by every portal module. Kept as distinct string types so a
// company id can never be passed where a customer id is expected.

type CustomerID string

func NewCustomerID(id string) CustomerID { return CustomerID(id) }
func (c CustomerID) String() string      { return string(c) }
func (c CustomerID) IsEmpty() bool       { return string(c) == "" }

type CompanyID string

func NewCompanyID(id string) CompanyID { return CompanyID(id) }
func (c CompanyID) String() string     { return string(c) }
func (c CompanyID) IsEmpty() bool      { return string(c) == "" }

// SessionID is the opaque session hint handed out at verification time and
// used as the key for the session record.
type SessionID string

func NewSessionID(id string) SessionID { return SessionID(id) }
func (s SessionID) String() string     { return string(s) }
func (s SessionID) IsEmpty() bool      { return string(s) == "" }
