package challenge

import (
	"context"
	"time"
)

// Repository persists challenges keyed by normalized email, so saving a new
// challenge for an email supersedes the previous one.
type Repository interface {
	Save(ctx context.Context, ch *Challenge) error
	GetByEmail(ctx context.Context, email string) (*Challenge, error)
	Update(ctx context.Context, ch *Challenge) error
	Delete(ctx context.Context, email string) error
}

// Notifier hands a freshly generated code to the delivery channel. The code
// is opaque to everything past this interface.
type Notifier interface {
	SendCode(ctx context.Context, email, code string, expiresAt time.Time) error
}
