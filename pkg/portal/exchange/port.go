package exchange

import (
	"context"
	"time"
)

// RedemptionStore enforces the one-time property of exchange tokens. Arm
// registers a token id when it is minted; Redeem atomically checks and
// removes it, so a second redemption of the same jti observes false.
type RedemptionStore interface {
	Arm(ctx context.Context, jti string, ttl time.Duration) error
	Redeem(ctx context.Context, jti string) (bool, error)
}
