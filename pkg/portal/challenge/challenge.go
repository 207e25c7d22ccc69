package challenge

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCodeLength is the number of digits in a login code.
const DefaultCodeLength = 6

// DefaultTTL is how long a challenge stays verifiable.
const DefaultTTL = 10 * time.Minute

// DefaultMaxAttempts is the number of wrong codes tolerated before the
// challenge is burned.
const DefaultMaxAttempts = 5

// bcryptCost for hashing codes at rest. Codes live ten minutes, the default
// cost is plenty.
const bcryptCost = bcrypt.DefaultCost

// Challenge is one outstanding login code for an email address. There is at
// most one active challenge per email: issuing a new one supersedes the old.
type Challenge struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	CodeHash    string     `json:"code_hash"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
}

// IsExpired reports whether the challenge TTL has passed at the given time.
func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsConsumed reports whether the challenge has already been verified.
func (c *Challenge) IsConsumed() bool {
	return c.ConsumedAt != nil
}

// IsActive reports whether the challenge can still be verified.
func (c *Challenge) IsActive(now time.Time) bool {
	return !c.IsExpired(now) && !c.IsConsumed() && c.Attempts < c.MaxAttempts
}

// Consume marks the challenge as used. A challenge can be consumed at most
// once.
func (c *Challenge) Consume(now time.Time) error {
	if c.IsConsumed() {
		return ErrChallengeConsumed()
	}
	if c.IsExpired(now) {
		return ErrChallengeExpired()
	}
	t := now
	c.ConsumedAt = &t
	return nil
}

// MatchCode compares a submitted code against the stored hash.
func (c *Challenge) MatchCode(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) == nil
}

// GenerateCode generates a cryptographically secure numeric code of the
// given length, zero-padded.
func GenerateCode(length int) (string, error) {
	max := new(big.Int)
	max.Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	format := fmt.Sprintf("%%0%dd", length)
	return fmt.Sprintf(format, n), nil
}

// HashCode hashes a code for storage. Codes are never persisted in clear.
func HashCode(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// NormalizeEmail lowercases and trims an email address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var codePattern = regexp.MustCompile(`^[0-9]+$`)

// ValidCodeFormat reports whether a submitted code has exactly the expected
// number of digits.
func ValidCodeFormat(code string, length int) bool {
	return len(code) == length && codePattern.MatchString(code)
}
