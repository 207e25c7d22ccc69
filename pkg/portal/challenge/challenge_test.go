package challenge_test

import (
	"testing"
	"time"

	"github.com/clientgate/clientgate/pkg/portal/challenge"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := challenge.GenerateCode(6)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if !challenge.ValidCodeFormat(code, 6) {
			t.Fatalf("generated code %q has invalid format", code)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("code generation looks constant")
	}
}

func TestValidCodeFormat(t *testing.T) {
	valid := []string{"000000", "123456", "999999"}
	for _, code := range valid {
		if !challenge.ValidCodeFormat(code, 6) {
			t.Errorf("%q rejected", code)
		}
	}

	invalid := []string{"", "12345", "1234567", "12345x", "12 456", "12345\n"}
	for _, code := range invalid {
		if challenge.ValidCodeFormat(code, 6) {
			t.Errorf("%q accepted", code)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := challenge.NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestChallengeLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	hash, err := challenge.HashCode("123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	ch := &challenge.Challenge{
		ID:          "ch-1",
		Email:       "jane@example.com",
		CodeHash:    hash,
		IssuedAt:    now,
		ExpiresAt:   now.Add(challenge.DefaultTTL),
		MaxAttempts: challenge.DefaultMaxAttempts,
	}

	if !ch.IsActive(now) {
		t.Fatal("fresh challenge not active")
	}
	if !ch.MatchCode("123456") {
		t.Error("correct code mismatched")
	}
	if ch.MatchCode("654321") {
		t.Error("wrong code matched")
	}

	if err := ch.Consume(now); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if err := ch.Consume(now); err == nil {
		t.Fatal("double consume succeeded")
	}
	if ch.IsActive(now) {
		t.Error("consumed challenge still active")
	}
}

func TestChallengeExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ch := &challenge.Challenge{
		IssuedAt:    now,
		ExpiresAt:   now.Add(challenge.DefaultTTL),
		MaxAttempts: challenge.DefaultMaxAttempts,
	}

	if ch.IsExpired(now.Add(9 * time.Minute)) {
		t.Error("expired inside TTL")
	}
	if !ch.IsExpired(now.Add(11 * time.Minute)) {
		t.Error("not expired past TTL")
	}

	if err := ch.Consume(now.Add(11 * time.Minute)); err == nil {
		t.Fatal("consumed an expired challenge")
	}
}
