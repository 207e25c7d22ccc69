package config

import "time"

// AuthConfig configures the OTP challenge flow, token issuance and sessions.
type AuthConfig struct {
	// JWT signing
	JWTSecret string
	JWTIssuer string

	// Exchange tokens: produced by challenge verification, redeemable once.
	ExchangeTokenTTL time.Duration

	// Access tokens: the durable credential handed out after exchange.
	AccessTokenTTL time.Duration

	// OTP challenges
	ChallengeTTL      time.Duration
	ChallengeCodeLen  int
	ChallengeAttempts int
	ResendThrottle    time.Duration

	// Sessions
	SessionTTL   time.Duration
	SessionStore string // "memory" or "redis"

	// RemoteSignoutURL is the primary sign-in layer's sign-out endpoint.
	// Empty disables remote revocation.
	RemoteSignoutURL string

	// Rate limiting on the challenge endpoints (requests per second per IP).
	RateLimitRPS   float64
	RateLimitBurst int
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:         getEnv("JWT_ISSUER", "clientgate"),
		ExchangeTokenTTL:  getEnvDuration("EXCHANGE_TOKEN_TTL", 5*time.Minute),
		AccessTokenTTL:    getEnvDuration("ACCESS_TOKEN_TTL", 12*time.Hour),
		ChallengeTTL:      getEnvDuration("CHALLENGE_TTL", 10*time.Minute),
		ChallengeCodeLen:  getEnvInt("CHALLENGE_CODE_LEN", 6),
		ChallengeAttempts: getEnvInt("CHALLENGE_MAX_ATTEMPTS", 5),
		ResendThrottle:    getEnvDuration("CHALLENGE_RESEND_THROTTLE", time.Minute),
		SessionTTL:        getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionStore:      getEnv("SESSION_STORE", "memory"),
		RemoteSignoutURL:  getEnv("PRIMARY_SIGNOUT_URL", ""),
		RateLimitRPS:      float64(getEnvInt("RATE_LIMIT_RPS", 5)),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 10),
	}
}
