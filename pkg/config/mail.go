package config

import "time"

// MailConfig configures the outbound-mail queue. With Sync set, mail is sent
// inline instead of being enqueued (useful for tests and small deployments).
type MailConfig struct {
	Sync            bool
	Queue           string
	Concurrency     int
	PollInterval    time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
}

func loadMailConfig() MailConfig {
	return MailConfig{
		Sync:            getEnvBool("MAIL_SYNC", false),
		Queue:           getEnv("MAIL_QUEUE", "mail"),
		Concurrency:     getEnvInt("MAIL_CONCURRENCY", 2),
		PollInterval:    getEnvDuration("MAIL_POLL_INTERVAL", time.Second),
		MaxRetries:      getEnvInt("MAIL_MAX_RETRIES", 3),
		RetryDelay:      getEnvDuration("MAIL_RETRY_DELAY", 30*time.Second),
		ShutdownTimeout: getEnvDuration("MAIL_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}
