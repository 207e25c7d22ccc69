// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, mail) and composes
// bounded-context containers. This is the only place that knows about ALL modules.
package main

import (
	"context"

	"github.com/clientgate/clientgate/pkg/config"
	"github.com/clientgate/clientgate/pkg/logx"
	"github.com/clientgate/clientgate/pkg/mailq"
	"github.com/clientgate/clientgate/pkg/notifx"
	"github.com/clientgate/clientgate/pkg/notifx/notifxconsole"
	"github.com/clientgate/clientgate/pkg/notifx/notifxses"
	"github.com/clientgate/clientgate/pkg/portal/portalcontainer"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB         *sqlx.DB
	Redis      *redis.Client
	Mailer     *notifx.Client
	MailQueue  *mailq.RedisQueue
	MailWorker *mailq.Worker

	// Bounded-context containers
	Portal *portalcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, outbound mail
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. Outbound mail
	c.initMail()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initMail() {
	switch c.Config.Notifx.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Notifx.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		sesClient := ses.NewFromConfig(awsCfg)
		c.Mailer = notifx.NewClient(notifxses.NewSESProvider(sesClient, c.Config.Notifx.FromAddress))
		logx.Infof("  ✅ SES mail provider configured (region: %s)", c.Config.Notifx.AWSRegion)

	case "console", "":
		c.Mailer = notifx.NewClient(notifxconsole.NewConsoleProvider())
		logx.Warn("  ⚠️  Console mail provider configured (emails go to stdout)")

	default:
		logx.Fatalf("Unknown NOTIFX_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notifx.Provider)
	}

	if !c.Config.Mail.Sync {
		c.MailQueue = mailq.NewRedisQueue(c.Redis, c.Config.Mail.Queue, c.Config.Mail.MaxRetries)
		c.MailWorker = mailq.NewWorker(c.MailQueue, c.Mailer,
			mailq.WithConcurrency(c.Config.Mail.Concurrency),
			mailq.WithPollInterval(c.Config.Mail.PollInterval),
			mailq.WithRetryDelay(c.Config.Mail.RetryDelay),
			mailq.WithFrom(c.Config.Notifx.FromAddress),
			mailq.WithShutdownTimeout(c.Config.Mail.ShutdownTimeout),
		)
		logx.Infof("  ✅ Mail queue configured (queue: %s, workers: %d)",
			c.Config.Mail.Queue, c.Config.Mail.Concurrency)
	}
}

// ---------------------------------------------------------------------------
// Module composition: each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	var enqueuer mailq.Enqueuer
	if c.MailQueue != nil {
		enqueuer = c.MailQueue
	}

	portal, err := portalcontainer.New(portalcontainer.Deps{
		DB:        c.DB,
		Redis:     c.Redis,
		Cfg:       c.Config,
		Mailer:    c.Mailer,
		MailQueue: enqueuer,
	})
	if err != nil {
		logx.Fatalf("Failed to initialize portal module: %v", err)
	}
	c.Portal = portal
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	if c.MailWorker != nil {
		go func() {
			if err := c.MailWorker.Start(ctx); err != nil {
				logx.Errorf("Mail worker stopped: %v", err)
			}
		}()
		logx.Info("  ✅ Mail worker started")
	}
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
