package portalcontainer

import (
	"github.com/clientgate/clientgate/pkg/config"
	"github.com/clientgate/clientgate/pkg/logx"
	"github.com/clientgate/clientgate/pkg/mailq"
	"github.com/clientgate/clientgate/pkg/notifx"
	"github.com/clientgate/clientgate/pkg/portal/audit"
	"github.com/clientgate/clientgate/pkg/portal/challenge"
	"github.com/clientgate/clientgate/pkg/portal/challenge/challengeinfra"
	"github.com/clientgate/clientgate/pkg/portal/challenge/challengesrv"
	"github.com/clientgate/clientgate/pkg/portal/directory"
	"github.com/clientgate/clientgate/pkg/portal/directory/directoryinfra"
	"github.com/clientgate/clientgate/pkg/portal/exchange"
	"github.com/clientgate/clientgate/pkg/portal/exchange/exchangeinfra"
	"github.com/clientgate/clientgate/pkg/portal/guard"
	"github.com/clientgate/clientgate/pkg/portal/membership"
	"github.com/clientgate/clientgate/pkg/portal/membership/membershipinfra"
	"github.com/clientgate/clientgate/pkg/portal/portalapi"
	"github.com/clientgate/clientgate/pkg/portal/session"
	"github.com/clientgate/clientgate/pkg/portal/session/sessioninfra"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state. Everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Mailer is the outbound email client. How mail actually leaves the
	// process (console, SES) is decided in cmd/.
	Mailer *notifx.Client

	// MailQueue carries challenge emails when delivery is asynchronous.
	// Ignored when Cfg.Mail.Sync is set.
	MailQueue mailq.Enqueuer
}

// ---------------------------------------------------------------------------
// Container: the public surface of the portal module.
// Only expose what cmd/ actually needs to register routes and middleware.
// ---------------------------------------------------------------------------

type Container struct {
	// Services
	ChallengeService *challengesrv.Service
	TokenService     *exchange.Service
	SessionManager   *session.Manager
	Memberships      *membership.Resolver
	Directory        directory.Store

	// Handlers and middleware for cmd/
	Handlers    *portalapi.Handlers
	Guard       *guard.Middleware
	RateLimiter *portalapi.RateLimiter
}

// ---------------------------------------------------------------------------
// New: constructs the portal dependency graph.
// Order matters: infra → repos → services → handlers → middleware.
// ---------------------------------------------------------------------------

func New(deps Deps) (*Container, error) {
	logx.Info("🔧 Initializing portal container...")

	c := &Container{}
	authCfg := deps.Cfg.Auth

	// ── Repositories and stores ──────────────────────────────────────────

	challengeRepo := challengeinfra.NewRedisChallengeRepository(deps.Redis, authCfg.ChallengeTTL)
	redemptionStore := exchangeinfra.NewRedisRedemptionStore(deps.Redis)
	c.Directory = directoryinfra.NewPostgresDirectoryStore(deps.DB)

	var sessionStore session.Store
	var selectionStore membership.SelectionStore
	if authCfg.SessionStore == "redis" {
		sessionStore = sessioninfra.NewRedisSessionStore(deps.Redis, authCfg.SessionTTL)
		selectionStore = membershipinfra.NewRedisSelectionStore(deps.Redis)
		logx.Info("  ✅ Using Redis session store")
	} else {
		sessionStore = session.NewMemoryStore()
		selectionStore = membership.NewMemorySelectionStore()
		logx.Warn("  ⚠️  Using in-memory session store (not recommended for production)")
	}

	// ── Notifier ─────────────────────────────────────────────────────────

	var notifier challenge.Notifier
	var err error
	if deps.Cfg.Mail.Sync || deps.MailQueue == nil {
		notifier, err = challengeinfra.NewDirectNotifier(deps.Mailer, deps.Cfg.Notifx.FromAddress)
		logx.Info("  ✅ Challenge mail delivery: synchronous")
	} else {
		notifier, err = challengeinfra.NewQueueNotifier(deps.MailQueue)
		logx.Info("  ✅ Challenge mail delivery: queued")
	}
	if err != nil {
		return nil, err
	}

	// ── Audit ────────────────────────────────────────────────────────────

	auditService := audit.NewLogxAuditService()

	// ── Domain services ──────────────────────────────────────────────────

	c.TokenService = exchange.NewService(
		authCfg.JWTSecret,
		authCfg.JWTIssuer,
		authCfg.ExchangeTokenTTL,
		authCfg.AccessTokenTTL,
		redemptionStore,
		c.Directory,
	)

	c.ChallengeService = challengesrv.NewService(
		challengeRepo,
		notifier,
		c.TokenService,
		auditService,
		challengesrv.Options{
			TTL:            authCfg.ChallengeTTL,
			CodeLength:     authCfg.ChallengeCodeLen,
			MaxAttempts:    authCfg.ChallengeAttempts,
			ResendThrottle: authCfg.ResendThrottle,
		},
	)

	var revoker session.RemoteRevoker
	if authCfg.RemoteSignoutURL != "" {
		revoker = sessioninfra.NewHTTPRemoteRevoker(authCfg.RemoteSignoutURL)
		logx.Info("  ✅ Remote sign-out enabled")
	}
	c.SessionManager = session.NewManager(sessionStore, revoker, authCfg.SessionTTL)

	c.Memberships = membership.NewResolver(c.Directory, selectionStore)

	// ── Handlers and middleware ──────────────────────────────────────────

	c.Handlers = portalapi.NewHandlers(
		c.ChallengeService,
		c.TokenService,
		c.SessionManager,
		c.Memberships,
		c.Directory,
		auditService,
	)

	c.Guard = guard.NewMiddleware(c.SessionManager, c.TokenService, c.Memberships, "/portal/login")
	c.RateLimiter = portalapi.NewRateLimiter(authCfg.RateLimitRPS, authCfg.RateLimitBurst)

	logx.Info("✅ Portal container initialized")
	return c, nil
}
