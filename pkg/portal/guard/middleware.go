package guard

import (
	"context"
	"strings"
	"time"

	"github.com/clientgate/clientgate/pkg/asyncx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/logx"
	"github.com/clientgate/clientgate/pkg/portal/exchange"
	"github.com/clientgate/clientgate/pkg/portal/membership"
	"github.com/clientgate/clientgate/pkg/portal/session"
	"github.com/gofiber/fiber/v2"
)

const (
	portalTokenCookie  = "portal_token"
	primaryTokenCookie = "app_token"
	primaryTokenHeader = "X-Primary-Token"

	// resolveBudget bounds how long a request waits for the identity
	// sources before answering Loading.
	resolveBudget = 3 * time.Second
)

// Middleware guards portal routes by reconciling the two identity sources
// on every request.
type Middleware struct {
	sessions *session.Manager
	tokens   *exchange.Service
	members  *membership.Resolver
	loginURL string
}

func NewMiddleware(sessions *session.Manager, tokens *exchange.Service, members *membership.Resolver, loginURL string) *Middleware {
	if loginURL == "" {
		loginURL = "/portal/login"
	}
	return &Middleware{
		sessions: sessions,
		tokens:   tokens,
		members:  members,
		loginURL: loginURL,
	}
}

// Protect resolves both identity sources concurrently, feeds the signals to
// Decide, and injects the portal context on authorized requests.
func (m *Middleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		portalToken := extractBearer(c, portalTokenCookie)
		primaryToken := c.Get(primaryTokenHeader)
		if primaryToken == "" {
			primaryToken = c.Cookies(primaryTokenCookie)
		}

		ctx := c.UserContext()

		sessFuture := asyncx.Run(func() (SessionSignal, error) {
			return m.resolveSession(ctx, portalToken), nil
		})
		primaryFuture := asyncx.Run(func() (PrimarySignal, error) {
			return m.resolvePrimary(primaryToken), nil
		})

		deadline, cancel := contextWithBudget(ctx)
		defer cancel()

		sess, err := sessFuture.AwaitCtx(deadline)
		if err != nil {
			sess = SessionSignal{Settled: false}
		}
		primary, err := primaryFuture.AwaitCtx(deadline)
		if err != nil {
			primary = PrimarySignal{Settled: false}
		}

		result := Decide(sess, primary)

		switch result.State {
		case StateAuthorized:
			pc := &kernel.PortalContext{
				CustomerID: result.CustomerID,
				Email:      result.Email,
				Name:       result.Name,
				Source:     result.Source,
			}
			if m.members != nil {
				if ms, err := m.members.LoadMemberships(ctx, result.CustomerID); err == nil && ms.Active != nil {
					pc.ActiveCompany = ms.Active.ID
				}
			}
			c.Locals(string(kernel.PortalContextKey), pc)

			// Activity extends the session in the background; the request
			// never waits on the store for it.
			if result.Source == kernel.SourceSession && sess.Settled {
				sessionID := sessionIDFromToken(m.tokens, portalToken)
				asyncx.Do(func() {
					bctx, bcancel := contextWithBudget(nil)
					defer bcancel()
					if err := m.sessions.Extend(bctx, sessionID); err != nil {
						logx.WithError(err).Debug("session extend failed")
					}
				})
			}

			return c.Next()

		case StateLoading:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"state":  string(StateLoading),
				"reason": result.Reason,
			})

		default:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"state":     string(StateUnauthorized),
				"reason":    result.Reason,
				"login_url": m.loginURL,
				"return_to": c.OriginalURL(),
			})
		}
	}
}

// resolveSession turns the portal access token into a session signal. Every
// failure mode settles; only a cancelled context leaves a source unsettled.
func (m *Middleware) resolveSession(ctx context.Context, token string) SessionSignal {
	if token == "" {
		return SessionSignal{Settled: true, State: session.StateNone}
	}

	claims, err := m.tokens.ValidateAccessToken(token)
	if err != nil {
		return SessionSignal{Settled: true, State: session.StateNone}
	}

	state, sess, err := m.sessions.Validate(ctx, claims.SessionID)
	if err != nil {
		return SessionSignal{Settled: true, State: session.StateExpired}
	}

	signal := SessionSignal{Settled: true, State: state}
	if sess != nil {
		signal.CustomerID = sess.CustomerID
		signal.Email = sess.Email
		signal.Name = claims.Name
	}
	return signal
}

// resolvePrimary validates the surrounding application's token, if any.
func (m *Middleware) resolvePrimary(token string) PrimarySignal {
	if token == "" {
		return PrimarySignal{Settled: true, Present: false}
	}

	claims, err := m.tokens.ValidatePrimaryToken(token)
	if err != nil {
		return PrimarySignal{Settled: true, Present: false}
	}

	return PrimarySignal{
		Settled:    true,
		Present:    true,
		Role:       claims.Role,
		CustomerID: claims.CustomerID,
		Email:      claims.Email,
		Name:       claims.Name,
	}
}

// PortalContextFromFiber retrieves the context injected by Protect.
func PortalContextFromFiber(c *fiber.Ctx) (*kernel.PortalContext, bool) {
	pc, ok := c.Locals(string(kernel.PortalContextKey)).(*kernel.PortalContext)
	if !ok || pc == nil || !pc.IsValid() {
		return nil, false
	}
	return pc, true
}

func extractBearer(c *fiber.Ctx, cookieName string) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1]
		}
	}
	return c.Cookies(cookieName)
}

func contextWithBudget(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, resolveBudget)
}

func sessionIDFromToken(tokens *exchange.Service, token string) kernel.SessionID {
	claims, err := tokens.ValidateAccessToken(token)
	if err != nil {
		return kernel.NewSessionID("")
	}
	return claims.SessionID
}
