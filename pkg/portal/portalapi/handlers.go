package portalapi

import (
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/audit"
	"github.com/clientgate/clientgate/pkg/portal/challenge"
	"github.com/clientgate/clientgate/pkg/portal/challenge/challengesrv"
	"github.com/clientgate/clientgate/pkg/portal/directory"
	"github.com/clientgate/clientgate/pkg/portal/exchange"
	"github.com/clientgate/clientgate/pkg/portal/guard"
	"github.com/clientgate/clientgate/pkg/portal/membership"
	"github.com/clientgate/clientgate/pkg/portal/session"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const portalTokenCookie = "portal_token"

// Handlers exposes the portal HTTP surface.
type Handlers struct {
	challenges *challengesrv.Service
	tokens     *exchange.Service
	sessions   *session.Manager
	members    *membership.Resolver
	dir        directory.Store
	audit      *audit.LogxAuditService
	validate   *validator.Validate
}

func NewHandlers(
	challenges *challengesrv.Service,
	tokens *exchange.Service,
	sessions *session.Manager,
	members *membership.Resolver,
	dir directory.Store,
	auditSvc *audit.LogxAuditService,
) *Handlers {
	return &Handlers{
		challenges: challenges,
		tokens:     tokens,
		sessions:   sessions,
		members:    members,
		dir:        dir,
		audit:      auditSvc,
		validate:   validator.New(),
	}
}

// RequestChallenge starts a login by emailing a one-time code.
func (h *Handlers) RequestChallenge(c *fiber.Ctx) error {
	var req requestChallengeDTO
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return errx.Validation("A valid email address is required")
	}

	ch, err := h.challenges.RequestChallenge(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(challengeIssuedResponse{
		Message:          "Login code sent to your email",
		Email:            ch.Email,
		ExpiresInSeconds: int(time.Until(ch.ExpiresAt).Seconds()),
	})
}

// VerifyChallenge trades a correct code for a one-time exchange token.
func (h *Handlers) VerifyChallenge(c *fiber.Ctx) error {
	var req verifyChallengeDTO
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return challenge.ErrInvalidInput()
	}

	verified, err := h.challenges.VerifyChallenge(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}

	return c.JSON(verifiedResponse{
		ExchangeToken:    verified.ExchangeToken,
		SessionHint:      verified.SessionHint.String(),
		ExpiresInSeconds: int(h.tokens.ExchangeTTL().Seconds()),
	})
}

// Exchange redeems the one-time token, opens the session, and hands out the
// durable portal credential.
func (h *Handlers) Exchange(c *fiber.Ctx) error {
	var req exchangeDTO
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return errx.Validation("exchange_token is required")
	}

	grant, err := h.tokens.Exchange(c.UserContext(), req.ExchangeToken)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.UserContext(), grant.SessionID, grant.Identity.ID, grant.Identity.Email)
	if err != nil {
		return err
	}
	h.audit.LogSessionOpened(c.UserContext(), grant.Identity.ID, sess.ID)

	c.Cookie(&fiber.Cookie{
		Name:     portalTokenCookie,
		Value:    grant.AccessToken,
		Expires:  grant.ExpiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
		Path:     "/",
	})

	resp := grantResponse{
		AccessToken: grant.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   grant.ExpiresAt,
		Identity: identityResponse{
			ID:    grant.Identity.ID.String(),
			Email: grant.Identity.Email,
			Name:  grant.Identity.Name,
		},
	}
	if grant.Profile != nil {
		resp.Profile = grant.Profile
	}
	return c.JSON(resp)
}

// Session reports the authenticated visitor's context. Reaching this
// handler at all means the guard authorized the request.
func (h *Handlers) Session(c *fiber.Ctx) error {
	pc, ok := guard.PortalContextFromFiber(c)
	if !ok {
		return errx.Unauthorized("Not authenticated")
	}

	return c.JSON(sessionResponse{
		State:         string(guard.StateAuthorized),
		CustomerID:    pc.CustomerID.String(),
		Email:         pc.Email,
		Name:          pc.Name,
		Source:        string(pc.Source),
		ActiveCompany: pc.ActiveCompany.String(),
	})
}

// ExtendSession restarts the inactivity window explicitly.
func (h *Handlers) ExtendSession(c *fiber.Ctx) error {
	sessionID := h.sessionIDFromRequest(c)
	if sessionID.IsEmpty() {
		return errx.Unauthorized("No session")
	}

	if err := h.sessions.Extend(c.UserContext(), sessionID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Session extended"})
}

// Logout revokes the session. It always answers success; a visitor who asks
// to be logged out ends up logged out locally no matter what the remote
// sign-in layer says.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := h.sessionIDFromRequest(c)
	if !sessionID.IsEmpty() {
		if pc, ok := guard.PortalContextFromFiber(c); ok {
			h.audit.LogSessionRevoked(c.UserContext(), pc.CustomerID, sessionID)
		}
		_ = h.sessions.Revoke(c.UserContext(), sessionID)
	}

	c.Cookie(&fiber.Cookie{
		Name:     portalTokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// ListCompanies returns the visitor's membership set and active company.
func (h *Handlers) ListCompanies(c *fiber.Ctx) error {
	pc, ok := guard.PortalContextFromFiber(c)
	if !ok {
		return errx.Unauthorized("Not authenticated")
	}

	m, err := h.members.LoadMemberships(c.UserContext(), pc.CustomerID)
	if err != nil {
		return err
	}
	return c.JSON(m)
}

// SelectCompany switches the active company scope.
func (h *Handlers) SelectCompany(c *fiber.Ctx) error {
	pc, ok := guard.PortalContextFromFiber(c)
	if !ok {
		return errx.Unauthorized("Not authenticated")
	}

	var req selectCompanyDTO
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return errx.Validation("company_id is required")
	}

	companyID := kernel.NewCompanyID(req.CompanyID)
	m, err := h.members.SelectCompany(c.UserContext(), pc.CustomerID, companyID)
	if err != nil {
		return err
	}

	h.audit.LogCompanySelected(c.UserContext(), pc.CustomerID, companyID)
	return c.JSON(m)
}

// Profile returns the visitor's directory record.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	pc, ok := guard.PortalContextFromFiber(c)
	if !ok {
		return errx.Unauthorized("Not authenticated")
	}

	customer, err := h.dir.FindCustomerByID(c.UserContext(), pc.CustomerID)
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

// UpdateProfile merges editable fields into the directory record. Fields
// outside the editable set are dropped without complaint.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	pc, ok := guard.PortalContextFromFiber(c)
	if !ok {
		return errx.Unauthorized("Not authenticated")
	}

	var req updateProfileDTO
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return errx.Validation("fields is required")
	}

	patch := make(map[string]any, len(req.Fields))
	for k, v := range req.Fields {
		patch[k] = v
	}
	filtered := directory.FilterProfilePatch(patch)

	customer, err := h.dir.UpdateProfile(c.UserContext(), pc.CustomerID, filtered)
	if err != nil {
		return err
	}

	applied := make([]string, 0, len(filtered))
	for k := range filtered {
		applied = append(applied, k)
	}
	h.audit.LogProfileUpdated(c.UserContext(), pc.CustomerID, applied)

	return c.JSON(customer)
}

func (h *Handlers) sessionIDFromRequest(c *fiber.Ctx) kernel.SessionID {
	token := c.Cookies(portalTokenCookie)
	if auth := c.Get("Authorization"); auth != "" {
		if len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token == "" {
		return kernel.NewSessionID("")
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		return kernel.NewSessionID("")
	}
	return claims.SessionID
}
