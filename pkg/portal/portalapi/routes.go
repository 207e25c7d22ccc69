package portalapi

import (
	"github.com/clientgate/clientgate/pkg/portal/guard"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the portal API. The challenge endpoints sit behind
// the rate limiter; everything past login sits behind the guard.
func (h *Handlers) RegisterRoutes(app fiber.Router, gm *guard.Middleware, limiter *RateLimiter) {
	auth := app.Group("/portal/auth")
	auth.Post("/challenge", limiter.Limit(), h.RequestChallenge)
	auth.Post("/verify", limiter.Limit(), h.VerifyChallenge)
	auth.Post("/exchange", limiter.Limit(), h.Exchange)
	auth.Post("/logout", h.Logout)

	protected := app.Group("/portal", gm.Protect())
	protected.Get("/session", h.Session)
	protected.Post("/session/extend", h.ExtendSession)
	protected.Get("/companies", h.ListCompanies)
	protected.Post("/companies/select", h.SelectCompany)
	protected.Get("/profile", h.Profile)
	protected.Patch("/profile", h.UpdateProfile)
}
