package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/basicblog/gateway/internal/routing"
	"github.com/basicblog/gateway/internal/services"
	"github.com/basicblog/gateway/internal/types"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SessionCookieName is the cookie carrying the opaque session token. The
// cookie never carries credentials or claims, only the token.
const SessionCookieName = "blog_session"

// Locals keys set by the gateway middleware chain.
const (
	localsPrincipal = "principal"
	localsRoute     = "route"
)

// loginPath is where browser clients are redirected when unauthenticated.
const loginPath = "/auth/login"

// Principal resolves the inbound session cookie into a principal and stores
// it in the request locals. Requests without a cookie, or with an invalid
// or expired one, proceed as anonymous; stale cookies are cleared on the
// response. Resolution always runs before route matching.
func Principal(db *gorm.DB, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookieName)
		if token == "" {
			c.Locals(localsPrincipal, types.Anonymous)
			return c.Next()
		}

		principal, err := services.ValidateSession(db, token)
		if err != nil {
			if errors.Is(err, services.ErrSessionInvalid) || errors.Is(err, services.ErrSessionExpired) {
				ClearSessionCookie(c, secure)
				c.Locals(localsPrincipal, types.Anonymous)
				return c.Next()
			}
			return err
		}

		c.Locals(localsPrincipal, principal)
		return c.Next()
	}
}

// Authorize matches the request path against the route table and enforces
// the matched rule's authorization requirement. No matching rule yields
// 404. The matched rule is stored in locals for the dispatch handler.
func Authorize(table *routing.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rule := table.Match(c.Path())
		if rule == nil {
			return types.NewNotFoundError("no route for %s", c.Path())
		}
		c.Locals(localsRoute, rule)

		principal := PrincipalFromCtx(c)
		switch rule.Auth.Kind {
		case routing.AuthAuthenticated:
			if principal.IsAnonymous() {
				return denyUnauthenticated(c)
			}
		case routing.AuthRole:
			if principal.IsAnonymous() {
				return denyUnauthenticated(c)
			}
			if !principal.HasRole(rule.Auth.Role) {
				return types.NewForbiddenError("missing required role '" + rule.Auth.Role + "'")
			}
		}

		return c.Next()
	}
}

// RequireAuthenticated guards method-specific local routes whose table rule
// is anonymous (e.g. POST on a publicly readable path).
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if PrincipalFromCtx(c).IsAnonymous() {
			return denyUnauthenticated(c)
		}
		return c.Next()
	}
}

// RequireRole guards local routes needing a specific role claim.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromCtx(c)
		if principal.IsAnonymous() {
			return denyUnauthenticated(c)
		}
		if !principal.HasRole(role) {
			return types.NewForbiddenError("missing required role '" + role + "'")
		}
		return c.Next()
	}
}

// PrincipalFromCtx returns the resolved principal, or the anonymous
// principal when resolution has not run.
func PrincipalFromCtx(c *fiber.Ctx) *types.Principal {
	if p, ok := c.Locals(localsPrincipal).(*types.Principal); ok {
		return p
	}
	return types.Anonymous
}

// RouteFromCtx returns the matched route rule, or nil before matching.
func RouteFromCtx(c *fiber.Ctx) *routing.RouteRule {
	if r, ok := c.Locals(localsRoute).(*routing.RouteRule); ok {
		return r
	}
	return nil
}

// SetSessionCookie attaches a session token to the response.
func SetSessionCookie(c *fiber.Ctx, token string, ttl time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the response.
func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// denyUnauthenticated returns a login redirect for browser clients and a
// 401 for API clients.
func denyUnauthenticated(c *fiber.Ctx) error {
	if strings.Contains(c.Get(fiber.HeaderAccept), "text/html") {
		return c.Redirect(loginPath, fiber.StatusFound)
	}
	return types.NewUnauthenticatedError("authentication required")
}
