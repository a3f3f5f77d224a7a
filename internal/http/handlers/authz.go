package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pumarket/internal/domain"
	applog "pumarket/internal/log"
	"pumarket/internal/services"
)

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/") || strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

func currentOrLoad(c *fiber.Ctx, auth *services.AuthService) *domain.User {
	if u := viewer(c); u != nil {
		return u
	}
	sid := c.Cookies(sidCookie)
	if sid == "" {
		return nil
	}
	u, err := auth.CurrentUser(c.UserContext(), sid)
	if err != nil {
		return nil
	}
	c.Locals("user", u)
	c.Locals("userID", u.ID)
	return u
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentOrLoad(c, auth) == nil {
			if wantsJSON(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign in required"})
			}
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

// RequireRole lets the request through when the user holds any of roles.
// Denials are logged as access.denied.<area>.
func RequireRole(auth *services.AuthService, area string, roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentOrLoad(c, auth)
		if u == nil {
			applog.Security(c, "access.denied."+area, map[string]any{"reason": "anonymous"})
			return c.Redirect("/login")
		}
		for _, r := range roles {
			if u.HasRole(r) {
				return c.Next()
			}
		}
		c.Status(fiber.StatusForbidden)
		applog.Security(c, "access.denied."+area, map[string]any{"roles": u.Roles})
		return page(c, fiber.StatusForbidden, "Access denied")
	}
}

func RequireSeller(auth *services.AuthService) fiber.Handler {
	return RequireRole(auth, "seller", domain.RoleSeller, domain.RoleAdmin)
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return RequireRole(auth, "admin", domain.RoleAdmin)
}
