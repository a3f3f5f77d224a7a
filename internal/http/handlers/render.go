package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pumarket/internal/domain"
)

const themeCookie = "theme"

func theme(c *fiber.Ctx) string {
	if c.Cookies(themeCookie) == "dark" {
		return "dark"
	}
	return "light"
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := viewer(c); u != nil {
		data["User"] = u
		data["IsSeller"] = u.CanSell()
		data["IsAdmin"] = u.HasRole(domain.RoleAdmin)
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	data["CSRFToken"] = tok
	data["Theme"] = theme(c)
	return c.Render(tmpl, data)
}

// page renders a friendly message page with the given status.
func page(c *fiber.Ctx, status int, msg string) error {
	c.Status(status)
	return render(c, "notfound", fiber.Map{"Message": msg})
}
