package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pumarket/internal/log"
	"pumarket/internal/services"
	"pumarket/internal/validate"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if viewer(c) != nil {
		return c.Redirect("/")
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c, h.CookieSecure)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
	}

	if _, err := h.Auth.Login(c.UserContext(), sid, email, pass); err != nil {
		status := fiber.StatusUnauthorized
		if !errors.Is(err, services.ErrBadCreds) {
			log.Error(c, "auth.login.error", err, nil)
			status = fiber.StatusInternalServerError
		} else {
			log.Security(c, "auth.login.fail", map[string]any{"email": email})
		}
		c.Status(status)
		return render(c, "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/")
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, "signup", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	sid := ensureSID(c, h.CookieSecure)
	email := c.FormValue("email")
	name := c.FormValue("full_name")
	if c.FormValue("password") != c.FormValue("confirm") {
		c.Status(fiber.StatusBadRequest)
		return render(c, "signup", fiber.Map{"Err": "Passwords do not match.", "Email": email, "FullName": name})
	}

	u, err := h.Auth.SignUp(c.UserContext(), sid, email, c.FormValue("password"), name)
	if err != nil {
		status := statusFor(err)
		c.Status(status)
		if status == fiber.StatusInternalServerError {
			log.Error(c, "auth.signup.error", err, nil)
		} else {
			log.Security(c, "auth.signup.fail", map[string]any{"email": email, "reason": err.Error()})
		}
		return render(c, "signup", fiber.Map{"Err": userMessage(err), "Email": email, "FullName": name})
	}
	log.Audit(c, "auth.signup.success", map[string]any{"email": u.Email, "user": u.ID})
	return c.Redirect("/")
}

// POST /magic-link
func (h *AuthHandler) RequestMagicLink(c *fiber.Ctx) error {
	email := c.FormValue("email")
	err := h.Auth.RequestMagicLink(c.UserContext(), email)
	switch {
	case errors.Is(err, services.ErrThrottled):
		log.Security(c, "rate.magic_link.hit", map[string]any{"email": email})
		c.Status(fiber.StatusTooManyRequests)
		return render(c, "login", fiber.Map{"Err": "Too many sign-in links requested. Please wait a minute.", "Email": email})
	case errors.Is(err, services.ErrInvalid):
		c.Status(fiber.StatusBadRequest)
		return render(c, "login", fiber.Map{"Err": "Enter a valid email.", "Email": email})
	case err != nil:
		log.Error(c, "auth.magic_link.error", err, nil)
		c.Status(fiber.StatusInternalServerError)
		return render(c, "login", fiber.Map{"Err": genericFailure, "Email": email})
	}
	log.Audit(c, "auth.magic_link.request", map[string]any{"email": email})
	return render(c, "login", fiber.Map{"Info": "If that address has an account, a sign-in link is on its way."})
}

// GET /auth/magic?token=...
func (h *AuthHandler) VerifyMagicLink(c *fiber.Ctx) error {
	sid := ensureSID(c, h.CookieSecure)
	u, err := h.Auth.VerifyMagicLink(c.UserContext(), sid, c.Query("token"))
	if err != nil {
		if errors.Is(err, services.ErrBadToken) {
			log.Security(c, "auth.magic_link.fail", nil)
			c.Status(fiber.StatusUnauthorized)
			return render(c, "login", fiber.Map{"Err": "That sign-in link is invalid or has expired."})
		}
		log.Error(c, "auth.magic_link.error", err, nil)
		return page(c, fiber.StatusInternalServerError, genericFailure)
	}
	log.Audit(c, "auth.magic_link.success", map[string]any{"email": u.Email})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(sidCookie)
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout.error", err, nil)
		}
	}
	clearSID(c, h.CookieSecure)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

// POST /theme flips between the light and dark theme.
func (h *AuthHandler) ToggleTheme(c *fiber.Ctx) error {
	next := "dark"
	if theme(c) == "dark" {
		next = "light"
	}
	c.Cookie(&fiber.Cookie{
		Name:     themeCookie,
		Value:    next,
		Path:     "/",
		MaxAge:   365 * 24 * 3600,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
	})
	return c.Redirect(localReferer(c))
}

// localReferer returns the path of a same-host Referer, or "/".
func localReferer(c *fiber.Ctx) string {
	u, err := url.Parse(c.Get(fiber.HeaderReferer))
	if err != nil || u.Host != c.Hostname() || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
