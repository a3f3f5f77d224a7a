package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pumarket/internal/domain"
	applog "pumarket/internal/log"
	"pumarket/internal/services"
	"pumarket/internal/storage"
	"pumarket/internal/validate"
)

type AdminHandler struct {
	Admin *services.AdminService
}

var adminTabs = []string{"products", "carousel", "users"}

func carouselForm(c *fiber.Ctx) services.CarouselInput {
	return services.CarouselInput{
		Title:        c.FormValue("title"),
		Subtitle:     c.FormValue("subtitle"),
		LinkURL:      c.FormValue("link_url"),
		DisplayOrder: c.FormValue("display_order"),
		Active:       c.FormValue("is_active") != "",
	}
}

// dashboard renders one admin tab; extra carries flash and form state.
func (h *AdminHandler) dashboard(c *fiber.Ctx, tab string, extra fiber.Map) error {
	ctx := c.UserContext()
	data := fiber.Map{"Tab": tab, "Tabs": adminTabs, "Roles": domain.Roles}
	var err error
	switch tab {
	case "carousel":
		data["Carousel"], err = h.Admin.Carousel(ctx)
	case "users":
		data["Users"], err = h.Admin.Users(ctx)
	default:
		data["Tab"] = "products"
		data["Products"], err = h.Admin.Products(ctx)
	}
	if err != nil {
		return fail(c, "admin.dashboard", err, map[string]any{"tab": tab})
	}
	for k, v := range extra {
		data[k] = v
	}
	return render(c, "admin_dashboard", data)
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return h.dashboard(c, c.Query("tab"), nil)
}

func (h *AdminHandler) id(c *fiber.Ctx) (string, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
	}
	return id, ok
}

// POST /admin/products/:id/sponsor
func (h *AdminHandler) ToggleSponsored(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "Listing not found")
	}
	p, err := h.Admin.ToggleSponsored(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.sponsor", err, map[string]any{"product": id})
	}
	applog.Audit(c, "admin.product.sponsor", map[string]any{"product": id, "sponsored": p.Sponsored})
	return c.Redirect("/admin?tab=products")
}

// carouselFailure re-renders the carousel tab with the error and values.
func (h *AdminHandler) carouselFailure(c *fiber.Ctx, err error, in services.CarouselInput, action string) error {
	status := statusFor(err)
	if status != fiber.StatusBadRequest {
		return fail(c, "admin.carousel", err, nil)
	}
	applog.Security(c, "validation.fail", map[string]any{"op": "admin.carousel", "reason": err.Error()})
	msg := userMessage(err)
	if errors.Is(err, storage.ErrTooLarge) {
		msg = "Carousel images must be 2 MB or smaller."
	}
	c.Status(status)
	return h.dashboard(c, "carousel", fiber.Map{"Err": msg, "Form": fiber.Map{
		"Action": action, "Title": in.Title, "Subtitle": in.Subtitle, "LinkURL": in.LinkURL,
		"DisplayOrder": in.DisplayOrder, "Active": in.Active,
	}})
}

// POST /admin/carousel
func (h *AdminHandler) CreateCarousel(c *fiber.Ctx) error {
	in := carouselForm(c)
	it, err := h.Admin.CreateCarousel(c.UserContext(), in, formUpload(c, "image"))
	if err != nil {
		return h.carouselFailure(c, err, in, "/admin/carousel")
	}
	applog.Audit(c, "admin.carousel.create", map[string]any{"item": it.ID})
	return c.Redirect("/admin?tab=carousel")
}

// POST /admin/carousel/:id
func (h *AdminHandler) UpdateCarousel(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "Carousel item not found")
	}
	in := carouselForm(c)
	if _, err := h.Admin.UpdateCarousel(c.UserContext(), id, in); err != nil {
		return h.carouselFailure(c, err, in, "/admin/carousel/"+id)
	}
	applog.Audit(c, "admin.carousel.update", map[string]any{"item": id})
	return c.Redirect("/admin?tab=carousel")
}

// POST /admin/carousel/:id/toggle
func (h *AdminHandler) ToggleCarousel(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "Carousel item not found")
	}
	it, err := h.Admin.ToggleCarouselActive(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.carousel", err, map[string]any{"item": id})
	}
	applog.Audit(c, "admin.carousel.toggle", map[string]any{"item": id, "active": it.Active})
	return c.Redirect("/admin?tab=carousel")
}

// POST /admin/carousel/:id/delete
func (h *AdminHandler) DeleteCarousel(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "Carousel item not found")
	}
	if err := h.Admin.DeleteCarousel(c.UserContext(), id); err != nil {
		return fail(c, "admin.carousel", err, map[string]any{"item": id})
	}
	applog.Audit(c, "admin.carousel.delete", map[string]any{"item": id})
	return c.Redirect("/admin?tab=carousel")
}

// POST /admin/users/:id/roles with role=<role>&op=grant|revoke
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "User not found")
	}
	role := c.FormValue("role")
	actor := viewer(c)
	var err error
	op := c.FormValue("op")
	switch op {
	case "grant":
		err = h.Admin.GrantRole(c.UserContext(), actor, id, role)
	case "revoke":
		err = h.Admin.RevokeRole(c.UserContext(), actor, id, role)
	default:
		err = services.ErrInvalid
	}
	if err != nil {
		return fail(c, "admin.roles", err, map[string]any{"target": id, "role": role, "op": op})
	}
	fields := map[string]any{"target": id, "role": role}
	applog.Audit(c, "admin.roles."+op, fields)
	if op == "revoke" && actor != nil && actor.ID == id && role == string(domain.RoleAdmin) {
		applog.Audit(c, "admin.roles.self_revoke", fields)
		return c.Redirect("/")
	}
	return c.Redirect("/admin?tab=users")
}
