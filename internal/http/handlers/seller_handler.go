package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"pumarket/internal/domain"
	"pumarket/internal/log"
	"pumarket/internal/services"
	"pumarket/internal/storage"
	"pumarket/internal/validate"
)

type SellerHandler struct {
	Seller       *services.SellerService
	CookieSecure bool
}

const (
	flashCookie  = "flash"
	flashFirst   = "first_listing"
	flashTimeout = 60 // seconds
)

// setFlash stores value for the next dashboard render. An empty value
// expires the cookie.
func (h *SellerHandler) setFlash(c *fiber.Ctx, value string) {
	ck := &fiber.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/seller",
		MaxAge:   flashTimeout,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
	}
	if value == "" {
		ck.MaxAge = 0
		ck.Expires = time.Unix(0, 0)
	}
	c.Cookie(ck)
}

// takeFlash returns the pending flash and clears it.
func (h *SellerHandler) takeFlash(c *fiber.Ctx) string {
	v := c.Cookies(flashCookie)
	if v != "" {
		h.setFlash(c, "")
	}
	return v
}

func productForm(c *fiber.Ctx) services.ProductInput {
	return services.ProductInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Category:    c.FormValue("category"),
	}
}

// dashboard renders the seller page. The listing form is closed unless
// form is non-nil.
func (h *SellerHandler) dashboard(c *fiber.Ctx, form fiber.Map) error {
	products, err := h.Seller.List(c.UserContext(), viewer(c))
	if err != nil {
		return fail(c, "seller.list", err, nil)
	}
	data := fiber.Map{"Products": products, "Categories": domain.Categories}
	if form != nil {
		data["Form"] = form
	}
	switch {
	case h.takeFlash(c) == flashFirst:
		data["Flash"] = "Your first listing is live. Welcome to PU-Marketplace!"
	case c.Query("created") != "":
		data["Flash"] = "Listing created."
	case c.Query("saved") != "":
		data["Flash"] = "Listing saved."
	}
	return render(c, "seller_dashboard", data)
}

// GET /seller, GET /seller?new=1, GET /seller?edit=<id>
func (h *SellerHandler) Dashboard(c *fiber.Ctx) error {
	if c.Query("new") != "" {
		return h.dashboard(c, fiber.Map{"Action": "/seller/products", "Category": ""})
	}
	if id := c.Query("edit"); id != "" {
		products, err := h.Seller.List(c.UserContext(), viewer(c))
		if err != nil {
			return fail(c, "seller.list", err, nil)
		}
		for _, p := range products {
			if p.ID == id {
				return h.dashboard(c, fiber.Map{
					"Action": "/seller/products/" + p.ID, "Editing": true,
					"Title": p.Title, "Description": p.Description, "Price": p.Price,
					"Category": p.Category, "ImageURL": p.ImageURL,
				})
			}
		}
		log.Security(c, "access.denied.seller.product", map[string]any{"product": id})
		return page(c, fiber.StatusNotFound, "Listing not found")
	}
	return h.dashboard(c, nil)
}

// formFailure keeps the form open with the submitted values and the error.
func (h *SellerHandler) formFailure(c *fiber.Ctx, action string, err error, in services.ProductInput, editing bool) error {
	status := statusFor(err)
	if status == fiber.StatusForbidden || status == fiber.StatusNotFound || status == fiber.StatusInternalServerError {
		return fail(c, "seller.product", err, map[string]any{"action": action})
	}
	log.Security(c, "validation.fail", map[string]any{"op": "seller.product", "reason": err.Error()})
	c.Status(status)
	msg := userMessage(err)
	if status == fiber.StatusBadRequest && errors.Is(err, storage.ErrTooLarge) {
		msg = "Product images must be 1 MB or smaller."
	}
	return h.dashboard(c, fiber.Map{
		"Action": action, "Editing": editing, "Err": msg,
		"Title": in.Title, "Description": in.Description, "Price": in.Price, "Category": in.Category,
	})
}

// POST /seller/products
func (h *SellerHandler) Create(c *fiber.Ctx) error {
	in := productForm(c)
	res, err := h.Seller.Create(c.UserContext(), viewer(c), in, formUpload(c, "image"))
	if err != nil {
		return h.formFailure(c, "/seller/products", err, in, false)
	}
	log.Audit(c, "seller.product.create", map[string]any{"product": res.Product.ID, "first": res.First})
	if res.First {
		h.setFlash(c, flashFirst)
	}
	return c.Redirect("/seller?created=1")
}

func (h *SellerHandler) id(c *fiber.Ctx) (string, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
	}
	return id, ok
}

// POST /seller/products/:id
func (h *SellerHandler) Update(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "Listing not found")
	}
	in := productForm(c)
	if _, err := h.Seller.Update(c.UserContext(), viewer(c), id, in, formUpload(c, "image")); err != nil {
		return h.formFailure(c, "/seller/products/"+id, err, in, true)
	}
	log.Audit(c, "seller.product.update", map[string]any{"product": id})
	return c.Redirect("/seller?saved=1")
}

// POST /seller/products/:id/availability
func (h *SellerHandler) ToggleAvailability(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "Listing not found")
	}
	p, err := h.Seller.ToggleAvailability(c.UserContext(), viewer(c), id)
	if err != nil {
		return fail(c, "seller.product", err, map[string]any{"product": id})
	}
	log.Audit(c, "seller.product.availability", map[string]any{"product": id, "available": p.Available})
	return c.Redirect("/seller")
}

// POST /seller/products/:id/delete
func (h *SellerHandler) Delete(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "Listing not found")
	}
	if err := h.Seller.Delete(c.UserContext(), viewer(c), id); err != nil {
		return fail(c, "seller.product", err, map[string]any{"product": id})
	}
	log.Audit(c, "seller.product.delete", map[string]any{"product": id})
	return c.Redirect("/seller")
}
