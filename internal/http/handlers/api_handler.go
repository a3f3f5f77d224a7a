package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pumarket/internal/domain"
	"pumarket/internal/log"
	"pumarket/internal/services"
	"pumarket/internal/validate"
)

// APIHandler serves the read-only JSON view of the catalog.
type APIHandler struct {
	Catalog  *services.CatalogService
	Likes    *services.LikeService
	Comments *services.CommentService
}

type productJSON struct {
	domain.Product
	Likes domain.LikeState `json:"likes"`
}

func apiError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// GET /api/v1/products?q=&category=&mode=
func (h *APIHandler) Products(c *fiber.Ctx) error {
	spec, err := parseFilter(c)
	if err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "filter"})
		return apiError(c, fiber.StatusBadRequest, "invalid q, category or mode")
	}
	ps, err := h.Catalog.Browse(c.UserContext(), spec)
	if err != nil {
		log.Error(c, "api.products", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load products")
	}
	likes, err := h.Likes.Summaries(c.UserContext(), viewerID(c), productIDs(ps))
	if err != nil {
		log.Error(c, "api.products.likes", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load products")
	}
	out := make([]productJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, productJSON{Product: p, Likes: likes[p.ID]})
	}
	return c.JSON(fiber.Map{"count": len(out), "products": out})
}

func (h *APIHandler) product(c *fiber.Ctx) (string, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", apiError(c, fiber.StatusBadRequest, "invalid product id")
	}
	if _, err := h.Catalog.Get(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return "", apiError(c, fiber.StatusNotFound, "product not found")
		}
		log.Error(c, "api.product", err, nil)
		return "", apiError(c, fiber.StatusInternalServerError, "could not load product")
	}
	return id, nil
}

// GET /api/v1/products/:id/likes
func (h *APIHandler) ProductLikes(c *fiber.Ctx) error {
	id, err := h.product(c)
	if id == "" {
		return err
	}
	st, err := h.Likes.State(c.UserContext(), viewerID(c), id)
	if err != nil {
		log.Error(c, "api.likes", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load likes")
	}
	return c.JSON(st)
}

// GET /api/v1/products/:id/comments
func (h *APIHandler) ProductComments(c *fiber.Ctx) error {
	id, err := h.product(c)
	if id == "" {
		return err
	}
	cs, err := h.Comments.List(c.UserContext(), id)
	if err != nil {
		log.Error(c, "api.comments", err, nil)
		return apiError(c, fiber.StatusInternalServerError, "could not load comments")
	}
	if cs == nil {
		cs = []domain.Comment{}
	}
	return c.JSON(fiber.Map{"count": len(cs), "comments": cs})
}
