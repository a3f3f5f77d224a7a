package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pumarket/internal/log"
	"pumarket/internal/services"
	"pumarket/internal/validate"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	Likes    *services.LikeService
	Comments *services.CommentService
}

func (h *ProductHandler) productID(c *fiber.Ctx) (string, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
	}
	return id, ok
}

// detail renders the product page; extra carries form state such as a
// rejected comment.
func (h *ProductHandler) detail(c *fiber.Ctx, id string, extra fiber.Map) error {
	ctx := c.UserContext()
	p, err := h.Catalog.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return page(c, fiber.StatusNotFound, "This item is no longer available")
		}
		return fail(c, "product.load", err, map[string]any{"product": id})
	}
	like, err := h.Likes.State(ctx, viewerID(c), id)
	if err != nil {
		return fail(c, "product.likes", err, map[string]any{"product": id})
	}
	comments, err := h.Comments.List(ctx, id)
	if err != nil {
		return fail(c, "product.comments", err, map[string]any{"product": id})
	}
	data := fiber.Map{
		"P":          p,
		"Like":       like,
		"Comments":   comments,
		"MaxComment": validate.MaxCommentLen,
		"MaxPerUser": services.MaxCommentsPerProduct,
	}
	if u := viewer(c); u.CanSell() && p.Available {
		n, err := h.Comments.CountByAuthor(ctx, id, u.ID)
		if err != nil {
			return fail(c, "product.comments", err, map[string]any{"product": id})
		}
		data["CanComment"] = n < services.MaxCommentsPerProduct
		data["QuotaReached"] = n >= services.MaxCommentsPerProduct
		data["MyComments"] = n
	}
	for k, v := range extra {
		data[k] = v
	}
	return render(c, "product", data)
}

// GET /product/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "This item is no longer available")
	}
	return h.detail(c, id, nil)
}

// POST /product/:id/like
func (h *ProductHandler) Like(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "This item is no longer available")
	}
	st, err := h.Likes.Toggle(c.UserContext(), viewer(c), id)
	if errors.Is(err, services.ErrAuthRequired) {
		return c.Redirect("/login")
	}
	if err != nil {
		return fail(c, "like", err, map[string]any{"product": id})
	}
	log.Info(c, "like.toggle", map[string]any{"product": id, "liked": st.Liked, "count": st.Count})
	if back := c.FormValue("back"); back == "home" {
		return c.Redirect("/")
	}
	return c.Redirect("/product/" + id)
}

// POST /product/:id/comments
func (h *ProductHandler) Comment(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return page(c, fiber.StatusNotFound, "This item is no longer available")
	}
	text := c.FormValue("comment")
	cm, err := h.Comments.Post(c.UserContext(), viewer(c), id, text)
	switch {
	case errors.Is(err, services.ErrAuthRequired):
		return c.Redirect("/login")
	case errors.Is(err, services.ErrInvalid), errors.Is(err, services.ErrQuotaReached), errors.Is(err, services.ErrUnavailable):
		log.Info(c, "comment.rejected", map[string]any{"product": id, "reason": err.Error()})
		c.Status(statusFor(err))
		return h.detail(c, id, fiber.Map{"CommentErr": userMessage(err), "CommentText": text})
	case err != nil:
		return fail(c, "comment", err, map[string]any{"product": id})
	}
	log.Audit(c, "comment.create", map[string]any{"product": id, "comment": cm.ID})
	return c.Redirect("/product/" + id + "#comments")
}
