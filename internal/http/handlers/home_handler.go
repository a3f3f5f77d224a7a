package handlers

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"pumarket/internal/domain"
	"pumarket/internal/log"
	"pumarket/internal/services"
	"pumarket/internal/validate"
)

type HomeHandler struct {
	Catalog *services.CatalogService
	Likes   *services.LikeService
}

// parseFilter reads q, category and mode from the query string.
func parseFilter(c *fiber.Ctx) (services.FilterSpec, error) {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		return services.FilterSpec{}, services.ErrInvalid
	}
	cat, err := services.ParseCategory(c.Query("category"))
	if err != nil {
		return services.FilterSpec{}, err
	}
	mode, err := services.ParseMode(c.Query("mode"))
	if err != nil {
		return services.FilterSpec{}, err
	}
	return services.FilterSpec{Search: q, Category: cat, Mode: mode}, nil
}

func productIDs(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func (h *HomeHandler) Home(c *fiber.Ctx) error {
	data := fiber.Map{
		"Categories": domain.Categories,
		"Modes":      services.Modes,
		"Q":          c.Query("q"),
		"Category":   c.Query("category"),
		"Mode":       c.Query("mode"),
	}
	spec, err := parseFilter(c)
	if err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "filter", "q": c.Query("q"), "category": c.Query("category"), "mode": c.Query("mode")})
		data["Err"] = "Enter a valid search, category and filter."
		c.Status(fiber.StatusBadRequest)
		return render(c, "home", data)
	}

	var (
		carousel  []domain.CarouselItem
		sponsored []domain.Product
		products  []domain.Product
		likes     map[string]domain.LikeState
	)
	uid := viewerID(c)
	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() (err error) {
		carousel, err = h.Catalog.ActiveCarousel(ctx)
		return err
	})
	g.Go(func() (err error) {
		sponsored, err = h.Catalog.Sponsored(ctx, 6)
		return err
	})
	g.Go(func() (err error) {
		if products, err = h.Catalog.Browse(ctx, spec); err != nil {
			return err
		}
		likes, err = h.Likes.Summaries(ctx, uid, productIDs(products))
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error(c, "home.load", err, nil)
		return page(c, fiber.StatusInternalServerError, "Could not load listings. Please retry.")
	}

	data["Carousel"] = carousel
	data["Sponsored"] = sponsored
	data["Products"] = products
	data["Likes"] = likes
	data["Count"] = len(products)
	return render(c, "home", data)
}
