package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pumarket/internal/domain"
	"pumarket/internal/repos"
)

type CatalogService struct {
	Prods    *repos.ProductRepo
	Users    *repos.UserRepo
	Carousel *repos.CarouselRepo

	// Now is the clock used by the date filters; nil means time.Now.
	Now func() time.Time
}

func NewCatalogService(prods *repos.ProductRepo, users *repos.UserRepo, carousel *repos.CarouselRepo) *CatalogService {
	return &CatalogService{Prods: prods, Users: users, Carousel: carousel}
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Browse fetches the catalog newest first, narrowed to spec.Category by the
// database, then applies the rest of spec in memory.
func (s *CatalogService) Browse(ctx context.Context, spec FilterSpec) ([]domain.Product, error) {
	category := spec.Category
	if category == "all" {
		category = ""
	}
	all, err := s.Prods.List(ctx, category)
	if err != nil {
		return nil, err
	}
	out := ApplyFilter(all, spec, s.now())
	if err := attachSellers(ctx, s.Users, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sponsored returns up to limit sponsored, available products.
func (s *CatalogService) Sponsored(ctx context.Context, limit int) ([]domain.Product, error) {
	out, err := s.Prods.Sponsored(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := attachSellers(ctx, s.Users, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CatalogService) ActiveCarousel(ctx context.Context) ([]domain.CarouselItem, error) {
	return s.Carousel.List(ctx, true)
}

func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if u, err := s.Users.ByID(ctx, p.SellerID); err == nil {
		p.SellerEmail = u.Email
	}
	return p, nil
}

// attachSellers fills SellerEmail with one profile query for the whole slice.
func attachSellers(ctx context.Context, users *repos.UserRepo, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if !seen[p.SellerID] {
			seen[p.SellerID] = true
			ids = append(ids, p.SellerID)
		}
	}
	profiles, err := users.ByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range products {
		products[i].SellerEmail = profiles[products[i].SellerID].Email
	}
	return nil
}
