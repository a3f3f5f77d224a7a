package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pumarket/internal/domain"
	"pumarket/internal/repos"
	"pumarket/internal/validate"
)

// ProductInput is the raw content of the listing form.
type ProductInput struct {
	Title       string
	Description string
	Price       string
	Category    string
}

func (in ProductInput) parse() (domain.Product, error) {
	var p domain.Product
	var ok bool
	if p.Title, ok = validate.Title(in.Title); !ok {
		return p, fmt.Errorf("%w: title must be 1-100 characters", ErrInvalid)
	}
	if p.Description, ok = validate.Description(in.Description); !ok {
		return p, fmt.Errorf("%w: description is too long", ErrInvalid)
	}
	if p.Price, ok = validate.Price(in.Price); !ok {
		return p, fmt.Errorf("%w: price must be a non-negative number", ErrInvalid)
	}
	cat, err := ParseCategory(in.Category)
	if err != nil || cat == "" {
		return p, fmt.Errorf("%w: choose a category", ErrInvalid)
	}
	p.Category = cat
	return p, nil
}

// CreateResult reports the new listing and whether it is the seller's first.
type CreateResult struct {
	Product domain.Product
	First   bool
}

type SellerService struct {
	Prods  *repos.ProductRepo
	Images ImageStore

	Now func() time.Time
}

func NewSellerService(prods *repos.ProductRepo, images ImageStore) *SellerService {
	return &SellerService{Prods: prods, Images: images}
}

func (s *SellerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func requireSeller(u *domain.User) error {
	if u == nil {
		return ErrAuthRequired
	}
	if !u.CanSell() {
		return ErrForbidden
	}
	return nil
}

// owned loads id and checks that seller owns it.
func (s *SellerService) owned(ctx context.Context, seller *domain.User, id string) (domain.Product, error) {
	if err := requireSeller(seller); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if p.SellerID != seller.ID {
		return p, ErrForbidden
	}
	return p, nil
}

func (s *SellerService) List(ctx context.Context, seller *domain.User) ([]domain.Product, error) {
	if err := requireSeller(seller); err != nil {
		return nil, err
	}
	return s.Prods.ListBySeller(ctx, seller.ID)
}

// Create lists a new available product. img may be nil.
func (s *SellerService) Create(ctx context.Context, seller *domain.User, in ProductInput, img *Upload) (CreateResult, error) {
	if err := requireSeller(seller); err != nil {
		return CreateResult{}, err
	}
	p, err := in.parse()
	if err != nil {
		return CreateResult{}, err
	}
	before, err := s.Prods.CountBySeller(ctx, seller.ID)
	if err != nil {
		return CreateResult{}, err
	}
	if img != nil {
		if p.ImageURL, err = storeImage(s.Images, seller.ID, img, s.now()); err != nil {
			return CreateResult{}, err
		}
	}

	p.ID = uuid.NewString()
	p.SellerID = seller.ID
	p.Available = true
	if err := s.Prods.Create(ctx, &p); err != nil {
		return CreateResult{}, err
	}
	p.SellerEmail = seller.Email
	return CreateResult{Product: p, First: before == 0}, nil
}

// Update rewrites an owned listing. Without img the previous image is kept.
func (s *SellerService) Update(ctx context.Context, seller *domain.User, id string, in ProductInput, img *Upload) (domain.Product, error) {
	cur, err := s.owned(ctx, seller, id)
	if err != nil {
		return cur, err
	}
	next, err := in.parse()
	if err != nil {
		return cur, err
	}
	cur.Title, cur.Description, cur.Price, cur.Category = next.Title, next.Description, next.Price, next.Category
	if img != nil {
		if cur.ImageURL, err = storeImage(s.Images, seller.ID, img, s.now()); err != nil {
			return cur, err
		}
	}
	if err := s.Prods.Update(ctx, &cur); err != nil {
		return cur, err
	}
	return cur, nil
}

// ToggleAvailability marks an owned listing sold, or available again.
func (s *SellerService) ToggleAvailability(ctx context.Context, seller *domain.User, id string) (domain.Product, error) {
	p, err := s.owned(ctx, seller, id)
	if err != nil {
		return p, err
	}
	p.Available = !p.Available
	return p, s.Prods.SetAvailable(ctx, id, p.Available)
}

func (s *SellerService) Delete(ctx context.Context, seller *domain.User, id string) error {
	if _, err := s.owned(ctx, seller, id); err != nil {
		return err
	}
	return s.Prods.Delete(ctx, id)
}
