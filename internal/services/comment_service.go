package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pumarket/internal/domain"
	"pumarket/internal/repos"
	"pumarket/internal/validate"
)

// MaxCommentsPerProduct is how many comments one author may leave on a product.
const MaxCommentsPerProduct = 10

type CommentService struct {
	Comments *repos.CommentRepo
	Prods    *repos.ProductRepo
	Users    *repos.UserRepo
}

func NewCommentService(comments *repos.CommentRepo, prods *repos.ProductRepo, users *repos.UserRepo) *CommentService {
	return &CommentService{Comments: comments, Prods: prods, Users: users}
}

// List returns the product's comments newest first with display names
// resolved in a single profile lookup.
func (s *CommentService) List(ctx context.Context, productID string) ([]domain.Comment, error) {
	cs, err := s.Comments.ListByProduct(ctx, productID)
	if err != nil || len(cs) == 0 {
		return cs, err
	}
	ids := make([]string, 0, len(cs))
	seen := make(map[string]bool)
	for _, c := range cs {
		if !seen[c.SellerID] {
			seen[c.SellerID] = true
			ids = append(ids, c.SellerID)
		}
	}
	profiles, err := s.Users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range cs {
		p := profiles[cs[i].SellerID]
		cs[i].DisplayName = domain.DisplayName(p.FullName, p.Email)
	}
	return cs, nil
}

// CountByAuthor is how many comments authorID has left on productID.
func (s *CommentService) CountByAuthor(ctx context.Context, productID, authorID string) (int, error) {
	if authorID == "" {
		return 0, nil
	}
	return s.Comments.CountByAuthor(ctx, productID, authorID)
}

// Post adds a comment by a seller or admin. The per-author quota is checked
// before the insert and is not atomic with it.
func (s *CommentService) Post(ctx context.Context, viewer *domain.User, productID, text string) (*domain.Comment, error) {
	if viewer == nil {
		return nil, ErrAuthRequired
	}
	if !viewer.CanSell() {
		return nil, ErrForbidden
	}
	p, err := s.Prods.Get(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.Available {
		return nil, ErrUnavailable
	}
	text, ok := validate.Comment(text)
	if !ok {
		return nil, fmt.Errorf("%w: comment must be 1-%d characters", ErrInvalid, validate.MaxCommentLen)
	}

	n, err := s.CountByAuthor(ctx, productID, viewer.ID)
	if err != nil {
		return nil, err
	}
	if n >= MaxCommentsPerProduct {
		return nil, ErrQuotaReached
	}

	c := &domain.Comment{ID: uuid.NewString(), ProductID: productID, SellerID: viewer.ID, Text: text}
	if err := s.Comments.Create(ctx, c); err != nil {
		return nil, err
	}
	c.DisplayName = viewer.DisplayName()
	return c, nil
}
