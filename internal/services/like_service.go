package services

import (
	"context"
	"database/sql"
	"errors"

	"pumarket/internal/domain"
	"pumarket/internal/repos"
)

type LikeService struct {
	Likes *repos.LikeRepo
	Prods *repos.ProductRepo
	Users *repos.UserRepo
}

func NewLikeService(likes *repos.LikeRepo, prods *repos.ProductRepo, users *repos.UserRepo) *LikeService {
	return &LikeService{Likes: likes, Prods: prods, Users: users}
}

// Toggle flips viewer's like on an available product and returns the
// re-derived state.
func (s *LikeService) Toggle(ctx context.Context, viewer *domain.User, productID string) (domain.LikeState, error) {
	if viewer == nil {
		return domain.LikeState{}, ErrAuthRequired
	}
	p, err := s.Prods.Get(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LikeState{}, ErrNotFound
	}
	if err != nil {
		return domain.LikeState{}, err
	}
	if !p.Available {
		return domain.LikeState{}, ErrUnavailable
	}

	cur, err := s.State(ctx, viewer.ID, productID)
	if err != nil {
		return domain.LikeState{}, err
	}
	if cur.Liked {
		err = s.Likes.Remove(ctx, productID, viewer.ID)
	} else {
		err = s.Likes.Add(ctx, productID, viewer.ID)
	}
	if err != nil {
		return domain.LikeState{}, err
	}
	return s.State(ctx, viewer.ID, productID)
}

// State derives count, whether viewerID likes the product and whether any
// current admin does. viewerID may be empty.
func (s *LikeService) State(ctx context.Context, viewerID, productID string) (domain.LikeState, error) {
	likers, err := s.Likes.Likers(ctx, productID)
	if err != nil {
		return domain.LikeState{}, err
	}
	st := domain.LikeState{Count: len(likers)}
	if len(likers) == 0 {
		return st, nil
	}
	for _, id := range likers {
		if viewerID != "" && id == viewerID {
			st.Liked = true
		}
	}
	admins, err := s.Users.HoldersOf(ctx, domain.RoleAdmin, likers)
	if err != nil {
		return domain.LikeState{}, err
	}
	st.AdminEndorsed = len(admins) > 0
	return st, nil
}

// Summaries derives the state of many products with two queries in total.
func (s *LikeService) Summaries(ctx context.Context, viewerID string, productIDs []string) (map[string]domain.LikeState, error) {
	out := make(map[string]domain.LikeState, len(productIDs))
	for _, id := range productIDs {
		out[id] = domain.LikeState{}
	}
	rows, err := s.Likes.LikersOf(ctx, productIDs)
	if err != nil || len(rows) == 0 {
		return out, err
	}

	seen := make(map[string]bool)
	var likers []string
	for _, r := range rows {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			likers = append(likers, r.UserID)
		}
	}
	admins, err := s.Users.HoldersOf(ctx, domain.RoleAdmin, likers)
	if err != nil {
		return nil, err
	}
	isAdmin := make(map[string]bool, len(admins))
	for _, id := range admins {
		isAdmin[id] = true
	}

	for _, r := range rows {
		st := out[r.ProductID]
		st.Count++
		if viewerID != "" && r.UserID == viewerID {
			st.Liked = true
		}
		if isAdmin[r.UserID] {
			st.AdminEndorsed = true
		}
		out[r.ProductID] = st
	}
	return out, nil
}
