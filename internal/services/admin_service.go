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

// CarouselInput is the raw content of the carousel form.
type CarouselInput struct {
	Title        string
	Subtitle     string
	LinkURL      string
	DisplayOrder string
	Active       bool
}

func (in CarouselInput) apply(it *domain.CarouselItem) error {
	title, ok := validate.Title(in.Title)
	if !ok && title != "" {
		return fmt.Errorf("%w: title must be at most 100 characters", ErrInvalid)
	}
	sub, ok := validate.Title(in.Subtitle)
	if !ok && sub != "" {
		return fmt.Errorf("%w: subtitle must be at most 100 characters", ErrInvalid)
	}
	link, ok := validate.LinkURL(in.LinkURL)
	if !ok {
		return fmt.Errorf("%w: link must be a site path or an http(s) URL", ErrInvalid)
	}
	order, ok := validate.DisplayOrder(in.DisplayOrder)
	if !ok {
		return fmt.Errorf("%w: display order must be a whole number", ErrInvalid)
	}
	it.Title, it.Subtitle, it.LinkURL, it.DisplayOrder, it.Active = title, sub, link, order, in.Active
	return nil
}

type AdminService struct {
	Prods    *repos.ProductRepo
	Slides   *repos.CarouselRepo
	Accounts *repos.UserRepo
	Images   ImageStore
	Events   *EventBus

	Now func() time.Time
}

func NewAdminService(prods *repos.ProductRepo, carousel *repos.CarouselRepo, users *repos.UserRepo, images ImageStore, events *EventBus) *AdminService {
	return &AdminService{Prods: prods, Slides: carousel, Accounts: users, Images: images, Events: events}
}

func (s *AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Products lists every product, newest first, with seller emails.
func (s *AdminService) Products(ctx context.Context) ([]domain.Product, error) {
	ps, err := s.Prods.List(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := attachSellers(ctx, s.Accounts, ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *AdminService) ToggleSponsored(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.Sponsored = !p.Sponsored
	return p, s.Prods.SetSponsored(ctx, id, p.Sponsored)
}

// ---------- Carousel ----------

func (s *AdminService) Carousel(ctx context.Context) ([]domain.CarouselItem, error) {
	return s.Slides.List(ctx, false)
}

func (s *AdminService) carouselItem(ctx context.Context, id string) (domain.CarouselItem, error) {
	it, err := s.Slides.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return it, ErrNotFound
	}
	return it, err
}

// CreateCarousel adds a slide. An image is required.
func (s *AdminService) CreateCarousel(ctx context.Context, in CarouselInput, img *Upload) (domain.CarouselItem, error) {
	var it domain.CarouselItem
	if img == nil || img.Size == 0 {
		return it, ErrImageMissing
	}
	if err := in.apply(&it); err != nil {
		return it, err
	}
	url, err := storeImage(s.Images, "", img, s.now())
	if err != nil {
		return it, err
	}
	it.ID = uuid.NewString()
	it.ImageURL = url
	if err := s.Slides.Create(ctx, &it); err != nil {
		return it, err
	}
	return it, nil
}

func (s *AdminService) UpdateCarousel(ctx context.Context, id string, in CarouselInput) (domain.CarouselItem, error) {
	it, err := s.carouselItem(ctx, id)
	if err != nil {
		return it, err
	}
	if err := in.apply(&it); err != nil {
		return it, err
	}
	return it, s.Slides.Update(ctx, &it)
}

func (s *AdminService) ToggleCarouselActive(ctx context.Context, id string) (domain.CarouselItem, error) {
	it, err := s.carouselItem(ctx, id)
	if err != nil {
		return it, err
	}
	it.Active = !it.Active
	return it, s.Slides.Update(ctx, &it)
}

func (s *AdminService) DeleteCarousel(ctx context.Context, id string) error {
	if _, err := s.carouselItem(ctx, id); err != nil {
		return err
	}
	return s.Slides.Delete(ctx, id)
}

// ---------- Roles ----------

// Users lists every profile with its current roles.
func (s *AdminService) Users(ctx context.Context) ([]domain.UserWithRoles, error) {
	users, err := s.Accounts.All(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Accounts.AllRoles(ctx)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string][]domain.Role)
	for _, r := range rows {
		byUser[r.UserID] = append(byUser[r.UserID], r.Role)
	}
	out := make([]domain.UserWithRoles, 0, len(users))
	for _, u := range users {
		out = append(out, domain.UserWithRoles{ID: u.ID, Email: u.Email, FullName: u.FullName, Roles: byUser[u.ID]})
	}
	return out, nil
}

func (s *AdminService) checkTarget(ctx context.Context, userID, role string) (domain.Role, error) {
	r, ok := domain.ParseRole(role)
	if !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	if _, err := s.Accounts.ByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return r, nil
}

func (s *AdminService) GrantRole(ctx context.Context, actor *domain.User, userID, role string) error {
	r, err := s.checkTarget(ctx, userID, role)
	if err != nil {
		return err
	}
	if err := s.Accounts.GrantRole(ctx, userID, r); err != nil {
		return err
	}
	s.Events.Publish(SessionEvent{Kind: EventRoleGranted, UserID: userID, Role: r, ActorID: actorID(actor)})
	return nil
}

// RevokeRole removes role from userID. An admin may revoke their own admin
// role; callers decide how to record that.
func (s *AdminService) RevokeRole(ctx context.Context, actor *domain.User, userID, role string) error {
	r, err := s.checkTarget(ctx, userID, role)
	if err != nil {
		return err
	}
	if err := s.Accounts.RevokeRole(ctx, userID, r); err != nil {
		return err
	}
	s.Events.Publish(SessionEvent{Kind: EventRoleRevoked, UserID: userID, Role: r, ActorID: actorID(actor)})
	return nil
}

func actorID(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
