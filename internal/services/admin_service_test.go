package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pumarket/internal/domain"
	"pumarket/internal/repos"
	"pumarket/internal/services"
	"pumarket/internal/storage"
)

func newAdminService(t *testing.T) (*services.AdminService, *memStore, *services.EventBus, func(string) *domain.User) {
	db := memdb(t)
	store := newMemStore(storage.MaxCarouselImage)
	bus := services.NewEventBus()
	svc := services.NewAdminService(repos.NewProductRepo(db), repos.NewCarouselRepo(db), repos.NewUserRepo(db), store, bus)
	return svc, store, bus, func(id string) *domain.User { return loadUser(t, db, id) }
}

func TestToggleSponsored(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAdminService(t)

	p, err := svc.ToggleSponsored(ctx, "p-cycle")
	if err != nil || !p.Sponsored {
		t.Fatalf("sponsor: %+v %v", p, err)
	}
	ps, err := svc.Products(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sellers := map[string]string{"p-physics": "alice@pumarket.test", "p-cycle": "alice@pumarket.test", "p-kettle": "admin@pumarket.test"}
	for _, p := range ps {
		if p.SellerEmail != sellers[p.ID] {
			t.Fatalf("%s seller email %q", p.ID, p.SellerEmail)
		}
		if p.ID == "p-cycle" && !p.Sponsored {
			t.Fatalf("listed: %+v", p)
		}
	}
	if _, err := svc.ToggleSponsored(ctx, "p-missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestCarouselLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newAdminService(t)

	in := services.CarouselInput{Title: "Exam sale", LinkURL: "/?category=Study+Material", DisplayOrder: "-1", Active: true}
	if _, err := svc.CreateCarousel(ctx, in, nil); !errors.Is(err, services.ErrImageMissing) {
		t.Fatalf("no image: %v", err)
	}
	if _, err := svc.CreateCarousel(ctx, in, upload("big.jpg", int(storage.MaxCarouselImage)+1)); !errors.Is(err, storage.ErrTooLarge) {
		t.Fatalf("oversize: %v", err)
	}
	if len(store.objs) != 0 {
		t.Fatal("oversize image reached storage")
	}
	bad := in
	bad.LinkURL = "javascript:alert(1)"
	if _, err := svc.CreateCarousel(ctx, bad, upload("a.jpg", 10)); !errors.Is(err, services.ErrInvalid) {
		t.Fatalf("bad link: %v", err)
	}

	it, err := svc.CreateCarousel(ctx, in, upload("a.jpg", 10))
	if err != nil {
		t.Fatal(err)
	}
	items, _ := svc.Carousel(ctx)
	if len(items) != 2 || items[0].ID != it.ID {
		t.Fatalf("display order: %+v", items)
	}

	it, err = svc.ToggleCarouselActive(ctx, it.ID)
	if err != nil || it.Active {
		t.Fatalf("deactivate: %+v %v", it, err)
	}
	cat := services.CatalogService{Carousel: svc.Slides}
	active, _ := cat.ActiveCarousel(ctx)
	if len(active) != 1 || active[0].ID != "c-welcome" {
		t.Fatalf("active: %+v", active)
	}

	upd := services.CarouselInput{Title: "Exam sale!", DisplayOrder: "5", Active: true}
	it, err = svc.UpdateCarousel(ctx, it.ID, upd)
	if err != nil || it.Title != "Exam sale!" || it.DisplayOrder != 5 || it.LinkURL != "" || it.ImageURL == "" {
		t.Fatalf("update: %+v %v", it, err)
	}

	if err := svc.DeleteCarousel(ctx, it.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCarousel(ctx, it.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestRoleGrantAndRevoke(t *testing.T) {
	ctx := context.Background()
	svc, _, bus, user := newAdminService(t)
	admin := user("u-admin")

	var events []services.SessionEvent
	unsubscribe := bus.Subscribe(func(ev services.SessionEvent) { events = append(events, ev) })
	defer unsubscribe()

	if err := svc.GrantRole(ctx, admin, "u-bob", "seller"); err != nil {
		t.Fatal(err)
	}
	if !user("u-bob").CanSell() {
		t.Fatal("grant not stored")
	}
	if err := svc.GrantRole(ctx, admin, "u-bob", "owner"); !errors.Is(err, services.ErrInvalid) {
		t.Fatalf("unknown role: %v", err)
	}
	if err := svc.GrantRole(ctx, admin, "u-nobody", "seller"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown user: %v", err)
	}

	// Revoking one's own admin role is allowed.
	if err := svc.RevokeRole(ctx, admin, "u-admin", "admin"); err != nil {
		t.Fatal(err)
	}
	if user("u-admin").HasRole(domain.RoleAdmin) {
		t.Fatal("revoke not stored")
	}

	if len(events) != 2 ||
		events[0].Kind != services.EventRoleGranted || events[0].UserID != "u-bob" || events[0].Role != domain.RoleSeller ||
		events[1].Kind != services.EventRoleRevoked || events[1].ActorID != "u-admin" {
		t.Fatalf("events: %+v", events)
	}

	list, err := svc.Users(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range list {
		if u.ID == "u-bob" && !(u.Has("public") && u.Has("seller")) {
			t.Fatalf("bob roles: %v", u.Roles)
		}
	}
}

func TestCarouselUploadsInSameMillisecond(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newAdminService(t)
	svc.Now = func() time.Time { return time.UnixMilli(1700000000123) }

	in := services.CarouselInput{Title: "Fresher week", Active: true}
	for i := 0; i < 2; i++ {
		if _, err := svc.CreateCarousel(ctx, in, upload("banner.jpg", 10)); err != nil {
			t.Fatalf("upload %d: %v", i+1, err)
		}
	}
	if len(store.objs) != 2 {
		t.Fatalf("objects: %v", store.objs)
	}
}
