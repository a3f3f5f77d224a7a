package handlers

import (
	"github.com/jmoiron/sqlx"

	"pumarket/internal/config"
	"pumarket/internal/repos"
	"pumarket/internal/services"
	"pumarket/internal/storage"
)

type Deps struct {
	HomeHandler    *HomeHandler
	ProductHandler *ProductHandler
	AuthHandler    *AuthHandler
	SellerHandler  *SellerHandler
	AdminHandler   *AdminHandler
	APIHandler     *APIHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	prodRepo := repos.NewProductRepo(db)
	likeRepo := repos.NewLikeRepo(db)
	commentRepo := repos.NewCommentRepo(db)
	carouselRepo := repos.NewCarouselRepo(db)
	userRepo := auth.Users

	productImages := storage.NewBucket(cfg.MediaDir, storage.ProductImages, storage.MaxProductImage)
	carouselImages := storage.NewBucket(cfg.MediaDir, storage.CarouselImages, storage.MaxCarouselImage)

	catalogSvc := services.NewCatalogService(prodRepo, userRepo, carouselRepo)
	likeSvc := services.NewLikeService(likeRepo, prodRepo, userRepo)
	commentSvc := services.NewCommentService(commentRepo, prodRepo, userRepo)
	sellerSvc := services.NewSellerService(prodRepo, productImages)
	adminSvc := services.NewAdminService(prodRepo, carouselRepo, userRepo, carouselImages, auth.Events)

	return &Deps{
		HomeHandler:    &HomeHandler{Catalog: catalogSvc, Likes: likeSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc, Likes: likeSvc, Comments: commentSvc},
		AuthHandler:    &AuthHandler{Auth: auth, CookieSecure: cfg.CookieSecure},
		SellerHandler:  &SellerHandler{Seller: sellerSvc, CookieSecure: cfg.CookieSecure},
		AdminHandler:   &AdminHandler{Admin: adminSvc},
		APIHandler:     &APIHandler{Catalog: catalogSvc, Likes: likeSvc, Comments: commentSvc},
	}
}
