package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/sync/errgroup"

	"pumarket/internal/config"
	"pumarket/internal/http/handlers"
	applog "pumarket/internal/log"
	"pumarket/internal/repos"
	"pumarket/internal/services"
	"pumarket/web"
)

const accessFormat = `{"time":"${time}","level":"access","req_id":"${locals:requestid}","ip":"${ip}","method":"${method}","path":"${path}","status":${status},"latency":"${latency}"}` + "\n"

func main() {
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			applog.Logger().Warn().Err(err).Str("file", cfg.LogFile).Msg("could not open log file")
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Init(out, cfg.LogLevel)
	lg := applog.Logger()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		lg.Fatal().Err(err).Str("dsn", cfg.DBDSN).Msg("open database")
	}
	defer db.Close()

	// Auth wiring
	events := services.NewEventBus()
	userRepo := repos.NewUserRepo(db)
	authSvc := services.NewAuthService(userRepo, events, services.LogSender{}, cfg.BaseURL, cfg.MagicLinkSecret, cfg.MagicLinkTTL)
	unsubscribe := authSvc.Subscribe(func(ev services.SessionEvent) {
		lg.Log().Str("level", "audit").
			Str("action", "session."+string(ev.Kind)).
			Str("user_id", ev.UserID).
			Str("role", string(ev.Role)).
			Str("actor_id", ev.ActorID).
			Send()
	})
	defer unsubscribe()

	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: handlers.ErrorHandler,
		// Room for a 2 MiB carousel image plus form fields.
		BodyLimit: 4 << 20,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: out, Format: accessFormat, TimeFormat: time.RFC3339}))
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(handlers.AttachUser(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf") != ""})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Media ----------
	mediaDir := cfg.MediaDir
	if abs, err := filepath.Abs(mediaDir); err == nil {
		mediaDir = abs
	}
	lg.Info().Str("dir", mediaDir).Msg("[static] /media")
	app.Get("/media/*", handlers.Media(mediaDir))
	cfg.MediaDir = mediaDir

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)

	// Public pages
	app.Get("/", deps.HomeHandler.Home)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	app.Post("/product/:id/like", handlers.RequireUser(authSvc), deps.ProductHandler.Like)
	app.Post("/product/:id/comments", handlers.RequireUser(authSvc), deps.ProductHandler.Comment)
	app.Post("/theme", deps.AuthHandler.ToggleTheme)

	// Auth routes (login and magic links throttled)
	authH := deps.AuthHandler
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Get("/signup", authH.SignupForm)
	app.Post("/signup", limiter.New(limiter.Config{Max: 10, Expiration: 10 * time.Minute}), authH.Signup)
	app.Post("/magic-link", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.magic_link.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many sign-in links requested. Please wait a minute."})
		},
	}), authH.RequestMagicLink)
	app.Get("/auth/magic", authH.VerifyMagicLink)
	app.Post("/logout", authH.Logout)

	// Seller dashboard
	sellerH := deps.SellerHandler
	seller := app.Group("/seller", handlers.RequireSeller(authSvc))
	seller.Get("/", sellerH.Dashboard)
	seller.Post("/products", sellerH.Create)
	seller.Post("/products/:id", sellerH.Update)
	seller.Post("/products/:id/availability", sellerH.ToggleAvailability)
	seller.Post("/products/:id/delete", sellerH.Delete)

	// Admin dashboard
	adminH := deps.AdminHandler
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", adminH.Dashboard)
	admin.Post("/products/:id/sponsor", adminH.ToggleSponsored)
	admin.Post("/carousel", adminH.CreateCarousel)
	admin.Post("/carousel/:id", adminH.UpdateCarousel)
	admin.Post("/carousel/:id/toggle", adminH.ToggleCarousel)
	admin.Post("/carousel/:id/delete", adminH.DeleteCarousel)
	admin.Post("/users/:id/roles", adminH.ChangeRole)

	// API
	api := app.Group("/api/v1", cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,HEAD,OPTIONS"}))
	api.Get("/products", deps.APIHandler.Products)
	api.Get("/products/:id/likes", deps.APIHandler.ProductLikes)
	api.Get("/products/:id/comments", deps.APIHandler.ProductComments)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info().Str("port", cfg.Port).Msg("listening")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		lg.Info().Msg("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		lg.Error().Err(err).Msg("server stopped")
	}
}
