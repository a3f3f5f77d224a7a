package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port            string
	DBDSN           string
	MediaDir        string
	LogFile         string
	LogLevel        string
	BaseURL         string
	MagicLinkSecret string
	MagicLinkTTL    time.Duration
	CookieSecure    bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() Config {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("[config] no .env file, using environment")
	}

	port := getenv("PORT", "8080")
	ttl, err := time.ParseDuration(getenv("MAGIC_LINK_TTL", "15m"))
	if err != nil || ttl <= 0 {
		ttl = 15 * time.Minute
	}
	secure, _ := strconv.ParseBool(getenv("COOKIE_SECURE", "false"))

	secret := os.Getenv("MAGIC_LINK_SECRET")
	if secret == "" {
		secret = "dev-magic-link-secret-change-me"
		log.Warn().Msg("[config] MAGIC_LINK_SECRET not set, using development key")
	}

	cfg := Config{
		Port:            port,
		DBDSN:           getenv("DB_DSN", "pumarket.db"),
		MediaDir:        getenv("MEDIA_DIR", "./web/media"),
		LogFile:         os.Getenv("LOG_FILE"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		BaseURL:         getenv("BASE_URL", "http://localhost:"+port),
		MagicLinkSecret: secret,
		MagicLinkTTL:    ttl,
		CookieSecure:    secure,
	}
	log.Info().
		Str("port", cfg.Port).
		Str("db_dsn", cfg.DBDSN).
		Str("media_dir", cfg.MediaDir).
		Str("log_file", cfg.LogFile).
		Str("base_url", cfg.BaseURL).
		Msg("[config] loaded")
	return cfg
}
