package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the portal reads at process start. It is built
// once in main and handed to constructors; nothing reads the environment
// after Load returns.
type Config struct {
	HTTPAddr    string
	DatabaseURL string

	// PublicBaseURL is what download URLs sent to dealers start with.
	PublicBaseURL string

	// Session credentials
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Download links
	DownloadLinkTTL time.Duration

	// File storage
	StoragePath    string
	MaxUploadBytes int64

	CORSOrigins []string

	// Static shared secret for the partner integration endpoints.
	PartnerAPIKey string

	// Mail. When neither MailAPIKey nor SMTPHost is set, sends are skipped.
	MailFrom     string
	MailAPIKey   string
	MailAPIURL   string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	UseSMTP      bool
}

const (
	defaultAccessTTL  = 60 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultLinkTTL    = 7 * 24 * time.Hour
	defaultUploadMB   = 100
)

// Load reads configuration from the environment, consulting an optional .env
// file first. The JWT secret is the only hard requirement.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        env("PORTAL_HTTP_ADDR", ":8080"),
		DatabaseURL:     env("PORTAL_PG_DSN", ""),
		PublicBaseURL:   strings.TrimRight(env("PORTAL_PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		JWTSecret:       os.Getenv("PORTAL_JWT_SECRET"),
		AccessTokenTTL:  envMinutes("PORTAL_ACCESS_TOKEN_MINUTES", defaultAccessTTL),
		RefreshTokenTTL: envDays("PORTAL_REFRESH_TOKEN_DAYS", defaultRefreshTTL),
		DownloadLinkTTL: envDays("PORTAL_DOWNLOAD_LINK_DAYS", defaultLinkTTL),
		StoragePath:     env("PORTAL_STORAGE_PATH", "./storage"),
		MaxUploadBytes:  int64(envInt("PORTAL_MAX_UPLOAD_MB", defaultUploadMB)) << 20,
		CORSOrigins:     splitList(env("PORTAL_CORS_ORIGINS", "http://localhost:3000")),
		PartnerAPIKey:   os.Getenv("PORTAL_PARTNER_API_KEY"),
		MailFrom:        env("PORTAL_MAIL_FROM", "noreply@pricelink.org"),
		MailAPIKey:      os.Getenv("PORTAL_MAIL_API_KEY"),
		MailAPIURL:      env("PORTAL_MAIL_API_URL", "https://api.sendgrid.com/v3/mail/send"),
		SMTPHost:        os.Getenv("PORTAL_SMTP_HOST"),
		SMTPPort:        envInt("PORTAL_SMTP_PORT", 587),
		SMTPUser:        os.Getenv("PORTAL_SMTP_USER"),
		SMTPPassword:    os.Getenv("PORTAL_SMTP_PASSWORD"),
		UseSMTP:         envBool("PORTAL_USE_SMTP", false),
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, errors.New("config: PORTAL_JWT_SECRET is required")
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envMinutes(key string, def time.Duration) time.Duration {
	if v := envInt(key, 0); v > 0 {
		return time.Duration(v) * time.Minute
	}
	return def
}

func envDays(key string, def time.Duration) time.Duration {
	if v := envInt(key, 0); v > 0 {
		return time.Duration(v) * 24 * time.Hour
	}
	return def
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
