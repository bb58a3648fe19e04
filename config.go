package diaryengine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/query"
	"github.com/eringen/diaryengine/seo"
)

// SiteConfig holds all configuration for a diary site.
type SiteConfig struct {
	Name        string   `yaml:"name"`        // Site name (default "Wisata Diary")
	URL         string   `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string   `yaml:"description"` // Site description for RSS and meta tags
	Tagline     string   `yaml:"tagline"`     // Header subtitle
	Language    string   `yaml:"language"`    // Default page language (default "id-id")
	Twitter     string   `yaml:"twitter"`     // twitter:site handle (default "@wisata_app")
	Keywords    []string `yaml:"keywords"`

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite snapshot path (default "data/diary.db")

	API   APIConfig   `yaml:"api"`
	Cache CacheConfig `yaml:"cache"`

	// Readership counts diary reads in the snapshot database.
	DisableReadership bool `yaml:"disable_readership"`

	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	LogLevel string `yaml:"log_level"` // debug, info, warn or error (default "info")
}

// APIConfig configures the CMS client.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	PageSize      int           `yaml:"page_size"` // default 6
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	Retry         RetryConfig   `yaml:"retry"`
}

// RetryConfig bounds retries of failed CMS requests.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"` // retries after the first attempt; negative disables
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// CacheConfig sets freshness windows for cached CMS responses.
type CacheConfig struct {
	FeedStaleTime    time.Duration `yaml:"feed_stale_time"`    // default 5m
	ContentStaleTime time.Duration `yaml:"content_stale_time"` // default 15m
	GCTime           time.Duration `yaml:"gc_time"`            // default 30m
	// A diary that fails this many times within FailureWindow gets the
	// terminal error page instead of another retry.
	FailureThreshold int           `yaml:"failure_threshold"` // default 3
	FailureWindow    time.Duration `yaml:"failure_window"`    // default 1m
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = seo.DefaultTitle
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Description == "" {
		c.Description = "Explore and share amazing travel experiences from around Indonesia."
	}
	if c.Tagline == "" {
		c.Tagline = "Explore the world"
	}
	if c.Language == "" {
		c.Language = seo.DefaultLanguage
	}
	if c.Twitter == "" {
		c.Twitter = seo.DefaultTwitter
	}
	c.Keywords = FilterEmpty(c.Keywords)
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/diary.db"
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = cms.DefaultPageSize
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.Retry.MaxAttempts == 0 {
		c.API.Retry.MaxAttempts = 3
	}
	if c.API.Retry.InitialBackoff == 0 {
		c.API.Retry.InitialBackoff = time.Second
	}
	if c.API.Retry.MaxBackoff == 0 {
		c.API.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Cache.FeedStaleTime == 0 {
		c.Cache.FeedStaleTime = 5 * time.Minute
	}
	if c.Cache.ContentStaleTime == 0 {
		c.Cache.ContentStaleTime = 15 * time.Minute
	}
	if c.Cache.GCTime == 0 {
		c.Cache.GCTime = 30 * time.Minute
	}
	if c.Cache.FailureThreshold == 0 {
		c.Cache.FailureThreshold = 3
	}
	if c.Cache.FailureWindow == 0 {
		c.Cache.FailureWindow = time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// RetryPolicy converts the retry settings for the query layer.
func (c SiteConfig) RetryPolicy() query.RetryPolicy {
	return query.RetryPolicy{
		MaxRetries: c.API.Retry.MaxAttempts,
		BaseDelay:  c.API.Retry.InitialBackoff,
		MaxDelay:   c.API.Retry.MaxBackoff,
		Retryable:  cms.Retryable,
	}
}

// SEO returns the site-wide metadata defaults.
func (c SiteConfig) SEO() seo.Site {
	return seo.Site{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Language:    c.Language,
		Image:       AssetURL(c.URL, "public/og-image.png"),
		Twitter:     c.Twitter,
		Logo:        AssetURL(c.URL, "public/icon.png"),
		Keywords:    c.Keywords,
	}
}

// LoadConfig reads a YAML config file, expanding ${VAR} references from the
// environment and an optional .env file. An empty path yields the defaults
// plus the environment overrides.
func LoadConfig(path string) (SiteConfig, error) {
	_ = godotenv.Load()

	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Name, "SITE_NAME")
	set(&c.URL, "SITE_URL")
	set(&c.Addr, "ADDR")
	set(&c.DatabasePath, "DATABASE_PATH")
	set(&c.API.BaseURL, "CMS_BASE_URL")
	set(&c.SessionSecret, "SESSION_SECRET")
	set(&c.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.CookieSecure = v == "1" || strings.EqualFold(v, "true")
	}
}

// NewLogger returns a JSON slog logger at the named level.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithAPI replaces the HTTP CMS client, e.g. with a mock in tests.
func WithAPI(api cms.API) Option {
	return func(a *App) {
		a.api = api
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithRegistry registers metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.Registry = reg
	}
}

// WithoutStore disables the SQLite snapshot.
func WithoutStore() Option {
	return func(a *App) {
		a.noStore = true
	}
}
