// Package diaryengine is a server-rendered reader for travel diaries published
// through the Wisata CMS, built with Go, Echo, and templ.
// It provides the paginated home feed, diary detail pages, RSS, and sitemap
// out of the box, with a local SQLite snapshot that keeps the site readable
// while the CMS is unavailable.
//
// Sites may replace any page through the ViewFuncs struct; diaryengine
// handles the handler logic, middleware, caching, and CMS access.
package diaryengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/query"
	"github.com/eringen/diaryengine/readership"
	"github.com/eringen/diaryengine/views"
)

// ViewFuncs holds the templ components the app calls when rendering pages.
// Nil entries fall back to the built-in views.
type ViewFuncs struct {
	Home             func(p views.Page, first views.FeedPage) templ.Component
	FeedPartial      func(fp views.FeedPage) templ.Component
	FeedPageError    func(retryURL string) templ.Component
	Diary            func(p views.Page, d cms.DiaryContent) templ.Component
	Retrying         func(p views.Page, url string) templ.Component
	ConnectionFailed func(p views.Page, retryURL string) templ.Component
	FeedError        func(p views.Page) templ.Component
	NotFound         func(p views.Page) templ.Component
	ServerError      func(p views.Page, reloadURL string) templ.Component
}

// DefaultViews returns the built-in views.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:             views.Home,
		FeedPartial:      views.FeedPartial,
		FeedPageError:    views.FeedPageError,
		Diary:            views.Detail,
		Retrying:         views.RetryingPage,
		ConnectionFailed: views.ConnectionFailedPage,
		FeedError:        views.FeedErrorPage,
		NotFound:         views.NotFoundPage,
		ServerError:      views.Recovery,
	}
}

func (v ViewFuncs) withDefaults() ViewFuncs {
	d := DefaultViews()
	if v.Home == nil {
		v.Home = d.Home
	}
	if v.FeedPartial == nil {
		v.FeedPartial = d.FeedPartial
	}
	if v.FeedPageError == nil {
		v.FeedPageError = d.FeedPageError
	}
	if v.Diary == nil {
		v.Diary = d.Diary
	}
	if v.Retrying == nil {
		v.Retrying = d.Retrying
	}
	if v.ConnectionFailed == nil {
		v.ConnectionFailed = d.ConnectionFailed
	}
	if v.FeedError == nil {
		v.FeedError = d.FeedError
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// App is the central diaryengine application. It wires together the CMS
// client, cache, snapshot store, handlers, middleware, and views.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *DiaryCache
	Readers  *readership.Tracker
	Views    ViewFuncs
	Logger   *slog.Logger
	Registry *prometheus.Registry

	api          cms.API
	failures     *FailureTracker
	customRoutes []func(*App)
	staticDir    string
	noStore      bool
	stopSweep    chan struct{}
	ogImage      func() ([]byte, error)
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     v.withDefaults(),
		staticDir: "public",
	}
	a.ogImage = sync.OnceValues(func() ([]byte, error) {
		return renderBanner(ogWidth, ogHeight, brandColor, cfg.Name)
	})
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = NewLogger(cfg.LogLevel, os.Stdout)
	}
	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return a
}

// Setup initializes the store, CMS client, cache, middleware, and routes
// without starting the server.
func (a *App) Setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("diaryengine: SessionSecret is required")
	}

	if a.api == nil {
		client, err := cms.New(cms.Config{
			BaseURL:       a.Config.API.BaseURL,
			Timeout:       a.Config.API.Timeout,
			RatePerSecond: a.Config.API.RatePerSecond,
			Burst:         a.Config.API.Burst,
		}, a.Logger, cms.WithMetrics(cms.NewMetrics(a.Registry)))
		if err != nil {
			return fmt.Errorf("diaryengine: init cms client: %w", err)
		}
		a.api = client
	}

	if !a.noStore {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("diaryengine: init store: %w", err)
		}
		a.Store = store

		if !a.Config.DisableReadership {
			if err := a.setupReadership(); err != nil {
				return fmt.Errorf("diaryengine: init readership: %w", err)
			}
		}
	}

	a.Cache = NewDiaryCache(a.api, a.Store, a.Config, a.Logger, query.NewMetrics(a.Registry))
	a.failures = NewFailureTracker(a.Config.Cache.FailureThreshold, a.Config.Cache.FailureWindow)

	a.stopSweep = make(chan struct{})
	go a.sweep(a.Config.Cache.GCTime)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupReadership() error {
	rs, err := readership.NewStore(a.Store.DB())
	if err != nil {
		return err
	}
	host := ""
	if u, err := url.Parse(a.Config.URL); err == nil {
		host = u.Host
	}
	a.Readers, err = readership.NewTracker(context.Background(), rs, host, a.Registry)
	return err
}

// Start runs Setup and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Logger.Info("listening", "addr", a.Config.Addr, "site", a.Config.URL, "cms", a.Config.API.BaseURL)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopSweep:
			return
		case <-ticker.C:
			if n := a.Cache.Sweep(); n > 0 {
				a.Logger.Debug("cache sweep", "evicted", n)
			}
		}
	}
}

// API returns the CMS client in use.
func (a *App) API() cms.API {
	return a.api
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopSweep != nil {
		close(a.stopSweep)
		a.stopSweep = nil
	}
	if a.failures != nil {
		a.failures.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
