package diaryengine

import (
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets are served from the binary; anything else under
	// /public falls through to the site's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	e.GET("/public/diary.js", embeddedHandler)
	e.GET("/public/diary.css", embeddedHandler)
	e.GET("/public/logo.svg", embeddedHandler)
	e.GET("/public/og-image.png", a.handleOGImage)
	e.GET("/public/placeholder.png", handlePlaceholder)
	e.GET("/public/icon.png", handleIcon)
	e.Static("/public", a.staticDir)
	e.GET("/favicon.ico", handleFavicon)

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/healthz", handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})))

	e.GET("/", a.handleHome)
	e.GET("/diary/:id/", a.handleDiary)
	e.POST("/theme/", a.handleTheme)
}
