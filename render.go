package diaryengine

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/diaryengine/seo"
	"github.com/eringen/diaryengine/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page builds the shared page data for a request. Metadata always starts
// from the site defaults; callers override it for diary pages.
func (a *App) page(c echo.Context) views.Page {
	return views.Page{
		Meta:      seo.ForSite(a.Config.SEO(), a.requestURL(c)),
		SiteName:  a.Config.Name,
		SiteURL:   a.Config.URL,
		Tagline:   a.Config.Tagline,
		Theme:     Theme(c),
		CSRFToken: CsrfToken(c),
	}
}

// requestURL is the canonical absolute URL of the current path, without query.
func (a *App) requestURL(c echo.Context) string {
	return strings.TrimSuffix(a.Config.URL, "/") + c.Request().URL.Path
}

// isPartial reports whether the request comes from the feed script or htmx
// and only wants the fragment.
func isPartial(c echo.Context) bool {
	h := c.Request().Header
	return h.Get("HX-Request") == "true" || h.Get("X-Requested-With") == "XMLHttpRequest"
}
