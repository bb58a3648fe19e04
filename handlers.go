package diaryengine

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/seo"
	"github.com/eringen/diaryengine/views"
)

// retryAfterSeconds matches the reload delay of the retrying page.
const retryAfterSeconds = "3"

func (a *App) handleHome(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 0 {
		page = 0
	}
	res, err := a.Cache.FeedPage(c.Request().Context(), page)
	if errors.Is(err, cms.ErrInvalidArgument) {
		if isPartial(c) {
			return c.NoContent(http.StatusNotFound)
		}
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c)))
	}
	if isPartial(c) {
		if err != nil {
			a.Logger.Warn("feed page failed", "page", page, "error", err)
			return RenderStatus(c, http.StatusServiceUnavailable, a.Views.FeedPageError(pageURL(page)))
		}
		return Render(c, a.Views.FeedPartial(a.feedPage(res)))
	}

	p := a.page(c)
	if err != nil {
		a.Logger.Error("feed failed", "page", page, "error", err)
		return RenderStatus(c, http.StatusServiceUnavailable, a.Views.FeedError(p))
	}
	if page > 0 {
		p.Meta.NoIndex = true
	}
	return Render(c, a.Views.Home(p, a.feedPage(res)))
}

func (a *App) feedPage(res FeedResult) views.FeedPage {
	fp := views.FeedPage{
		Items:    res.Items,
		Offset:   res.Offset,
		SiteURL:  a.Config.URL,
		Fallback: res.Stale,
	}
	if res.HasMore {
		fp.NextURL = pageURL(res.Page + 1)
	}
	return fp
}

func (a *App) handleDiary(c echo.Context) error {
	p := a.page(c)
	id, err := cms.ParseID(c.Param("id"))
	if err != nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(p))
	}
	// "+5" and "005" name the same diary and share one failure counter.
	key := strconv.FormatInt(id, 10)
	self := c.Request().URL.Path
	retryURL := self + "?retry=1"

	if c.QueryParam("retry") == "1" {
		a.failures.Reset(key)
	}
	if a.failures.Exhausted(key) {
		c.Response().Header().Set(echo.HeaderRetryAfter, retryAfterSeconds)
		return RenderStatus(c, http.StatusServiceUnavailable, a.Views.ConnectionFailed(p, retryURL))
	}

	res, err := a.Cache.Diary(c.Request().Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, cms.ErrInvalidArgument), errors.Is(err, cms.ErrNotFound):
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(p))
		case cms.Retryable(err):
			n := a.failures.Record(key)
			a.Logger.Warn("diary load failed", "id", key, "failures", n, "error", err)
			c.Response().Header().Set(echo.HeaderRetryAfter, retryAfterSeconds)
			if n >= a.Config.Cache.FailureThreshold {
				return RenderStatus(c, http.StatusServiceUnavailable, a.Views.ConnectionFailed(p, retryURL))
			}
			return RenderStatus(c, http.StatusServiceUnavailable, a.Views.Retrying(p, self))
		case cms.StatusCode(err) >= 400 && cms.StatusCode(err) < 500:
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(p))
		}
		return err
	}

	a.failures.Reset(key)
	d := res.Diary
	p.Meta = seo.FromDiary(d, views.DiaryURL(a.Config.URL, d.ID), a.Config.SEO())
	if err := Render(c, a.Views.Diary(p, d)); err != nil {
		return err
	}
	a.recordRead(c, int64(d.ID))
	return nil
}

func (a *App) recordRead(c echo.Context, id int64) {
	if a.Readers == nil {
		return
	}
	if _, err := a.Readers.Record(c.Request().Context(), c.Request(), c.RealIP(), id); err != nil {
		a.Logger.Warn("record read failed", "id", id, "error", err)
	}
}

func (a *App) handleTheme(c echo.Context) error {
	theme := c.FormValue("theme")
	if theme != "light" && theme != "dark" {
		theme = "light"
		if Theme(c) == "light" {
			theme = "dark"
		}
	}
	if err := setTheme(c, theme); err != nil {
		return err
	}
	if isPartial(c) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, localReferer(c.Request()))
}

// localReferer returns the path of the referring page when it is on this
// site, otherwise "/".
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func (a *App) handleSitemap(c echo.Context) error {
	diaries, err := a.Cache.Recent(c.Request().Context(), sitemapLimit)
	if err != nil {
		a.Logger.Warn("sitemap without diaries", "error", err)
	}
	return a.renderSitemap(c, diaries)
}

func (a *App) handleFeed(c echo.Context) error {
	diaries, err := a.Cache.Recent(c.Request().Context(), rssLimit)
	if err != nil {
		return err
	}
	return a.renderRSS(c, diaries)
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\n\nSitemap: " + AssetURL(a.Config.URL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c)))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "uri", c.Request().RequestURI, "error", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c), c.Request().URL.RequestURI()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
