package views

import (
	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/seo"
)

// Page carries what every full-page render needs besides its body.
type Page struct {
	Meta      seo.PageMeta
	SiteName  string
	SiteURL   string // absolute base used for share links
	Tagline   string
	Theme     string // "light" or "dark"
	CSRFToken string
	// RefreshURL makes the page navigate there after RefreshAfter seconds.
	RefreshURL   string
	RefreshAfter int
}

// ErrorProps configures ErrorPage.
type ErrorProps struct {
	Title        string
	Message      string
	RetryURL     string // "Try Again" target; omitted when empty
	AutoNavigate bool   // show the redirect notice and "Go Home Now"
}

// ImageProps configures Image.
type ImageProps struct {
	Src   string
	Alt   string
	Size  string // CDN variant, defaults to medium
	Class string
	Eager bool
	// InContent marks an image substituted into diary content at position
	// Index.
	InContent bool
	Index     int
}

// FeedPage is one page of the feed as rendered by the feed partial.
type FeedPage struct {
	Items    []cms.DiaryContent
	Offset   int    // feed position of Items[0]
	NextURL  string // empty when the feed is exhausted
	SiteURL  string
	Fallback bool // served from the local snapshot
}
