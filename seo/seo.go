// Package seo derives page metadata, Open Graph tags and JSON-LD for diary
// pages.
package seo

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"

	"github.com/eringen/diaryengine/cdn"
	"github.com/eringen/diaryengine/cms"
)

const (
	DefaultTitle    = "Wisata Diary"
	DefaultLanguage = "id-id"
	DefaultTwitter  = "@wisata_app"
	DefaultLogo     = "https://wisata.app/logo.png"

	TypeArticle = "article"
	TypeWebsite = "website"
)

// Site holds the site-wide values every page inherits.
type Site struct {
	Name        string
	URL         string
	Description string
	Language    string
	Image       string // default share image
	Twitter     string // handle used for twitter:site and twitter:creator
	Logo        string // publisher logo in JSON-LD
	Keywords    []string
}

func (s Site) withDefaults() Site {
	if s.Name == "" {
		s.Name = DefaultTitle
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.Twitter == "" {
		s.Twitter = DefaultTwitter
	}
	if s.Logo == "" {
		s.Logo = DefaultLogo
	}
	return s
}

// PageMeta is everything the document head needs for one page.
type PageMeta struct {
	Title         string
	Description   string
	Image         string
	URL           string // canonical + og:url
	Type          string // "article" or "website"
	Language      string
	PublishedTime string
	Author        string
	Keywords      []string
	SiteName      string
	Twitter       string
	Logo          string
	NoIndex       bool
}

// FromDiary builds the metadata of a diary page. Missing fields fall back to
// the site defaults; the share image is requested at the large CDN size.
func FromDiary(d cms.DiaryContent, pageURL string, site Site) PageMeta {
	site = site.withDefaults()
	m := PageMeta{
		Title:         d.Meta.Title,
		Description:   d.Meta.Description,
		URL:           pageURL,
		Type:          d.Meta.Type,
		Language:      d.Meta.Language,
		PublishedTime: d.CreatedDT,
		Author:        d.Author(site.Name),
		Keywords:      site.Keywords,
		SiteName:      site.Name,
		Twitter:       site.Twitter,
		Logo:          site.Logo,
	}
	if m.Title == "" {
		m.Title = DefaultTitle
	}
	if m.Language == "" {
		m.Language = DefaultLanguage
	}
	if m.Type == "" {
		m.Type = TypeArticle
	}
	if d.Meta.Image != "" {
		m.Image = cdn.Optimize(d.Meta.Image, cdn.SizeLarge)
	}
	return m
}

// ForSite builds the metadata of a site-level page such as the feed.
func ForSite(site Site, pageURL string) PageMeta {
	site = site.withDefaults()
	return PageMeta{
		Title:       site.Name,
		Description: site.Description,
		Image:       site.Image,
		URL:         pageURL,
		Type:        TypeWebsite,
		Language:    site.Language,
		Author:      site.Name,
		Keywords:    site.Keywords,
		SiteName:    site.Name,
		Twitter:     site.Twitter,
		Logo:        site.Logo,
	}
}

// Lang returns the BCP 47 form of the page language for <html lang>.
func Lang(m PageMeta) string {
	raw := m.Language
	if raw == "" {
		raw = DefaultLanguage
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return raw
	}
	return tag.String()
}

// Locale returns the Open Graph locale, e.g. "id_ID".
func Locale(m PageMeta) string {
	return strings.ReplaceAll(Lang(m), "-", "_")
}

// StructuredData returns the schema.org object for the page. Empty fields are
// left out.
func StructuredData(m PageMeta) map[string]any {
	author := m.Author
	if author == "" {
		author = DefaultTitle
	}
	publisher := m.SiteName
	if publisher == "" {
		publisher = DefaultTitle
	}
	logo := m.Logo
	if logo == "" {
		logo = DefaultLogo
	}
	schemaType := "WebPage"
	if m.Type == TypeArticle {
		schemaType = "Article"
	}
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    schemaType,
		"author": map[string]string{
			"@type": "Organization",
			"name":  author,
		},
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  publisher,
			"logo": map[string]string{
				"@type": "ImageObject",
				"url":   logo,
			},
		},
	}
	for key, val := range map[string]string{
		"headline":      m.Title,
		"description":   m.Description,
		"image":         m.Image,
		"url":           m.URL,
		"datePublished": m.PublishedTime,
	} {
		if val != "" {
			data[key] = val
		}
	}
	return data
}

// JSONLD returns StructuredData encoded for a <script> element.
func JSONLD(m PageMeta) string {
	b, err := json.Marshal(StructuredData(m))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Head renders the <head> tags for m. Each page render writes a fresh head, so
// there is exactly one of every tag and one JSON-LD script.
func Head(m PageMeta) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if m.Title != "" {
			b.WriteString("<title>" + templ.EscapeString(m.Title) + "</title>\n")
		}
		tag := func(key, content string) {
			if content == "" {
				return
			}
			attr := "name"
			if strings.HasPrefix(key, "og:") || strings.HasPrefix(key, "article:") {
				attr = "property"
			}
			b.WriteString(`<meta ` + attr + `="` + key + `" content="` + templ.EscapeString(content) + "\">\n")
		}

		tag("description", m.Description)
		tag("keywords", strings.Join(m.Keywords, ", "))
		if m.NoIndex {
			tag("robots", "noindex")
		}
		tag("og:title", m.Title)
		tag("og:description", m.Description)
		tag("og:image", m.Image)
		tag("og:url", m.URL)
		tag("og:type", m.Type)
		tag("og:site_name", m.SiteName)
		tag("og:locale", Locale(m))
		if m.Type == TypeArticle {
			tag("article:published_time", m.PublishedTime)
		}
		tag("article:author", m.Author)

		card := "summary"
		if m.Image != "" {
			card = "summary_large_image"
		}
		tag("twitter:card", card)
		tag("twitter:title", m.Title)
		tag("twitter:description", m.Description)
		tag("twitter:image", m.Image)
		twitter := m.Twitter
		if twitter == "" {
			twitter = DefaultTwitter
		}
		tag("twitter:site", twitter)
		tag("twitter:creator", twitter)

		if m.URL != "" {
			b.WriteString(`<link rel="canonical" href="` + templ.EscapeString(m.URL) + "\">\n")
		}
		b.WriteString(`<script type="application/ld+json">` + JSONLD(m) + "</script>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// PublishedAt parses a CMS timestamp. The CMS sends RFC 3339, occasionally
// without a zone.
func PublishedAt(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
