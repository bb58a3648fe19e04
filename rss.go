package diaryengine

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/diaryengine/cdn"
	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/markdown"
	"github.com/eringen/diaryengine/seo"
	"github.com/eringen/diaryengine/views"
)

const (
	rssLimit         = 50
	rssExcerptLength = 300
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Author      string        `xml:"author,omitempty"`
	PubDate     string        `xml:"pubDate,omitempty"`
	GUID        string        `xml:"guid"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

func (a *App) renderRSS(c echo.Context, diaries []cms.DiaryContent) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(diaries))
	for _, d := range diaries {
		link := views.DiaryURL(base, d.ID)
		title := d.Meta.Title
		if title == "" {
			title = a.Config.Name
		}
		item := rssItem{
			Title:       title,
			Link:        link,
			Description: markdown.Excerpt(d, rssExcerptLength),
			Author:      d.Author(""),
			GUID:        link,
		}
		if t, ok := seo.PublishedAt(d.CreatedDT); ok {
			item.PubDate = t.Format(time.RFC1123Z)
		}
		if d.Meta.Image != "" {
			item.Enclosure = &rssEnclosure{URL: cdn.Optimize(d.Meta.Image, cdn.SizeLarge), Type: "image/jpeg"}
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Language:    a.Config.Language,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
