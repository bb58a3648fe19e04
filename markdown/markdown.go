// Package markdown turns diary Markdown into the HTML shown on diary pages.
package markdown

import (
	"bytes"
	"context"
	stdhtml "html"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/eringen/diaryengine/cdn"
	"github.com/eringen/diaryengine/cms"
)

const defaultAlt = "Image"

var (
	reManyNewlines = regexp.MustCompile(`\n{3,}`)
	reTags         = regexp.MustCompile(`<[^>]*>`)
)

// embedSelector matches every container produced by ExpandEmbeds.
const embedSelector = ".tiktok-embed, .youtube-embed, .instagram-embed, .twitter-embed"

var embedClasses = []string{"my-6", "rounded-lg", "overflow-hidden", "shadow-sm"}

// Image describes one <img> found in rendered content.
type Image struct {
	Index     int    // position among the images of the document
	Src       string // source as written by the author
	Optimized string // Src rewritten for the configured CDN size
	Alt       string
}

// Pipeline renders diary content. The zero value produces standalone HTML
// with CDN-optimized, lazily loaded images.
type Pipeline struct {
	// ImageSize is the CDN variant requested for content images. Defaults to
	// medium.
	ImageSize string
	// Image, when set, replaces each <img> with the HTML it returns.
	Image func(Image) string
	// Decorate styles embed containers, lazy-loads iframes and tidies inline
	// style attributes for presentation inside the page layout.
	Decorate bool
}

// Render runs the default pipeline over d.
func Render(d cms.DiaryContent) string {
	return Pipeline{}.Render(d)
}

// Render converts d.Content to HTML: escaped newlines are restored, embed tags
// expanded, Markdown converted with raw HTML allowed, images rewritten and
// runs of blank lines collapsed. It never fails; unparsable input degrades to
// escaped text.
func (p Pipeline) Render(d cms.DiaryContent) string {
	content := normalizeNewlines(d.Content)
	if strings.TrimSpace(content) == "" {
		return ""
	}
	content = ExpandEmbeds(content)

	alt := strings.TrimSpace(d.Meta.Title)
	if alt == "" {
		alt = defaultAlt
	}

	var buf bytes.Buffer
	if err := newEngine(alt).Convert([]byte(content), &buf); err != nil {
		return "<p>" + stdhtml.EscapeString(content) + "</p>"
	}
	return collapseNewlines(p.rewrite(buf.String(), alt))
}

// Component wraps the pipeline output as a templ component.
func (p Pipeline) Component(d cms.DiaryContent) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, p.Render(d))
		return err
	})
}

// rewrite walks the rendered fragment once, handling images, embeds and
// styles in the same pass.
func (p Pipeline) rewrite(fragment, alt string) string {
	// Parsed as body content so leading <style>, <script> or <link> blocks
	// stay in place instead of moving to a <head>.
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fragment
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	doc := goquery.NewDocumentFromNode(body)
	size := p.ImageSize
	if size == "" {
		size = cdn.SizeMedium
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		img := Image{Index: i, Src: src, Optimized: cdn.Optimize(src, size), Alt: s.AttrOr("alt", "")}
		if img.Alt == "" {
			img.Alt = alt
		}
		if p.Image != nil {
			s.ReplaceWithNodes(&html.Node{Type: html.RawNode, Data: p.Image(img)})
			return
		}
		s.SetAttr("src", img.Optimized)
		setDefault(s, "alt", img.Alt)
		setDefault(s, "loading", "lazy")
		setDefault(s, "decoding", "async")
	})

	if p.Decorate {
		doc.Find(embedSelector).Each(func(_ int, s *goquery.Selection) {
			s.SetAttr("class", addClasses(s.AttrOr("class", ""), embedClasses))
		})
		doc.Find("iframe").SetAttr("loading", "lazy")
		doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
			if style := NormalizeStyle(s.AttrOr("style", "")); style != "" {
				s.SetAttr("style", style)
			} else {
				s.RemoveAttr("style")
			}
		})
	}

	var buf bytes.Buffer
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return fragment
		}
	}
	return buf.String()
}

// addClasses appends the missing classes to a class attribute value.
func addClasses(class string, add []string) string {
	fields := strings.Fields(class)
	for _, c := range add {
		if !slices.Contains(fields, c) {
			fields = append(fields, c)
		}
	}
	return strings.Join(fields, " ")
}

func setDefault(s *goquery.Selection, attr, val string) {
	if _, ok := s.Attr(attr); !ok {
		s.SetAttr(attr, val)
	}
}

// NormalizeStyle rewrites an inline style attribute into canonical
// "property: value" declarations, dropping malformed ones.
func NormalizeStyle(style string) string {
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if !ok || prop == "" || val == "" {
			continue
		}
		decls = append(decls, prop+": "+val)
	}
	return strings.Join(decls, "; ")
}

// CMS bodies sometimes arrive with JSON-escaped newlines left in the text.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func collapseNewlines(s string) string {
	return strings.TrimSpace(reManyNewlines.ReplaceAllString(s, "\n\n"))
}

// Excerpt returns the description of d, or its content with tags stripped
// and cut to max runes followed by "..." when longer.
func Excerpt(d cms.DiaryContent, max int) string {
	if desc := strings.TrimSpace(d.Meta.Description); desc != "" {
		return desc
	}
	text := strings.TrimSpace(reTags.ReplaceAllString(normalizeNewlines(d.Content), ""))
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
