package markdown

import (
	"strings"
	"testing"

	"github.com/eringen/diaryengine/cms"
)

func diary(content string) cms.DiaryContent {
	return cms.DiaryContent{
		ID:      1,
		Status:  cms.StatusPosted,
		Content: content,
		Meta:    cms.DiaryMeta{Title: "Bali Trip"},
	}
}

func TestRenderEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n"} {
		if got := Render(diary(in)); got != "" {
			t.Errorf("Render(%q) = %q, want empty", in, got)
		}
	}
}

func TestRenderBasicMarkdown(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"# Day one", "<h1"},
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"- a\n- b", "<li>a</li>"},
		{"~~gone~~", "<del>gone</del>"},
		{"line one\nline two", "<br/>"},
	}
	for _, tt := range tests {
		got := Render(diary(tt.input))
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.contains)
		}
	}
}

func TestRenderRestoresEscapedNewlines(t *testing.T) {
	got := Render(diary(`# Title\n\nBody text`))
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "<p>Body text</p>") {
		t.Errorf("escaped newlines not restored: %q", got)
	}
}

func TestRenderPassesRawHTML(t *testing.T) {
	got := Render(diary(`<div class="note">hello</div>`))
	if !strings.Contains(got, `<div class="note">hello</div>`) {
		t.Errorf("raw HTML was not passed through: %q", got)
	}
}

func TestRenderKeepsLeadingRawBlocks(t *testing.T) {
	tests := []struct{ input, want string }{
		{"<style>.x{color:red}</style>\n\nhello", "<style>.x{color:red}</style>"},
		{`<script async src="//www.instagram.com/embed.js"></script>` + "\n\nhello", `<script async="" src="//www.instagram.com/embed.js"></script>`},
		{`<link rel="stylesheet" href="/x.css">` + "\n\nhello", `<link rel="stylesheet" href="/x.css"/>`},
	}
	for _, tt := range tests {
		got := Render(diary(tt.input))
		if !strings.Contains(got, tt.want) || !strings.Contains(got, "hello") {
			t.Errorf("Render(%q) = %q, want it to keep %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderOptimizesImages(t *testing.T) {
	got := Render(diary("![beach](https://cdn.wisata.app/diary/bali.jpg)"))
	for _, want := range []string{
		`src="https://cdn.wisata.app/diary/bali_md.jpg"`,
		`alt="beach"`,
		`loading="lazy"`,
		`decoding="async"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Render image = %q, want it to contain %q", got, want)
		}
	}
}

func TestRenderImageAltFallsBackToTitle(t *testing.T) {
	got := Render(diary("![](https://example.com/a.png)"))
	if !strings.Contains(got, `alt="Bali Trip"`) {
		t.Errorf("alt fallback missing: %q", got)
	}

	d := diary(`<img src="https://example.com/b.png">`)
	d.Meta.Title = ""
	got = Render(d)
	if !strings.Contains(got, `alt="Image"`) {
		t.Errorf("default alt missing: %q", got)
	}
}

func TestRenderKeepsExistingImageAttributes(t *testing.T) {
	got := Render(diary(`<img src="https://example.com/c.png" alt="cat" loading="eager">`))
	if !strings.Contains(got, `loading="eager"`) || strings.Contains(got, `loading="lazy"`) {
		t.Errorf("existing loading attribute overwritten: %q", got)
	}
	if !strings.Contains(got, `alt="cat"`) {
		t.Errorf("existing alt overwritten: %q", got)
	}
}

func TestRenderLinksOpenInNewTab(t *testing.T) {
	tests := []struct{ input, href string }{
		{"[site](https://wisata.app)", `href="https://wisata.app"`},
		{"[home](/diary/2/)", `href="/diary/2/"`},
		{"[mail](mailto:a@b.c)", `href="mailto:a@b.c"`},
		{"see https://wisata.app/explore now", `href="https://wisata.app/explore"`},
	}
	for _, tt := range tests {
		got := Render(diary(tt.input))
		if !strings.Contains(got, tt.href+` target="_blank" rel="noopener noreferrer"`) {
			t.Errorf("Render(%q) = %q, want link with target and rel", tt.input, got)
		}
	}
}

func TestRenderLinkifiesBareURLs(t *testing.T) {
	got := Render(diary("see https://wisata.app/explore now"))
	if !strings.Contains(got, `<a href="https://wisata.app/explore"`) {
		t.Errorf("bare URL not linked: %q", got)
	}
}

func TestRenderDropsUnsafeLinks(t *testing.T) {
	got := Render(diary("[click](javascript:alert(1))"))
	if strings.Contains(got, "javascript:") {
		t.Errorf("unsafe href rendered: %q", got)
	}
	if !strings.Contains(got, "click") {
		t.Errorf("label lost: %q", got)
	}
}

func TestRenderCollapsesBlankLines(t *testing.T) {
	got := Render(diary("<div>a</div>\n\n\n\n\n<div>b</div>"))
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank lines not collapsed: %q", got)
	}
}

func TestRenderExpandsEmbeds(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{`<YoutubeEmbed url="https://youtu.be/abc123"/>`, `src="https://www.youtube.com/embed/abc123"`},
		{`<TiktokEmbed url="https://www.tiktok.com/@u/video/7312345678901234567" />`, `src="https://www.tiktok.com/embed/v2/7312345678901234567"`},
		{`<InstagramEmbed url="https://www.instagram.com/p/XYZ/"/>`, `data-instgrm-permalink="https://www.instagram.com/p/XYZ/"`},
		{`<TwitterEmbed url="https://x.com/wisata_app/status/1"/>`, `<a href="https://x.com/wisata_app/status/1"`},
	}
	for _, tt := range tests {
		got := Render(diary("Intro\n\n" + tt.input + "\n\nOutro"))
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.contains)
		}
		if !strings.Contains(got, "<p>Outro</p>") {
			t.Errorf("text after embed lost: %q", got)
		}
	}
}

func TestRenderMalformedEmbed(t *testing.T) {
	got := Render(diary(`<YoutubeEmbed url="https://example.com/nothing"/>`))
	if !strings.Contains(got, `src="https://www.youtube.com/embed/"`) {
		t.Errorf("malformed embed = %q, want empty video id", got)
	}

	got = Render(diary(`<TiktokEmbed />`))
	if !strings.Contains(got, "embed-unavailable") {
		t.Errorf("embed without url = %q, want placeholder block", got)
	}
}

func TestExtractIDs(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{ExtractYoutubeID, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ"},
		{ExtractYoutubeID, "https://youtu.be/abc123", "abc123"},
		{ExtractYoutubeID, "https://youtu.be/abc123?si=x", "abc123"},
		{ExtractYoutubeID, "https://vimeo.com/1", ""},
		{ExtractTiktokID, "https://www.tiktok.com/@user/video/123456", "123456"},
		{ExtractTiktokID, "https://www.tiktok.com/@user", ""},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("extract(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPipelineImageSubstitution(t *testing.T) {
	var seen []Image
	p := Pipeline{
		Image: func(img Image) string {
			seen = append(seen, img)
			return `<figure data-image-component="x"></figure>`
		},
	}
	got := p.Render(diary("![one](https://cdn.wisata.app/a.jpg)\n\n![two](https://example.com/b.png)"))
	if strings.Contains(got, "<img") {
		t.Errorf("img left in output: %q", got)
	}
	if strings.Count(got, "data-image-component") != 2 {
		t.Errorf("want two substituted images: %q", got)
	}
	if len(seen) != 2 {
		t.Fatalf("Image called %d times, want 2", len(seen))
	}
	if seen[0].Index != 0 || seen[1].Index != 1 {
		t.Errorf("indexes = %d, %d", seen[0].Index, seen[1].Index)
	}
	if seen[0].Src != "https://cdn.wisata.app/a.jpg" || seen[0].Optimized != "https://cdn.wisata.app/a_md.jpg" {
		t.Errorf("image 0 = %+v", seen[0])
	}
	if seen[1].Alt != "two" {
		t.Errorf("image 1 alt = %q", seen[1].Alt)
	}
}

func TestPipelineDecorate(t *testing.T) {
	p := Pipeline{Decorate: true}
	got := p.Render(diary(`<YoutubeEmbed url="https://youtu.be/abc123"/>` + "\n\n" + `<p style="color:red;;  margin : 0 ;bad">x</p>`))
	if !strings.Contains(got, `class="youtube-embed my-6 rounded-lg overflow-hidden shadow-sm"`) {
		t.Errorf("embed classes missing: %q", got)
	}
	if !strings.Contains(got, `style="color: red; margin: 0"`) {
		t.Errorf("style not normalized: %q", got)
	}
}

func TestNormalizeStyle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"COLOR:Red", "color: Red"},
		{"a:1;b:2;", "a: 1; b: 2"},
		{";;:x;y:", ""},
	}
	for _, tt := range tests {
		if got := NormalizeStyle(tt.in); got != tt.want {
			t.Errorf("NormalizeStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	d := diary("<p>" + strings.Repeat("a", 250) + "</p>")
	got := Excerpt(d, 200)
	if got != strings.Repeat("a", 200)+"..." {
		t.Errorf("Excerpt = %q", got)
	}

	d.Meta.Description = "Short summary"
	if got := Excerpt(d, 200); got != "Short summary" {
		t.Errorf("Excerpt with description = %q", got)
	}

	short := diary("<b>hi</b> there")
	if got := Excerpt(short, 200); got != "hi there" {
		t.Errorf("Excerpt short = %q", got)
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://example.com", "https://example.com"},
		{"/diary/1", "/diary/1"},
		{"#top", "#top"},
		{"mailto:a@b.c", "mailto:a@b.c"},
		{"javascript:alert(1)", ""},
		{"data:text/html,x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.in); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
