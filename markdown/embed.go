package markdown

import (
	"html"
	"regexp"
	"strings"
)

var (
	reTiktokEmbed    = regexp.MustCompile(`<TiktokEmbed\s+url="([^"]+)"\s*/>`)
	reYoutubeEmbed   = regexp.MustCompile(`<YoutubeEmbed\s+url="([^"]+)"\s*/>`)
	reInstagramEmbed = regexp.MustCompile(`<InstagramEmbed\s+url="([^"]+)"\s*/>`)
	reTwitterEmbed   = regexp.MustCompile(`<TwitterEmbed\s+url="([^"]+)"\s*/>`)
	// Anything left over after the well-formed tags were expanded.
	reBrokenEmbed = regexp.MustCompile(`<(Tiktok|Youtube|Instagram|Twitter)Embed\b[^>]*>`)

	reTiktokID  = regexp.MustCompile(`/video/(\d+)`)
	reYoutubeID = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`)
)

// ExtractTiktokID returns the numeric video id of a TikTok URL, or "".
func ExtractTiktokID(url string) string {
	if m := reTiktokID.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// ExtractYoutubeID returns the video id of a youtube.com/watch or youtu.be
// URL, or "".
func ExtractYoutubeID(url string) string {
	if m := reYoutubeID.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// Embed fragments are emitted on one line and padded with blank lines so the
// Markdown parser sees them as standalone HTML blocks.
func block(s string) string {
	return "\n\n" + s + "\n\n"
}

func tiktokEmbed(url string) string {
	id := html.EscapeString(ExtractTiktokID(url))
	return block(`<div class="tiktok-embed" data-video-id="` + id + `" data-url="` + html.EscapeString(url) + `">` +
		`<iframe src="https://www.tiktok.com/embed/v2/` + id + `" width="100%" height="500" frameborder="0" allowfullscreen loading="lazy"></iframe>` +
		`</div>`)
}

func youtubeEmbed(url string) string {
	id := html.EscapeString(ExtractYoutubeID(url))
	return block(`<div class="youtube-embed" data-video-id="` + id + `">` +
		`<iframe src="https://www.youtube.com/embed/` + id + `" width="100%" height="315" frameborder="0" allowfullscreen loading="lazy"></iframe>` +
		`</div>`)
}

func instagramEmbed(url string) string {
	return block(`<div class="instagram-embed">` +
		`<blockquote class="instagram-media" data-instgrm-permalink="` + html.EscapeString(url) + `" loading="lazy"></blockquote>` +
		`</div>`)
}

func twitterEmbed(url string) string {
	return block(`<div class="twitter-embed">` +
		`<blockquote class="twitter-tweet" data-theme="light"><a href="` + html.EscapeString(url) + `">View Tweet</a></blockquote>` +
		`</div>`)
}

func brokenEmbed(platform string) string {
	return block(`<div class="` + strings.ToLower(platform) + `-embed embed-unavailable">` +
		`<p>Embedded content unavailable</p>` +
		`</div>`)
}

// ExpandEmbeds replaces the custom embed tags with platform markup. Tags that
// do not carry a url attribute become an inert placeholder block.
func ExpandEmbeds(content string) string {
	replace := func(re *regexp.Regexp, fn func(string) string) {
		content = re.ReplaceAllStringFunc(content, func(m string) string {
			return fn(re.FindStringSubmatch(m)[1])
		})
	}
	replace(reTiktokEmbed, tiktokEmbed)
	replace(reYoutubeEmbed, youtubeEmbed)
	replace(reInstagramEmbed, instagramEmbed)
	replace(reTwitterEmbed, twitterEmbed)
	replace(reBrokenEmbed, brokenEmbed)
	return content
}
