package readership

import (
	"regexp"
	"strings"
)

// Agent is what a User-Agent header says about the client. Bot is empty for
// browsers.
type Agent struct {
	Browser string
	OS      string
	Device  string
	Bot     string
}

// IsBot reports whether the agent looks like a crawler.
func (a Agent) IsBot() bool {
	return a.Bot != ""
}

// Known crawlers, most specific first.
var botPatterns = []struct{ pattern, name string }{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"duckduckbot", "DuckDuckBot"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"whatsapp", "WhatsApp"},
	{"telegrambot", "Telegram"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"mj12bot", "Majestic"},
	{"dotbot", "Moz"},
	{"slurp", "Yahoo Slurp"},
	{"crawler", "Generic Crawler"},
	{"spider", "Generic Spider"},
	{"scrape", "Generic Scraper"},
	{"crawl", "Generic Crawler"},
	{"bot", "Other Bot"},
}

// ParseAgent classifies a User-Agent string.
func ParseAgent(ua string) Agent {
	ua = strings.ToLower(ua)
	var a Agent

	for _, b := range botPatterns {
		if strings.Contains(ua, b.pattern) {
			a.Bot = b.name
			break
		}
	}

	// Order matters: Edge and Opera UAs also contain "chrome", Chrome's contains "safari".
	switch {
	case strings.Contains(ua, "firefox"):
		a.Browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		a.Browser = "Opera"
	case strings.Contains(ua, "edg"):
		a.Browser = "Edge"
	case strings.Contains(ua, "chrome"):
		a.Browser = "Chrome"
	case strings.Contains(ua, "safari"):
		a.Browser = "Safari"
	default:
		a.Browser = "Other"
	}

	// Android UAs contain "linux".
	switch {
	case strings.Contains(ua, "windows"):
		a.OS = "Windows"
	case strings.Contains(ua, "android"):
		a.OS = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		a.OS = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		a.OS = "macOS"
	case strings.Contains(ua, "linux"):
		a.OS = "Linux"
	default:
		a.OS = "Other"
	}

	// iPad UAs contain "mobile".
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		a.Device = "Tablet"
	case strings.Contains(ua, "mobile"):
		a.Device = "Mobile"
	default:
		a.Device = "Desktop"
	}
	return a
}

var referrerDomain = regexp.MustCompile(`^https?://(?:www\.)?([^/:?#]+)`)

var referrerSources = []struct{ pattern, name string }{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"facebook.", "Facebook"},
	{"instagram.", "Instagram"},
	{"t.co/", "Twitter"},
	{"twitter.", "Twitter"},
	{"//x.com", "Twitter"},
	{"whatsapp.", "WhatsApp"},
}

// ReferrerSource reduces a Referer header to a source name. Links from the
// site itself count as "Internal".
func ReferrerSource(ref, siteHost string) string {
	if ref == "" {
		return "Direct"
	}
	lower := strings.ToLower(ref)
	m := referrerDomain.FindStringSubmatch(lower)
	host, _, _ := strings.Cut(strings.ToLower(siteHost), ":")
	if len(m) > 1 && host != "" && m[1] == strings.TrimPrefix(host, "www.") {
		return "Internal"
	}
	for _, s := range referrerSources {
		if strings.Contains(lower, s.pattern) {
			return s.name
		}
	}
	if len(m) > 1 {
		return m[1]
	}
	return "Other"
}
