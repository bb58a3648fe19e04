package views

import (
	"github.com/a-h/templ"
)

const redirectNotice = "You'll be redirected to the home page in a few seconds."

// ErrorPage is the inline error screen: a title, a message, an optional retry
// and, when AutoNavigate is set, the redirect notice and a link home. The
// redirect itself is driven by Page.RefreshURL.
func ErrorPage(props ErrorProps) templ.Component {
	title := props.Title
	if title == "" {
		title = "Not Found"
	}
	message := props.Message
	if message == "" {
		message = redirectNotice
	}
	return component(func(h *htmlWriter) {
		h.raw(`<div class="max-w-2xl mx-auto"><div class="p-8 text-center" role="alert">`)
		h.raw(`<div class="w-16 h-16 mx-auto mb-4 bg-error/10 rounded-2xl flex items-center justify-center">`, iconAlert, `</div>`)
		h.raw(`<h3 class="text-lg font-semibold text-foreground mb-2">`)
		h.text(title)
		h.raw(`</h3><p class="text-foreground-secondary mb-4">`)
		h.text(message)
		h.raw(`</p>`)
		if props.AutoNavigate {
			h.raw(`<div class="flex items-center justify-center gap-2 text-sm text-foreground-secondary mb-6">`,
				`<div class="w-2 h-2 bg-primary rounded-full animate-bounce"></div>`,
				`<div class="w-2 h-2 bg-primary rounded-full animate-bounce" style="animation-delay: 0.1s"></div>`,
				`<div class="w-2 h-2 bg-primary rounded-full animate-bounce" style="animation-delay: 0.2s"></div>`,
				`<span class="ml-2">Redirecting...</span></div>`)
		}
		h.raw(`<div class="flex flex-col sm:flex-row gap-3 justify-center">`)
		if props.RetryURL != "" {
			h.raw(`<a class="inline-flex items-center gap-2 px-6 py-3 bg-primary text-white rounded-full font-medium shadow-medium"`)
			h.attr("href", props.RetryURL)
			h.raw(`>`, iconRetry, `Try Again</a>`)
		}
		if props.AutoNavigate {
			h.raw(`<a href="/" class="inline-flex items-center gap-2 px-6 py-3 bg-surface text-foreground border border-border rounded-full font-medium">`,
				iconBack, `Go Home Now</a>`)
		}
		h.raw(`</div></div></div>`)
	})
}

// NotFoundPage is the terminal screen for unknown paths and diaries.
func NotFoundPage(p Page) templ.Component {
	p.RefreshURL = "/"
	p.RefreshAfter = 5
	p.Meta.NoIndex = true
	return Layout(p, ErrorPage(ErrorProps{
		Title:        "Not Found",
		Message:      "The page you're looking for doesn't exist or may have been removed. " + redirectNotice,
		AutoNavigate: true,
	}))
}

// ConnectionFailedPage is shown once a diary could not be fetched after
// repeated attempts.
func ConnectionFailedPage(p Page, retryURL string) templ.Component {
	p.RefreshURL = "/"
	p.RefreshAfter = 5
	p.Meta.NoIndex = true
	return Layout(p, ErrorPage(ErrorProps{
		Title:        "Connection Failed",
		Message:      redirectNotice,
		RetryURL:     retryURL,
		AutoNavigate: true,
	}))
}

// RetryingPage shows the article skeleton and reloads url shortly, for
// transient failures that have not yet exhausted the attempt budget.
func RetryingPage(p Page, url string) templ.Component {
	p.RefreshURL = url
	p.RefreshAfter = 3
	p.Meta.NoIndex = true
	return Layout(p, DetailSkeleton())
}

// FeedErrorPage is the home page when the first feed page fails. It offers a
// retry and does not navigate away.
func FeedErrorPage(p Page) templ.Component {
	p.Meta.NoIndex = true
	return Layout(p, ErrorPage(ErrorProps{
		Title:    "Something went wrong",
		Message:  "Unable to load content. Please try again.",
		RetryURL: "/",
	}))
}

// Recovery is the last-resort screen rendered when a handler panics or fails
// unexpectedly. It keeps the header so the reader can still navigate.
func Recovery(p Page, reloadURL string) templ.Component {
	p.Meta.NoIndex = true
	return Layout(p, component(func(h *htmlWriter) {
		h.raw(`<div class="max-w-md mx-auto p-8 text-center" role="alert">`)
		h.raw(`<h2 class="text-xl font-semibold text-foreground mb-2">Oops! Terjadi Kesalahan</h2>`)
		h.raw(`<p class="text-foreground-secondary mb-4">Mohon maaf, terjadi kesalahan yang tidak terduga. Silakan muat ulang halaman atau coba lagi nanti.</p>`)
		h.raw(`<div class="flex flex-col sm:flex-row gap-3 justify-center">`)
		h.raw(`<a class="inline-flex items-center justify-center gap-2 px-4 py-2 bg-blue-600 text-white text-sm font-medium rounded-lg"`)
		h.attr("href", reloadURL)
		h.raw(`>`, iconRetry, `Muat Ulang</a>`)
		h.raw(`<a href="/" data-back class="inline-flex items-center justify-center gap-2 px-4 py-2 bg-gray-200 text-gray-700 text-sm font-medium rounded-lg">`,
			iconBack, `Kembali</a>`)
		h.raw(`</div></div>`)
	}))
}
