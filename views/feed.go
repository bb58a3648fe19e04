package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/diaryengine/cdn"
	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/markdown"
	"github.com/eringen/diaryengine/seo"
)

const excerptLength = 200

// Home renders the feed page with its first page of diaries.
func Home(p Page, first FeedPage) templ.Component {
	return Layout(p, component(func(h *htmlWriter) {
		h.raw(`<div class="max-w-2xl mx-auto">`)
		if len(first.Items) == 0 {
			h.raw(`<div class="p-8 text-center text-foreground-secondary">No stories yet. Check back soon.</div>`)
		} else {
			h.raw(`<div id="feed" class="space-y-1">`)
			h.render(FeedPartial(first))
			h.raw(`</div>`)
		}
		h.raw(`</div>`)
	}))
}

// FeedPartial renders the cards of one page followed by either the sentinel
// that loads the next page or the end-of-feed marker. It is also the response
// to the sentinel's request, which replaces the sentinel in place.
func FeedPartial(fp FeedPage) templ.Component {
	return component(func(h *htmlWriter) {
		if fp.Fallback {
			h.raw(`<div class="mx-2 my-2 px-4 py-2 text-xs text-foreground-secondary bg-surface rounded-lg">Showing saved stories while the connection recovers.</div>`)
		}
		for i, d := range fp.Items {
			h.render(DiaryCard(d, fp.Offset+i, fp.SiteURL))
		}
		switch {
		case fp.NextURL != "":
			h.render(Sentinel(fp.NextURL))
		case fp.Offset+len(fp.Items) > 0:
			h.raw(`<div class="p-8 text-center text-foreground-secondary text-sm">✨ You've caught up! All posts loaded</div>`)
		}
	})
}

// Sentinel is the invisible marker that requests nextURL once it scrolls into
// view. Reveals are debounced client-side and only one request is in flight.
func Sentinel(nextURL string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="feed-sentinel" aria-hidden="true" data-debounce="100"`)
		h.attr("data-next-page", nextURL)
		h.raw(`><div class="feed-loading hidden">`)
		h.render(DiaryCardSkeleton())
		h.raw(`<div class="p-8 text-center">`,
			`<div class="w-6 h-6 mx-auto border-2 border-border border-t-primary rounded-full animate-spin"></div>`,
			`<p class="text-foreground-secondary mt-2 text-sm">Loading more posts...</p></div></div></div>`)
	})
}

// FeedPageError replaces the sentinel when loading a later page failed; its
// button re-arms the sentinel for the same page.
func FeedPageError(retryURL string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="feed-error p-8 text-center"><p class="text-foreground-secondary text-sm mb-4">Unable to load more posts.</p>`)
		h.raw(`<button type="button" class="inline-flex items-center gap-2 px-6 py-3 bg-primary text-white rounded-full font-medium"`)
		h.attr("data-retry-page", retryURL)
		h.raw(`>`, iconRetry, `Try Again</button></div>`)
	})
}

// DiaryCard renders one feed entry.
func DiaryCard(d cms.DiaryContent, index int, siteURL string) templ.Component {
	title := d.Meta.Title
	if title == "" {
		title = seo.DefaultTitle
	}
	return component(func(h *htmlWriter) {
		h.raw(`<div class="group block px-6 pt-4 rounded-2xl mx-2 animate-fade-in"`)
		h.attr("style", "animation-delay: "+strconv.Itoa(index*50)+"ms")
		h.attr("data-diary-id", d.ID.String())
		h.raw(`><div class="flex gap-4">`)
		h.raw(`<div class="w-10 h-10 rounded-full shadow-medium"><img src="/public/icon.png" alt="Wisata Logo" class="w-full h-full object-cover rounded-full"></div>`)
		h.raw(`<div class="flex-1 min-w-0"><div class="flex items-center justify-between mb-2"><div class="flex items-center gap-2">`)
		h.raw(`<span class="font-medium text-foreground">`)
		h.text(d.Author(seo.DefaultTitle))
		h.raw(`</span><span class="text-foreground-tertiary">·</span><time class="text-foreground-secondary text-sm"`)
		h.attr("datetime", d.CreatedDT)
		h.raw(`>`)
		h.text(FormatDate(d.CreatedDT))
		h.raw(`</time></div>`)
		h.render(ShareButton(DiaryURL(siteURL, d.ID), title, d.Meta.Description, false))
		h.raw(`</div><a class="block"`)
		h.attr("href", DiaryPath(d.ID))
		h.raw(`><div class="text-foreground mb-4"><div class="font-semibold text-xl mb-2 group-hover:text-primary">`)
		h.text(title)
		h.raw(`</div><div class="text-foreground-secondary leading-relaxed">`)
		h.text(markdown.Excerpt(d, excerptLength))
		h.raw(`</div></div>`)
		if d.Meta.Image != "" {
			h.raw(`<div class="rounded-2xl overflow-hidden border border-border mb-2 shadow-soft">`)
			h.render(Image(ImageProps{
				Src:   d.Meta.Image,
				Alt:   title,
				Size:  cdn.SizeMedium,
				Class: "w-full h-auto object-cover",
				Eager: index == 0,
			}))
			h.raw(`</div>`)
		}
		h.raw(`</a></div></div></div>`, "\n")
	})
}

// ShareButton shares url through the Web Share API, falling back to the
// clipboard. Without JavaScript it is a plain link.
func ShareButton(url, title, text string, labelled bool) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<a class="share-button flex items-center justify-center gap-2 rounded-full text-foreground-secondary hover:text-primary" title="Share this post"`)
		h.attr("href", url)
		h.attr("data-share-url", url)
		h.attr("data-share-title", title)
		h.attr("data-share-text", text)
		h.raw(`>`, iconShare)
		if labelled {
			h.raw(`<span class="text-sm">Share</span>`)
		}
		h.raw(`</a>`)
	})
}

// DiaryCardSkeleton is the placeholder card shown while a page loads.
func DiaryCardSkeleton() templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="p-6 animate-pulse" aria-hidden="true"><div class="flex gap-4">`,
			`<div class="w-10 h-10 rounded-full bg-gray-200"></div>`,
			`<div class="flex-1 space-y-3"><div class="h-4 w-1/3 bg-gray-200 rounded"></div>`,
			`<div class="h-6 w-3/4 bg-gray-200 rounded"></div>`,
			`<div class="h-4 w-full bg-gray-200 rounded"></div>`,
			`<div class="h-48 w-full bg-gray-200 rounded-2xl"></div></div></div></div>`)
	})
}
