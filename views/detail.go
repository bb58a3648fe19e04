package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/seo"
)

// Detail renders a full diary page.
func Detail(p Page, d cms.DiaryContent) templ.Component {
	return Layout(p, DetailBody(d, p.SiteURL))
}

// DetailBody is the article without the surrounding layout.
func DetailBody(d cms.DiaryContent, siteURL string) templ.Component {
	title := d.Meta.Title
	if title == "" {
		title = seo.DefaultTitle
	}
	return component(func(h *htmlWriter) {
		h.raw(`<div class="max-w-2xl mx-auto animate-fade-in"><article class="px-4 md:px-6 pt-6 pb-8"`)
		h.attr("data-diary-id", d.ID.String())
		h.raw(`><h1 class="text-2xl md:text-3xl font-bold text-foreground leading-tight mb-4">`)
		h.text(title)
		h.raw(`</h1><div class="flex justify-between items-center mb-4"><div class="flex items-center gap-3">`)
		h.raw(`<div class="w-9 h-9 rounded-full shadow-medium"><img src="/public/icon.png" alt="Wisata Logo" class="w-full h-full object-cover rounded-full"></div>`)
		h.raw(`<div><div class="font-medium text-foreground">`)
		h.text(d.Author(seo.DefaultTitle))
		h.raw(`</div><time class="text-sm text-foreground-secondary"`)
		h.attr("datetime", d.CreatedDT)
		h.raw(`>`)
		h.text(FormatDate(d.CreatedDT))
		h.raw(`</time></div></div>`)
		h.render(ShareButton(DiaryURL(siteURL, d.ID), title, d.Meta.Description, true))
		h.raw(`</div><div class="prose prose-lg max-w-none prose-img:rounded-xl">`)
		h.render(Content(d))
		h.raw(`</div></article>`)
		h.raw(`<div class="px-6 pb-8"><a href="/" data-back class="flex items-center justify-center gap-2 w-full py-3 bg-surface text-foreground border border-border rounded-2xl font-medium">`,
			iconBack, `<span>Back to all stories</span></a></div></div>`)
	})
}

// DetailSkeleton mirrors the article layout while content is loading.
func DetailSkeleton() templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="max-w-2xl mx-auto px-4 md:px-6 pt-6 pb-8 animate-pulse" aria-hidden="true">`,
			`<div class="h-8 w-3/4 bg-gray-200 rounded mb-4"></div>`,
			`<div class="flex items-center gap-3 mb-6"><div class="w-9 h-9 rounded-full bg-gray-200"></div><div class="h-4 w-32 bg-gray-200 rounded"></div></div>`,
			`<div class="space-y-3"><div class="h-4 bg-gray-200 rounded"></div><div class="h-4 bg-gray-200 rounded"></div><div class="h-4 w-5/6 bg-gray-200 rounded"></div>`,
			`<div class="h-64 bg-gray-200 rounded-xl"></div></div></div>`)
	})
}
