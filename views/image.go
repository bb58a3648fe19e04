package views

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/diaryengine/cdn"
	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/markdown"
)

// Image renders an optimized image with a loading skeleton and an error
// placeholder. The first source is the CDN variant for p.Size; the remaining
// candidates of the fallback chain ride along in data-fallback and are tried
// by diary.js as each one fails.
func Image(p ImageProps) templ.Component {
	size := p.Size
	if size == "" {
		size = cdn.SizeMedium
	}
	chain := cdn.Chain(p.Src, size)
	fallback, _ := json.Marshal(chain[1:])

	loading := "lazy"
	if p.Eager {
		loading = "eager"
	}
	class := strings.TrimSpace("transition-all duration-300 opacity-0 blur-sm " + p.Class)

	return component(func(h *htmlWriter) {
		h.raw(`<div class="relative overflow-hidden bg-gray-100 rounded-lg" data-image-state="loading"`)
		if p.InContent {
			h.attr("data-image-component", strconv.Itoa(p.Index))
			h.attr("data-image-src", p.Src)
			h.attr("data-image-alt", p.Alt)
		}
		h.raw(`>`)
		h.raw(`<div class="image-skeleton absolute inset-0 bg-gray-200 animate-pulse flex items-center justify-center" aria-hidden="true">`,
			`<span class="text-xs text-gray-400">Loading image...</span></div>`)
		h.raw(`<img`)
		h.attr("src", chain[0])
		h.attr("alt", p.Alt)
		h.attr("loading", loading)
		h.raw(` decoding="async"`)
		h.attr("class", class)
		h.attr("data-fallback", string(fallback))
		h.raw(` style="max-width: 100%; height: auto; min-height: 200px">`)
		h.raw(`<div class="image-error hidden absolute inset-0 flex items-center justify-center bg-gray-100 text-gray-500 text-sm min-h-[200px] rounded-lg border-2 border-dashed border-gray-300">`,
			`<div class="flex flex-col items-center space-y-2">`, iconImage,
			`<div class="text-center"><div class="font-medium">Image unavailable</div>`,
			`<div class="text-xs text-gray-400 mt-1">Failed to load image</div></div></div></div>`)
		h.raw(`</div>`)
	})
}

// Content renders the body of a diary. Every content image is replaced by
// Image keyed by its position, embeds are styled and iframes lazy-loaded, all
// in the single pass markdown.Pipeline makes over the rendered document.
func Content(d cms.DiaryContent) templ.Component {
	return markdown.Pipeline{
		ImageSize: cdn.SizeMedium,
		Decorate:  true,
		Image:     contentImage,
	}.Component(d)
}

func contentImage(img markdown.Image) string {
	return renderString(Image(ImageProps{
		Src:       img.Src,
		Alt:       img.Alt,
		Size:      cdn.SizeMedium,
		Class:     "w-full h-auto",
		InContent: true,
		Index:     img.Index,
	}))
}
