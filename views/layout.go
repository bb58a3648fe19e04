package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/diaryengine/seo"
)

// Layout wraps body in the full document: head metadata, header and the
// client script that drives image fallback, theme and infinite scroll.
func Layout(p Page, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<!DOCTYPE html>\n<html")
		h.attr("lang", seo.Lang(p.Meta))
		if p.Theme == "dark" {
			h.raw(` class="dark"`)
		}
		h.raw(">\n<head>\n")
		h.raw(`<meta charset="utf-8">`, "\n")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`, "\n")
		if p.CSRFToken != "" {
			h.raw(`<meta name="csrf-token"`)
			h.attr("content", p.CSRFToken)
			h.raw(">\n")
		}
		if p.RefreshURL != "" {
			delay := p.RefreshAfter
			if delay <= 0 {
				delay = 5
			}
			h.raw(`<meta http-equiv="refresh"`)
			h.attr("content", strconv.Itoa(delay)+";url="+p.RefreshURL)
			h.raw(">\n")
		}
		h.render(seo.Head(p.Meta))
		h.raw(`<link rel="stylesheet" href="/public/diary.css">`, "\n")
		h.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`, "\n")
		// Loaded synchronously so image error listeners exist before any
		// <img> in the body starts loading.
		h.raw(`<script src="/public/diary.js"></script>`, "\n")
		h.raw("</head>\n")
		h.raw(`<body class="bg-background text-foreground min-h-screen">`, "\n")
		h.render(Header(p))
		h.raw(`<main id="main">`)
		h.render(body)
		h.raw("</main>\n</body>\n</html>\n")
	})
}

// Header renders the sticky site header with the theme toggle.
func Header(p Page) templ.Component {
	name := p.SiteName
	if name == "" {
		name = seo.DefaultTitle
	}
	tagline := p.Tagline
	if tagline == "" {
		tagline = "Explore the world"
	}
	return component(func(h *htmlWriter) {
		h.raw(`<header class="sticky top-0 z-50 flex items-center justify-center bg-surface border-b border-border px-4 py-3">`)
		h.raw(`<div class="flex-1 max-w-3xl flex items-center justify-between">`)
		h.raw(`<a href="/" class="flex items-center gap-2"><div class="w-14"><img src="/public/logo.svg" alt="`)
		h.text(name)
		h.raw(` Logo" class="object-contain rounded-2xl"></div><div><h1 class="text-xl font-semibold">`)
		h.text(name)
		h.raw(`</h1><p class="text-xs text-foreground-secondary">`)
		h.text(tagline)
		h.raw(`</p></div></a>`)
		h.render(ThemeToggle(p.Theme, p.CSRFToken))
		h.raw(`</div></header>`, "\n")
	})
}

// ThemeToggle is a form posting the opposite theme, so it works without
// JavaScript; diary.js upgrades it to an in-place toggle.
func ThemeToggle(theme, csrfToken string) templ.Component {
	next, label := "dark", "Switch to dark mode"
	if theme == "dark" {
		next, label = "light", "Switch to light mode"
	}
	return component(func(h *htmlWriter) {
		h.raw(`<form method="post" action="/theme/" class="theme-toggle" data-theme-toggle>`)
		h.raw(`<input type="hidden" name="_csrf"`)
		h.attr("value", csrfToken)
		h.raw(`><input type="hidden" name="theme"`)
		h.attr("value", next)
		h.raw(`><button type="submit" class="relative p-2 rounded-2xl bg-surface border border-border group"`)
		h.attr("aria-label", label)
		h.attr("title", label)
		h.raw(`>`, iconSun, iconMoon, `</button></form>`)
	})
}
