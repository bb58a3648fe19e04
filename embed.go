package diaryengine

import "embed"

// EmbeddedAssets contains static assets shipped with the engine:
// diary.js, diary.css, logo.svg
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
