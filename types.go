package diaryengine

import "github.com/eringen/diaryengine/cms"

// FeedResult is one page of the home feed as served to a reader.
type FeedResult struct {
	Items       []cms.DiaryContent
	Page        int // zero-based page index
	Offset      int
	Limit       int
	RecordCount int
	HasMore     bool
	// Stale is set when the CMS failed and the page came from the local
	// snapshot instead.
	Stale bool
}

// DiaryResult is a single diary lookup.
type DiaryResult struct {
	Diary cms.DiaryContent
	Stale bool
}
