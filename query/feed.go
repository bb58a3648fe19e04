package query

import (
	"context"

	"github.com/eringen/diaryengine/cms"
)

// FeedHasMore reports whether pages beyond pageIndex exist, given the total
// record count reported by the CMS. Page indexes start at zero.
func FeedHasMore(pageIndex, limit, recordCount int) bool {
	return (pageIndex+1)*limit < recordCount
}

// FeedNextParam stops once the cumulative count of fetched items reaches the
// CMS record count, or when a page comes back empty.
func FeedNextParam(limit int) NextParamFunc[*cms.DiaryFeedResponse] {
	return func(last *cms.DiaryFeedResponse, pages []*cms.DiaryFeedResponse) (int, bool) {
		if last == nil || len(last.Content) == 0 {
			return 0, false
		}
		if !FeedHasMore(len(pages)-1, limit, last.RecordCount) {
			return 0, false
		}
		return len(pages), true
	}
}

// NewFeed returns an infinite query over the posted-diary feed.
func NewFeed(api cms.API, limit int) *InfiniteQuery[*cms.DiaryFeedResponse] {
	if limit <= 0 {
		limit = cms.DefaultPageSize
	}
	fetch := func(ctx context.Context, page int) (*cms.DiaryFeedResponse, error) {
		return api.FetchFeedPage(ctx, page*limit, limit)
	}
	return NewInfinite[*cms.DiaryFeedResponse](0, fetch, FeedNextParam(limit))
}

// FeedItems concatenates the entries of pages in fetch order.
func FeedItems(pages []*cms.DiaryFeedResponse) []cms.DiaryContent {
	var n int
	for _, p := range pages {
		if p != nil {
			n += len(p.Content)
		}
	}
	items := make([]cms.DiaryContent, 0, n)
	for _, p := range pages {
		if p != nil {
			items = append(items, p.Content...)
		}
	}
	return items
}
