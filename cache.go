package diaryengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/query"
)

// DiaryCache sits between the handlers and the CMS. Feed pages and single
// entries are cached separately; every entry seen in a feed page also seeds
// the entry cache so opening a card never needs a second request. Fetched
// entries are written to the Store, which serves as the fallback when the
// CMS fails with a transient error.
type DiaryCache struct {
	api     cms.API
	store   *Store
	limit   int
	logger  *slog.Logger
	feed    *query.Cache[*cms.DiaryFeedResponse]
	content *query.Cache[cms.DiaryContent]
}

// NewDiaryCache creates a DiaryCache. store may be nil.
func NewDiaryCache(api cms.API, store *Store, cfg SiteConfig, logger *slog.Logger, metrics *query.Metrics) *DiaryCache {
	policy := cfg.RetryPolicy()
	limit := cfg.API.PageSize
	if limit <= 0 {
		limit = cms.DefaultPageSize
	}
	return &DiaryCache{
		api:    api,
		store:  store,
		limit:  limit,
		logger: logger,
		feed: query.New[*cms.DiaryFeedResponse](query.Options{
			Name:      "feed",
			StaleTime: cfg.Cache.FeedStaleTime,
			GCTime:    cfg.Cache.GCTime,
			Retry:     policy,
			Logger:    logger,
			Metrics:   metrics,
		}),
		content: query.New[cms.DiaryContent](query.Options{
			Name:      "content",
			StaleTime: cfg.Cache.ContentStaleTime,
			GCTime:    cfg.Cache.GCTime,
			Retry:     policy,
			Logger:    logger,
			Metrics:   metrics,
		}),
	}
}

func feedKey(offset, limit int) string {
	return strconv.Itoa(offset) + ":" + strconv.Itoa(limit)
}

// Limit is the feed page size.
func (c *DiaryCache) Limit() int {
	return c.limit
}

func (c *DiaryCache) fetchPage(offset int) func(context.Context) (*cms.DiaryFeedResponse, error) {
	return func(ctx context.Context) (*cms.DiaryFeedResponse, error) {
		resp, err := c.api.FetchFeedPage(ctx, offset, c.limit)
		if err != nil {
			return nil, err
		}
		c.remember(ctx, resp.Content)
		return resp, nil
	}
}

// remember seeds the entry cache and the snapshot with freshly fetched entries.
func (c *DiaryCache) remember(ctx context.Context, items []cms.DiaryContent) {
	for _, d := range items {
		if d.ID > 0 {
			c.content.Set(d.ID.String(), d)
		}
	}
	if c.store == nil {
		return
	}
	if err := c.store.SaveDiaries(ctx, items); err != nil {
		c.logger.Warn("snapshot save failed", "count", len(items), "error", err)
	}
}

// FeedPage returns page (zero-based) of the home feed and prefetches the one
// after it.
func (c *DiaryCache) FeedPage(ctx context.Context, page int) (FeedResult, error) {
	if page < 0 || page > math.MaxInt32/c.limit {
		return FeedResult{}, fmt.Errorf("%w: page %d", cms.ErrInvalidArgument, page)
	}
	offset := page * c.limit
	result := FeedResult{Page: page, Offset: offset, Limit: c.limit}

	resp, err := c.feed.Get(ctx, feedKey(offset, c.limit), c.fetchPage(offset))
	if err != nil {
		if stale, ok := c.snapshotPage(ctx, result, err); ok {
			return stale, nil
		}
		return FeedResult{}, err
	}

	result.Items = resp.Content
	result.RecordCount = resp.RecordCount
	result.HasMore = len(resp.Content) > 0 && query.FeedHasMore(page, c.limit, resp.RecordCount)
	if result.HasMore {
		next := offset + c.limit
		c.feed.Prefetch(context.WithoutCancel(ctx), feedKey(next, c.limit), c.fetchPage(next))
	}
	return result, nil
}

func (c *DiaryCache) snapshotPage(ctx context.Context, result FeedResult, cause error) (FeedResult, bool) {
	if c.store == nil || !cms.Retryable(cause) {
		return FeedResult{}, false
	}
	items, err := c.store.ListDiaries(ctx, result.Offset, result.Limit)
	if err != nil || len(items) == 0 {
		return FeedResult{}, false
	}
	total, err := c.store.CountDiaries(ctx)
	if err != nil {
		return FeedResult{}, false
	}
	c.logger.Warn("serving feed from snapshot", "offset", result.Offset, "error", cause)
	result.Items = items
	result.RecordCount = total
	result.HasMore = query.FeedHasMore(result.Page, result.Limit, total)
	result.Stale = true
	return result, true
}

// Diary returns the entry with the given raw id. Malformed ids fail with
// cms.ErrInvalidArgument and unknown ids with cms.ErrNotFound.
func (c *DiaryCache) Diary(ctx context.Context, rawID string) (DiaryResult, error) {
	id, err := cms.ParseID(rawID)
	if err != nil {
		return DiaryResult{}, err
	}
	key := strconv.FormatInt(id, 10)
	d, err := c.content.Get(ctx, key, func(ctx context.Context) (cms.DiaryContent, error) {
		d, err := c.api.FetchContentByID(ctx, key)
		if err != nil {
			return cms.DiaryContent{}, err
		}
		if c.store != nil {
			if err := c.store.SaveDiaries(ctx, []cms.DiaryContent{*d}); err != nil {
				c.logger.Warn("snapshot save failed", "id", key, "error", err)
			}
		}
		return *d, nil
	})
	if err == nil {
		return DiaryResult{Diary: d}, nil
	}
	if c.store != nil && cms.Retryable(err) {
		if snap, serr := c.store.GetDiary(ctx, id); serr == nil {
			c.logger.Warn("serving diary from snapshot", "id", key, "error", err)
			return DiaryResult{Diary: snap, Stale: true}, nil
		} else if !errors.Is(serr, cms.ErrNotFound) {
			c.logger.Error("snapshot read failed", "id", key, "error", serr)
		}
	}
	return DiaryResult{}, err
}

// Warm fetches ids in one request and seeds the entry cache with them.
func (c *DiaryCache) Warm(ctx context.Context, ids ...int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	resp, err := c.api.FetchByIDs(ctx, ids...)
	if err != nil {
		return 0, err
	}
	c.remember(ctx, resp.Content)
	return len(resp.Content), nil
}

// Recent returns up to limit entries for the sitemap and RSS feed, preferring
// the snapshot and falling back to the first feed page.
func (c *DiaryCache) Recent(ctx context.Context, limit int) ([]cms.DiaryContent, error) {
	if c.store != nil {
		items, err := c.store.ListDiaries(ctx, 0, limit)
		if err != nil {
			c.logger.Error("snapshot list failed", "error", err)
		} else if len(items) > 0 {
			return items, nil
		}
	}
	res, err := c.FeedPage(ctx, 0)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Invalidate drops every cached page and entry.
func (c *DiaryCache) Invalidate() {
	c.feed.Clear()
	c.content.Clear()
}

// Sweep evicts entries past their GC time.
func (c *DiaryCache) Sweep() int {
	return c.feed.Sweep() + c.content.Sweep()
}
