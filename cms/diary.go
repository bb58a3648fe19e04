package cms

//go:generate mockgen -source=diary.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	diaryEndpoint = "/cms/diary"

	// DefaultPageSize is the feed page size used by the reader.
	DefaultPageSize = 6
)

// API is the subset of the CMS the reader depends on.
type API interface {
	FetchFeedPage(ctx context.Context, offset, limit int) (*DiaryFeedResponse, error)
	FetchByIDs(ctx context.Context, ids ...int64) (*DiaryFeedResponse, error)
	FetchContentByID(ctx context.Context, rawID string) (*DiaryContent, error)
}

var _ API = (*Client)(nil)

// FetchFeedPage returns one page of posted entries in server order.
func (c *Client) FetchFeedPage(ctx context.Context, offset, limit int) (*DiaryFeedResponse, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset %d", ErrInvalidArgument, offset)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidArgument, limit)
	}
	var resp DiaryFeedResponse
	err := c.Get(ctx, diaryEndpoint, map[string]any{
		"offset": offset,
		"limit":  limit,
		"status": StatusPosted,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch feed offset=%d limit=%d: %w", offset, limit, err)
	}
	return &resp, nil
}

// FetchByIDs returns the posted entries matching ids.
func (c *Client) FetchByIDs(ctx context.Context, ids ...int64) (*DiaryFeedResponse, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no ids", ErrInvalidArgument)
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: id %d", ErrInvalidArgument, id)
		}
	}
	var resp DiaryFeedResponse
	err := c.Get(ctx, diaryEndpoint, map[string]any{
		"id":     ids,
		"status": StatusPosted,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch ids %v: %w", ids, err)
	}
	return &resp, nil
}

// FetchContentByID looks up a single posted entry. rawID must be a positive
// decimal integer. An empty result is reported as ErrNotFound.
func (c *Client) FetchContentByID(ctx context.Context, rawID string) (*DiaryContent, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	resp, err := c.FetchByIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("diary %d: %w", id, ErrNotFound)
	}
	return &resp.Content[0], nil
}

// ParseID validates a path or query id.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: id is required", ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", ErrInvalidArgument, raw)
	}
	return id, nil
}
