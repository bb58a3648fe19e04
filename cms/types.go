package cms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusPosted is the only status the reader ever requests.
const StatusPosted = "posted"

// EntryID is a diary identifier. The CMS emits it either as a JSON number or
// as a numeric string depending on the endpoint version.
type EntryID int64

// UnmarshalJSON accepts both 123 and "123".
func (id *EntryID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("entry id %q: %w", s, err)
		}
		*id = EntryID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = EntryID(n)
	return nil
}

// String returns the decimal form used in URLs.
func (id EntryID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// DiaryMeta is the descriptive block attached to every entry.
type DiaryMeta struct {
	Type        string `json:"type"`
	Image       string `json:"image,omitempty"`
	Title       string `json:"title"`
	Language    string `json:"language"`
	Description string `json:"description"`
}

// DiaryContent is a single diary entry as returned by the CMS.
type DiaryContent struct {
	ID        EntryID   `json:"id"`
	CreatedBy *string   `json:"created_by"`
	CreatedDT string    `json:"created_dt"`
	Status    string    `json:"status"`
	Content   string    `json:"content"`
	Meta      DiaryMeta `json:"meta"`
}

// Author returns the creator name, or fallback when the CMS left it null.
func (d DiaryContent) Author(fallback string) string {
	if d.CreatedBy == nil || *d.CreatedBy == "" {
		return fallback
	}
	return *d.CreatedBy
}

// DiaryFeedResponse is one page of the feed. RecordCount is the total across
// all pages, not the length of Content.
type DiaryFeedResponse struct {
	RecordCount int            `json:"record_count"`
	Content     []DiaryContent `json:"content"`
}
