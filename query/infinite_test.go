package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/cms/mocks"
)

func page(startID, n, total int) *cms.DiaryFeedResponse {
	resp := &cms.DiaryFeedResponse{RecordCount: total}
	for i := 0; i < n; i++ {
		resp.Content = append(resp.Content, cms.DiaryContent{
			ID:     cms.EntryID(startID + i),
			Status: cms.StatusPosted,
		})
	}
	return resp
}

type FeedTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	api  *mocks.MockAPI
}

func (s *FeedTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.api = mocks.NewMockAPI(s.ctrl)
}

func (s *FeedTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFeedTestSuite(t *testing.T) {
	suite.Run(t, new(FeedTestSuite))
}

func (s *FeedTestSuite) TestStopsAfterRecordCountReached() {
	ctx := context.Background()
	gomock.InOrder(
		s.api.EXPECT().FetchFeedPage(ctx, 0, 6).Return(page(1, 6, 12), nil).Times(1),
		s.api.EXPECT().FetchFeedPage(ctx, 6, 6).Return(page(7, 6, 12), nil).Times(1),
	)

	feed := NewFeed(s.api, 6)
	for i := 0; i < 5 && feed.HasNextPage(); i++ {
		_, err := feed.FetchNextPage(ctx)
		s.Require().NoError(err)
	}

	s.False(feed.HasNextPage())
	fetched, err := feed.FetchNextPage(ctx)
	s.NoError(err)
	s.False(fetched)

	items := FeedItems(feed.Pages())
	s.Len(items, 12)
	s.Equal(cms.EntryID(1), items[0].ID)
	s.Equal(cms.EntryID(12), items[11].ID)
}

func (s *FeedTestSuite) TestStopsOnEmptyPage() {
	ctx := context.Background()
	s.api.EXPECT().FetchFeedPage(ctx, 0, 6).Return(page(1, 6, 100), nil)
	s.api.EXPECT().FetchFeedPage(ctx, 6, 6).Return(page(0, 0, 100), nil)

	feed := NewFeed(s.api, 6)
	for feed.HasNextPage() {
		_, err := feed.FetchNextPage(ctx)
		s.Require().NoError(err)
	}
	s.Len(FeedItems(feed.Pages()), 6)
}

func (s *FeedTestSuite) TestFailedPageCanBeRetried() {
	ctx := context.Background()
	gomock.InOrder(
		s.api.EXPECT().FetchFeedPage(ctx, 0, 6).Return(nil, &cms.HTTPError{Status: 500}),
		s.api.EXPECT().FetchFeedPage(ctx, 0, 6).Return(page(1, 3, 3), nil),
	)

	feed := NewFeed(s.api, 6)
	_, err := feed.FetchNextPage(ctx)
	s.Error(err)
	s.Error(feed.Err())
	s.True(feed.HasNextPage())

	fetched, err := feed.FetchNextPage(ctx)
	s.NoError(err)
	s.True(fetched)
	s.NoError(feed.Err())
	s.False(feed.HasNextPage())
}

func (s *FeedTestSuite) TestOnlyOneFetchInFlight() {
	ctx := context.Background()
	release := make(chan struct{})
	s.api.EXPECT().FetchFeedPage(gomock.Any(), 0, 6).DoAndReturn(
		func(context.Context, int, int) (*cms.DiaryFeedResponse, error) {
			<-release
			return page(1, 6, 12), nil
		},
	).Times(1)

	feed := NewFeed(s.api, 6)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = feed.FetchNextPage(ctx)
	}()

	s.Eventually(feed.IsFetchingNextPage, time.Second, time.Millisecond)
	fetched, err := feed.FetchNextPage(ctx)
	s.NoError(err)
	s.False(fetched)

	close(release)
	<-done
	s.Len(feed.Pages(), 1)
}

func (s *FeedTestSuite) TestSentinelDebouncesReveals() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gomock.InOrder(
		s.api.EXPECT().FetchFeedPage(gomock.Any(), 0, 6).Return(page(1, 6, 12), nil).Times(1),
		s.api.EXPECT().FetchFeedPage(gomock.Any(), 6, 6).Return(page(7, 6, 12), nil).Times(1),
	)

	feed := NewFeed(s.api, 6)
	sentinel := NewSentinel(ctx, feed, 10*time.Millisecond)
	defer sentinel.Close()

	for i := 0; i < 5; i++ {
		sentinel.Reveal()
	}
	s.NoError(<-sentinel.Results())
	s.Len(feed.Pages(), 1)

	sentinel.Reveal()
	s.NoError(<-sentinel.Results())

	sentinel.Reveal()
	select {
	case err := <-sentinel.Results():
		s.Failf("unexpected fetch", "err=%v", err)
	case <-time.After(50 * time.Millisecond):
	}
	s.Len(FeedItems(feed.Pages()), 12)
}

func TestFeedHasMore(t *testing.T) {
	cases := []struct {
		page, limit, total int
		want               bool
	}{
		{0, 6, 12, true},
		{1, 6, 12, false},
		{0, 6, 6, false},
		{0, 6, 7, true},
		{0, 6, 0, false},
	}
	for _, c := range cases {
		if got := FeedHasMore(c.page, c.limit, c.total); got != c.want {
			t.Errorf("FeedHasMore(%d, %d, %d) = %v, want %v", c.page, c.limit, c.total, got, c.want)
		}
	}
}

func TestDebouncerRunsLastOnly(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	got := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		d.Trigger(func() { got <- i })
	}
	select {
	case v := <-got:
		if v != 3 {
			t.Fatalf("debounced value = %d, want 3", v)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	select {
	case v := <-got:
		t.Fatalf("unexpected extra call %d", v)
	case <-time.After(30 * time.Millisecond):
	}

	d.Trigger(func() { got <- 9 })
	d.Stop()
	select {
	case <-got:
		t.Fatal("stopped debouncer still fired")
	case <-time.After(30 * time.Millisecond):
	}
}
