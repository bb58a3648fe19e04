package diaryengine

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/cms/mocks"
)

func feedResponse(total int, diaries ...cms.DiaryContent) *cms.DiaryFeedResponse {
	return &cms.DiaryFeedResponse{RecordCount: total, Content: diaries}
}

func testConfig() SiteConfig {
	cfg := SiteConfig{URL: "https://diary.example", SessionSecret: "test-secret"}
	cfg.API.Retry.MaxAttempts = -1
	cfg.Cache.FailureThreshold = 2
	cfg.setDefaults()
	return cfg
}

type DiaryCacheTestSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	api   *mocks.MockAPI
	store *Store
	cache *DiaryCache
}

func (s *DiaryCacheTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.api = mocks.NewMockAPI(s.ctrl)
	s.store = setupTestStore(s.T())
	s.cache = NewDiaryCache(s.api, s.store, testConfig(), NewLogger("error", io.Discard), nil)
}

func (s *DiaryCacheTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestDiaryCacheTestSuite(t *testing.T) {
	suite.Run(t, new(DiaryCacheTestSuite))
}

func (s *DiaryCacheTestSuite) TestFeedPageSeedsEntriesAndSnapshot() {
	ctx := context.Background()
	a := testDiary(1, "2024-02-01T00:00:00Z", "A")
	b := testDiary(2, "2024-01-01T00:00:00Z", "B")
	s.api.EXPECT().FetchFeedPage(gomock.Any(), 0, 6).Return(feedResponse(2, a, b), nil).Times(1)

	res, err := s.cache.FeedPage(ctx, 0)
	s.Require().NoError(err)
	s.Len(res.Items, 2)
	s.False(res.HasMore)
	s.False(res.Stale)

	// Served from the entry cache; FetchContentByID is never expected.
	got, err := s.cache.Diary(ctx, "2")
	s.Require().NoError(err)
	s.Equal("B", got.Diary.Meta.Title)

	n, err := s.store.CountDiaries(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	// A second read inside the stale time does not refetch.
	_, err = s.cache.FeedPage(ctx, 0)
	s.NoError(err)
}

func (s *DiaryCacheTestSuite) TestFeedPagePrefetchesNext() {
	ctx := context.Background()
	done := make(chan struct{})
	s.api.EXPECT().FetchFeedPage(gomock.Any(), 0, 6).Return(feedResponse(7, testDiary(1, "2024-01-01", "A")), nil)
	s.api.EXPECT().FetchFeedPage(gomock.Any(), 6, 6).DoAndReturn(
		func(context.Context, int, int) (*cms.DiaryFeedResponse, error) {
			close(done)
			return feedResponse(7, testDiary(7, "2023-01-01", "G")), nil
		})

	res, err := s.cache.FeedPage(ctx, 0)
	s.Require().NoError(err)
	s.True(res.HasMore)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("next page was not prefetched")
	}
}

func (s *DiaryCacheTestSuite) TestFeedPageFallsBackToSnapshot() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveDiaries(ctx, []cms.DiaryContent{testDiary(5, "2024-01-01", "Saved")}))
	s.api.EXPECT().FetchFeedPage(gomock.Any(), 0, 6).Return(nil, &cms.NetworkError{Err: errors.New("connection refused")})

	res, err := s.cache.FeedPage(ctx, 0)
	s.Require().NoError(err)
	s.True(res.Stale)
	s.Require().Len(res.Items, 1)
	s.Equal("Saved", res.Items[0].Meta.Title)
}

func (s *DiaryCacheTestSuite) TestFeedPageClientErrorIsNotMasked() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveDiaries(ctx, []cms.DiaryContent{testDiary(5, "2024-01-01", "Saved")}))
	s.api.EXPECT().FetchFeedPage(gomock.Any(), 0, 6).Return(nil, &cms.HTTPError{Status: 400})

	_, err := s.cache.FeedPage(ctx, 0)
	s.Error(err)
	s.Equal(400, cms.StatusCode(err))
}

func (s *DiaryCacheTestSuite) TestFeedPageRejectsOutOfRangePage() {
	for _, page := range []int{-1, math.MaxInt32, math.MaxInt} {
		_, err := s.cache.FeedPage(context.Background(), page)
		s.ErrorIs(err, cms.ErrInvalidArgument, "page %d", page)
	}
}

func (s *DiaryCacheTestSuite) TestDiaryInvalidIDNeverFetches() {
	_, err := s.cache.Diary(context.Background(), "abc")
	s.ErrorIs(err, cms.ErrInvalidArgument)
	_, err = s.cache.Diary(context.Background(), "-3")
	s.ErrorIs(err, cms.ErrInvalidArgument)
}

func (s *DiaryCacheTestSuite) TestDiaryNotFound() {
	s.api.EXPECT().FetchContentByID(gomock.Any(), "9").Return(nil, cms.ErrNotFound)
	_, err := s.cache.Diary(context.Background(), "9")
	s.ErrorIs(err, cms.ErrNotFound)
}

func (s *DiaryCacheTestSuite) TestDiaryFallsBackToSnapshot() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveDiaries(ctx, []cms.DiaryContent{testDiary(42, "2024-01-01", "Saved")}))
	s.api.EXPECT().FetchContentByID(gomock.Any(), "42").Return(nil, &cms.HTTPError{Status: 502})

	res, err := s.cache.Diary(ctx, "42")
	s.Require().NoError(err)
	s.True(res.Stale)
	s.Equal("Saved", res.Diary.Meta.Title)
}

func (s *DiaryCacheTestSuite) TestDiaryTransientErrorWithoutSnapshot() {
	s.api.EXPECT().FetchContentByID(gomock.Any(), "43").Return(nil, &cms.HTTPError{Status: 503})
	_, err := s.cache.Diary(context.Background(), "43")
	s.True(cms.Retryable(err))
}

func (s *DiaryCacheTestSuite) TestWarm() {
	ctx := context.Background()
	s.api.EXPECT().FetchByIDs(gomock.Any(), int64(3), int64(4)).
		Return(feedResponse(2, testDiary(3, "2024-01-01", "C"), testDiary(4, "2024-01-02", "D")), nil)

	n, err := s.cache.Warm(ctx, 3, 4)
	s.Require().NoError(err)
	s.Equal(2, n)

	got, err := s.cache.Diary(ctx, "4")
	s.Require().NoError(err)
	s.Equal("D", got.Diary.Meta.Title)
}

func (s *DiaryCacheTestSuite) TestRecentPrefersSnapshot() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveDiaries(ctx, []cms.DiaryContent{testDiary(1, "2024-01-01", "A")}))

	items, err := s.cache.Recent(ctx, 10)
	s.Require().NoError(err)
	s.Len(items, 1)
}
