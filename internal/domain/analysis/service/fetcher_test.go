package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
	"github.com/vadim/threadstat/internal/httpx/upstream/threads"
	"github.com/vadim/threadstat/internal/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingLimiter struct {
	mu    sync.Mutex
	waits int
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	l.waits++
	l.mu.Unlock()
	return ctx.Err()
}

func (l *countingLimiter) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waits
}

// fixed hands out the same limiter for every run so tests can count waits
func fixed(l ratelimit.Limiter) ratelimit.Factory {
	return func() ratelimit.Limiter { return l }
}

// fakeAPI serves canned Threads responses keyed by page URL and media ID
type fakeAPI struct {
	mu sync.Mutex

	profile    *threads.ProfileOutput
	profileErr error

	followers    *threads.InsightsOutput
	followersErr error

	pages    map[string]*threads.GetThreadsOutput // "" is the first page
	pageErrs map[string]error

	insights     map[string]*threads.InsightsOutput
	insightErrs  map[string]error
	replies      map[string][]threads.ConversationItem
	replyErrs    map[string]error
	pageRequests int
}

func (f *fakeAPI) GetProfile(ctx context.Context, in threads.GetProfileInput) (*threads.ProfileOutput, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeAPI) GetUserInsights(ctx context.Context, in threads.GetUserInsightsInput) (*threads.InsightsOutput, error) {
	if f.followersErr != nil {
		return nil, f.followersErr
	}
	if f.followers == nil {
		return &threads.InsightsOutput{}, nil
	}
	return f.followers, nil
}

func (f *fakeAPI) page(key string) (*threads.GetThreadsOutput, error) {
	f.mu.Lock()
	f.pageRequests++
	f.mu.Unlock()

	if err := f.pageErrs[key]; err != nil {
		return nil, err
	}
	out, ok := f.pages[key]
	if !ok {
		return nil, fmt.Errorf("unexpected page %q", key)
	}
	return out, nil
}

func (f *fakeAPI) GetThreads(ctx context.Context, in threads.GetThreadsInput) (*threads.GetThreadsOutput, error) {
	return f.page("")
}

func (f *fakeAPI) GetThreadsPage(ctx context.Context, nextURL string) (*threads.GetThreadsOutput, error) {
	return f.page(nextURL)
}

func (f *fakeAPI) GetMediaInsights(ctx context.Context, in threads.GetMediaInsightsInput) (*threads.InsightsOutput, error) {
	if err := f.insightErrs[in.MediaID]; err != nil {
		return nil, err
	}
	if out, ok := f.insights[in.MediaID]; ok {
		return out, nil
	}
	return &threads.InsightsOutput{}, nil
}

func (f *fakeAPI) GetConversation(ctx context.Context, in threads.GetConversationInput) (*threads.GetConversationOutput, error) {
	if err := f.replyErrs[in.MediaID]; err != nil {
		return nil, err
	}
	return &threads.GetConversationOutput{Data: f.replies[in.MediaID]}, nil
}

func metric(name string, v int64) threads.Insight {
	return threads.Insight{Name: name, TotalValue: &threads.InsightValue{Value: &v}}
}

// mixedPage returns size raw posts of which the first textPosts are TEXT_POST
func mixedPage(prefix string, size, textPosts int, next string) *threads.GetThreadsOutput {
	out := &threads.GetThreadsOutput{}
	for i := 0; i < size; i++ {
		mediaType := "IMAGE"
		if i < textPosts {
			mediaType = entity.MediaTypeTextPost
		}
		out.Data = append(out.Data, threads.ThreadData{
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			MediaType: mediaType,
		})
	}
	if next != "" {
		out.Paging = &threads.Paging{Next: next}
	}
	return out
}

func TestFetchPosts_FiltersTextPostsAcrossPages(t *testing.T) {
	api := &fakeAPI{
		pages: map[string]*threads.GetThreadsOutput{
			"":       mixedPage("a", 25, 2, "page-2"),
			"page-2": mixedPage("b", 25, 2, "page-3"),
			"page-3": mixedPage("c", 25, 2, ""),
		},
	}
	pageLimiter := &countingLimiter{}
	f := NewFetcher(api, FetcherConfig{PageLimiter: fixed(pageLimiter)}, discardLogger())

	posts, err := f.FetchPosts(context.Background(), "tok")
	require.NoError(t, err)

	require.Len(t, posts, 6)
	assert.Equal(t, 3, api.pageRequests)
	assert.Equal(t, 3, pageLimiter.count())

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		assert.True(t, p.IsTextPost())
	}
	assert.Equal(t, []string{"a-0", "a-1", "b-0", "b-1", "c-0", "c-1"}, ids)
}

func TestFetchPosts_StopsAtCeiling(t *testing.T) {
	api := &fakeAPI{
		pages: map[string]*threads.GetThreadsOutput{
			"":       mixedPage("a", 25, 20, "page-2"),
			"page-2": mixedPage("b", 25, 20, "page-3"),
			"page-3": mixedPage("c", 25, 20, ""),
		},
	}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	posts, err := f.FetchPosts(context.Background(), "tok")
	require.NoError(t, err)

	// the ceiling is checked between pages, so the second page is kept whole
	assert.Len(t, posts, 40)
	assert.Equal(t, 2, api.pageRequests)
}

func TestFetchPosts_PageFailureKeepsCollected(t *testing.T) {
	api := &fakeAPI{
		pages: map[string]*threads.GetThreadsOutput{
			"": mixedPage("a", 5, 3, "page-2"),
		},
		pageErrs: map[string]error{
			"page-2": &threads.APIError{StatusCode: 500, Body: "boom"},
		},
	}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	posts, err := f.FetchPosts(context.Background(), "tok")
	require.NoError(t, err)

	assert.Len(t, posts, 3)
	assert.Equal(t, 2, api.pageRequests)
}

func TestFetchPosts_FirstPageFailureIsEmpty(t *testing.T) {
	api := &fakeAPI{
		pageErrs: map[string]error{"": errors.New("connection reset")},
	}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	posts, err := f.FetchPosts(context.Background(), "tok")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetchPosts_CancelledContext(t *testing.T) {
	api := &fakeAPI{
		pages: map[string]*threads.GetThreadsOutput{"": mixedPage("a", 1, 1, "")},
	}
	f := NewFetcher(api, FetcherConfig{PageLimiter: fixed(&countingLimiter{})}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchPosts(ctx, "tok")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, api.pageRequests)
}

func TestFetchProfile_RejectedTokenIsAuthError(t *testing.T) {
	api := &fakeAPI{profileErr: &threads.APIError{StatusCode: 401, Body: `{"error":"bad token"}`}}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	_, err := f.FetchProfile(context.Background(), "bad")

	var authErr *entity.UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 401, authErr.StatusCode)
	assert.Equal(t, `{"error":"bad token"}`, authErr.Body)
}

func TestFetchProfile(t *testing.T) {
	api := &fakeAPI{profile: &threads.ProfileOutput{ID: "1", Username: "me", Name: "Me", Biography: "hi"}}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	profile, err := f.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, "me", profile.Username)
	assert.Equal(t, "hi", profile.Biography)
}

func TestFetchFollowerCount(t *testing.T) {
	t.Run("total value", func(t *testing.T) {
		api := &fakeAPI{followers: &threads.InsightsOutput{Data: []threads.Insight{metric("followers_count", 1234)}}}
		f := NewFetcher(api, FetcherConfig{}, discardLogger())

		assert.Equal(t, int64(1234), f.FetchFollowerCount(context.Background(), "tok", "1"))
	})

	t.Run("failure is zero", func(t *testing.T) {
		api := &fakeAPI{followersErr: &threads.APIError{StatusCode: 403}}
		f := NewFetcher(api, FetcherConfig{}, discardLogger())

		assert.Zero(t, f.FetchFollowerCount(context.Background(), "tok", "1"))
	})

	t.Run("missing metric is zero", func(t *testing.T) {
		f := NewFetcher(&fakeAPI{}, FetcherConfig{}, discardLogger())

		assert.Zero(t, f.FetchFollowerCount(context.Background(), "tok", "1"))
	})
}

func TestFetchPostDetail(t *testing.T) {
	api := &fakeAPI{
		insights: map[string]*threads.InsightsOutput{
			"p1": {Data: []threads.Insight{
				metric("likes", 10), metric("replies", 2), metric("reposts", 1), metric("quotes", 0), metric("views", 500),
			}},
		},
		replies: map[string][]threads.ConversationItem{
			"p1": {{ID: "r1", Username: "alice", Text: "nice"}, {ID: "r2", Username: "bob"}},
		},
	}
	detailLimiter := &countingLimiter{}
	f := NewFetcher(api, FetcherConfig{DetailLimiter: fixed(detailLimiter)}, discardLogger())

	detail, err := f.FetchPostDetail(context.Background(), "tok", entity.Post{ID: "p1"}, true)
	require.NoError(t, err)

	assert.Equal(t, entity.PostInsights{Likes: 10, Replies: 2, Reposts: 1, Quotes: 0, Views: 500}, detail.Insights)
	assert.True(t, detail.CommentsFetched)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "alice", detail.Comments[0].Username)
	assert.Equal(t, 1, detailLimiter.count())
}

func TestFetchPostDetail_InsightFailureIsZero(t *testing.T) {
	api := &fakeAPI{
		insightErrs: map[string]error{"p1": &threads.APIError{StatusCode: 500, Body: "internal"}},
		replies:     map[string][]threads.ConversationItem{"p1": {{ID: "r1", Username: "alice"}}},
	}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	detail, err := f.FetchPostDetail(context.Background(), "tok", entity.Post{ID: "p1"}, true)
	require.NoError(t, err)

	assert.Equal(t, entity.PostInsights{}, detail.Insights)
	assert.True(t, detail.CommentsFetched)
	assert.Len(t, detail.Comments, 1)
}

func TestFetchPostDetail_ConversationFailureIsEmpty(t *testing.T) {
	api := &fakeAPI{
		insights:  map[string]*threads.InsightsOutput{"p1": {Data: []threads.Insight{metric("likes", 3)}}},
		replyErrs: map[string]error{"p1": errors.New("timeout")},
	}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	detail, err := f.FetchPostDetail(context.Background(), "tok", entity.Post{ID: "p1"}, true)
	require.NoError(t, err)

	assert.Equal(t, int64(3), detail.Insights.Likes)
	assert.False(t, detail.CommentsFetched)
	assert.NotNil(t, detail.Comments)
	assert.Empty(t, detail.Comments)
}

func TestFetchPostDetail_WithoutComments(t *testing.T) {
	api := &fakeAPI{
		replies: map[string][]threads.ConversationItem{"p1": {{ID: "r1", Username: "alice"}}},
	}
	f := NewFetcher(api, FetcherConfig{}, discardLogger())

	detail, err := f.FetchPostDetail(context.Background(), "tok", entity.Post{ID: "p1"}, false)
	require.NoError(t, err)

	assert.False(t, detail.CommentsFetched)
	assert.Empty(t, detail.Comments)
}
