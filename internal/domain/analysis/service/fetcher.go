package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
	"github.com/vadim/threadstat/internal/httpx/upstream/threads"
	"github.com/vadim/threadstat/internal/ratelimit"
)

const (
	defaultPageSize    = 25
	defaultPostCeiling = 25
	defaultCallTimeout = 15 * time.Second

	metricFollowers = "followers_count"
)

// ThreadsAPI defines the Threads Graph API operations the fetcher relies on
type ThreadsAPI interface {
	GetProfile(ctx context.Context, in threads.GetProfileInput) (*threads.ProfileOutput, error)
	GetUserInsights(ctx context.Context, in threads.GetUserInsightsInput) (*threads.InsightsOutput, error)
	GetThreads(ctx context.Context, in threads.GetThreadsInput) (*threads.GetThreadsOutput, error)
	GetThreadsPage(ctx context.Context, nextURL string) (*threads.GetThreadsOutput, error)
	GetMediaInsights(ctx context.Context, in threads.GetMediaInsightsInput) (*threads.InsightsOutput, error)
	GetConversation(ctx context.Context, in threads.GetConversationInput) (*threads.GetConversationOutput, error)
}

// FetcherConfig holds pacing and limits for the fetcher
type FetcherConfig struct {
	PageSize    int
	PostCeiling int
	CallTimeout time.Duration
	// PageLimiter spaces page requests; DetailLimiter spaces per-post detail fetches.
	// Both are built anew for every run.
	PageLimiter   ratelimit.Factory
	DetailLimiter ratelimit.Factory
}

// Fetcher issues the ordered sequence of upstream calls for one analysis.
// Failures other than the profile fetch are logged and replaced by zero values.
type Fetcher struct {
	api         ThreadsAPI
	newPages    ratelimit.Factory
	newDetails  ratelimit.Factory
	pages       ratelimit.Limiter
	details     ratelimit.Limiter
	pageSize    int
	postCeiling int
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(api ThreadsAPI, cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PostCeiling <= 0 {
		cfg.PostCeiling = defaultPostCeiling
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.PageLimiter == nil {
		cfg.PageLimiter = ratelimit.Every(0)
	}
	if cfg.DetailLimiter == nil {
		cfg.DetailLimiter = ratelimit.Every(0)
	}

	return &Fetcher{
		api:         api,
		newPages:    cfg.PageLimiter,
		newDetails:  cfg.DetailLimiter,
		pages:       cfg.PageLimiter(),
		details:     cfg.DetailLimiter(),
		pageSize:    cfg.PageSize,
		postCeiling: cfg.PostCeiling,
		callTimeout: cfg.CallTimeout,
		logger:      logger,
	}
}

// run returns a copy of the fetcher with its own limiters for one pipeline invocation
func (f *Fetcher) run() *Fetcher {
	c := *f
	c.pages = f.newPages()
	c.details = f.newDetails()
	return &c
}

// FetchProfile retrieves the token owner's profile. It is the only fatal upstream call.
func (f *Fetcher) FetchProfile(ctx context.Context, token string) (entity.UserProfile, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
	defer cancel()

	out, err := f.api.GetProfile(callCtx, threads.GetProfileInput{AccessToken: token})
	if err != nil {
		var apiErr *threads.APIError
		if errors.As(err, &apiErr) {
			return entity.UserProfile{}, &entity.UpstreamAuthError{StatusCode: apiErr.StatusCode, Body: apiErr.Body}
		}
		return entity.UserProfile{}, fmt.Errorf("fetching profile: %w", err)
	}

	return entity.UserProfile{
		ID:                out.ID,
		Username:          out.Username,
		Name:              out.Name,
		ProfilePictureURL: out.ProfilePictureURL,
		Biography:         out.Biography,
	}, nil
}

// FetchFollowerCount returns the account's follower count, or 0 when it cannot be determined
func (f *Fetcher) FetchFollowerCount(ctx context.Context, token, userID string) int64 {
	callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
	defer cancel()

	out, err := f.api.GetUserInsights(callCtx, threads.GetUserInsightsInput{
		UserID:      userID,
		AccessToken: token,
		Metrics:     []string{metricFollowers},
	})
	if err != nil {
		f.degraded("follower insights unavailable", err, "user_id", userID)
		return 0
	}

	count, ok := out.Metric(metricFollowers)
	if !ok {
		f.logger.Warn("follower metric missing from insights response", "user_id", userID)
		return 0
	}

	return count
}

// FetchPosts follows cursor pagination and returns the user's text posts in upstream order.
// A failing page ends pagination with what was collected so far; only context
// cancellation is returned as an error.
func (f *Fetcher) FetchPosts(ctx context.Context, token string) ([]entity.Post, error) {
	var (
		posts []entity.Post
		next  string
	)

	for page := 0; len(posts) < f.postCeiling; page++ {
		if page > 0 && next == "" {
			break
		}

		if err := f.pages.Wait(ctx); err != nil {
			return posts, fmt.Errorf("waiting for page limiter: %w", err)
		}

		out, err := f.fetchPage(ctx, token, next)
		if err != nil {
			if ctx.Err() != nil {
				return posts, ctx.Err()
			}
			f.degraded("posts page unavailable, stopping pagination", err, "page", page+1, "collected", len(posts))
			break
		}

		var kept int
		for _, d := range out.Data {
			if d.MediaType != entity.MediaTypeTextPost {
				continue
			}
			posts = append(posts, postFromThread(d))
			kept++
		}

		f.logger.Debug("fetched posts page",
			"page", page+1,
			"received", len(out.Data),
			"text_posts", kept,
			"total", len(posts),
		)

		next = out.NextURL()
	}

	return posts, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, token, next string) (*threads.GetThreadsOutput, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
	defer cancel()

	if next == "" {
		return f.api.GetThreads(callCtx, threads.GetThreadsInput{AccessToken: token, Limit: f.pageSize})
	}
	return f.api.GetThreadsPage(callCtx, next)
}

// FetchPostDetail fetches a post's insights and, when withComments is set, its conversation.
// The two sub-fetches fail independently; only context cancellation is returned as an error.
func (f *Fetcher) FetchPostDetail(ctx context.Context, token string, post entity.Post, withComments bool) (entity.PostDetail, error) {
	detail := entity.PostDetail{Post: post, Comments: []entity.CommentAuthor{}}

	if err := f.details.Wait(ctx); err != nil {
		return detail, fmt.Errorf("waiting for detail limiter: %w", err)
	}

	detail.Insights = f.fetchInsights(ctx, token, post.ID)

	if withComments {
		comments, ok := f.fetchComments(ctx, token, post.ID)
		detail.Comments = comments
		detail.CommentsFetched = ok
	}

	if err := ctx.Err(); err != nil {
		return detail, err
	}

	return detail, nil
}

func (f *Fetcher) fetchInsights(ctx context.Context, token, postID string) entity.PostInsights {
	callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
	defer cancel()

	out, err := f.api.GetMediaInsights(callCtx, threads.GetMediaInsightsInput{
		MediaID:     postID,
		AccessToken: token,
		Metrics:     threads.PostMetrics,
	})
	if err != nil {
		f.degraded("post insights unavailable", err, "post_id", postID)
		return entity.PostInsights{}
	}

	metric := func(name string) int64 {
		v, _ := out.Metric(name)
		if v < 0 {
			return 0
		}
		return v
	}

	return entity.PostInsights{
		Likes:   metric("likes"),
		Replies: metric("replies"),
		Reposts: metric("reposts"),
		Quotes:  metric("quotes"),
		Views:   metric("views"),
	}
}

func (f *Fetcher) fetchComments(ctx context.Context, token, postID string) ([]entity.CommentAuthor, bool) {
	callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
	defer cancel()

	out, err := f.api.GetConversation(callCtx, threads.GetConversationInput{
		MediaID:     postID,
		AccessToken: token,
	})
	if err != nil {
		f.degraded("post conversation unavailable", err, "post_id", postID)
		return []entity.CommentAuthor{}, false
	}

	comments := make([]entity.CommentAuthor, 0, len(out.Data))
	for _, item := range out.Data {
		comments = append(comments, entity.CommentAuthor{
			ID:        item.ID,
			Username:  item.Username,
			Text:      item.Text,
			Timestamp: item.Timestamp,
		})
	}

	f.logger.Debug("fetched conversation", "post_id", postID, "replies", len(comments))
	return comments, true
}

func (f *Fetcher) degraded(msg string, err error, args ...any) {
	args = append(args, "error", fmt.Errorf("%w: %v", entity.ErrUpstreamDegraded, err))
	f.logger.Warn(msg, args...)
}

func postFromThread(d threads.ThreadData) entity.Post {
	return entity.Post{
		ID:           d.ID,
		MediaType:    d.MediaType,
		MediaURL:     d.MediaURL,
		Permalink:    d.Permalink,
		Shortcode:    d.Shortcode,
		ThumbnailURL: d.ThumbnailURL,
		Timestamp:    d.Timestamp,
		Username:     d.Username,
		Text:         d.Text,
	}
}
