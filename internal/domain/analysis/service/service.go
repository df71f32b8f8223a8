package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadim/threadstat/internal/domain/analysis/engine"
	"github.com/vadim/threadstat/internal/domain/analysis/entity"
)

const defaultDetailLimit = 15

// Config holds the pipeline caps
type Config struct {
	// DetailLimit is how many posts get insights and conversations fetched
	DetailLimit   int
	OutputLimit   int
	TopCommenters int
}

// Service runs one analysis pipeline: fetch everything for a token, then aggregate it
type Service struct {
	fetcher *Fetcher
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a new analysis service
func New(fetcher *Fetcher, cfg Config, logger *slog.Logger) *Service {
	if cfg.DetailLimit <= 0 {
		cfg.DetailLimit = defaultDetailLimit
	}

	return &Service{
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock sets the clock used to stamp results
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AnalyzeInput represents input for one pipeline invocation
type AnalyzeInput struct {
	AccessToken string
	// Comments enables conversation fetching and commenter ranking
	Comments bool
}

// Analyze fetches the account's data and aggregates it into a Result.
// Only profile failures and cancellation abort the run; everything else degrades to defaults.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (res *entity.Result, err error) {
	if in.AccessToken == "" {
		return nil, entity.ErrMissingCredential
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis panicked", "panic", r)
			res = nil
			err = &entity.ProcessingError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	start := s.now()
	fetcher := s.fetcher.run()

	profile, err := fetcher.FetchProfile(ctx, in.AccessToken)
	if err != nil {
		var authErr *entity.UpstreamAuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, &entity.ProcessingError{Err: err}
	}

	followers := fetcher.FetchFollowerCount(ctx, in.AccessToken, profile.ID)

	posts, err := fetcher.FetchPosts(ctx, in.AccessToken)
	if err != nil {
		return nil, &entity.ProcessingError{Err: fmt.Errorf("fetching posts: %w", err)}
	}

	selected := posts
	if len(selected) > s.cfg.DetailLimit {
		selected = selected[:s.cfg.DetailLimit]
	}

	details := make([]entity.PostDetail, 0, len(selected))
	for _, post := range selected {
		detail, err := fetcher.FetchPostDetail(ctx, in.AccessToken, post, in.Comments)
		if err != nil {
			return nil, &entity.ProcessingError{Err: fmt.Errorf("fetching post %s: %w", post.ID, err)}
		}
		details = append(details, detail)
	}

	res = engine.Aggregate(engine.Input{
		Profile:       profile,
		FollowerCount: followers,
		TotalPosts:    len(posts),
		Details:       details,
	}, engine.Options{
		Comments:      in.Comments,
		TopCommenters: s.cfg.TopCommenters,
		OutputLimit:   s.cfg.OutputLimit,
	})
	res.Timestamp = s.now().UTC()

	s.logger.Info("analysis completed",
		"username", profile.Username,
		"source", res.Source,
		"total_posts", res.TotalPosts,
		"analyzed_posts", res.AnalyzedPosts,
		"duration", s.now().Sub(start),
	)

	return res, nil
}
