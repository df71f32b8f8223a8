package app

import (
	"fmt"
	"log/slog"

	"github.com/vadim/threadstat/internal/config"
	"github.com/vadim/threadstat/internal/domain/analysis/mock"
	"github.com/vadim/threadstat/internal/domain/analysis/policy"
	"github.com/vadim/threadstat/internal/domain/analysis/service"
	"github.com/vadim/threadstat/internal/httpx/upstream/threads"
	"github.com/vadim/threadstat/internal/ratelimit"
	"github.com/vadim/threadstat/internal/storage"
)

// NewThreadsClient builds the Graph API client from configuration
func NewThreadsClient(cfg config.Threads) *threads.Client {
	return threads.New(
		threads.WithBaseURL(cfg.BaseURL),
		threads.WithAPIVersion(cfg.APIVersion),
		threads.WithUserAgent(cfg.UserAgent),
	)
}

// NewFixtureStorage returns the S3 fixture bucket, or nil when fixtures are disabled
func NewFixtureStorage(cfg config.S3) (*storage.S3Storage, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	store, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fixture storage: %w", err)
	}

	return store, nil
}

// NewAnalysisPolicy wires the fetcher, analysis service and mock provider.
// The server and the CLI share it so both run the same pipeline.
func NewAnalysisPolicy(api service.ThreadsAPI, cfg config.Config, logger *slog.Logger) (*policy.Policy, error) {
	fetcher := service.NewFetcher(api, service.FetcherConfig{
		PageSize:      cfg.Analysis.PageSize,
		PostCeiling:   cfg.Analysis.PostCeiling,
		CallTimeout:   cfg.Analysis.CallTimeout,
		PageLimiter:   ratelimit.Every(cfg.Analysis.PageInterval),
		DetailLimiter: ratelimit.Every(cfg.Analysis.DetailInterval),
	}, logger)

	svc := service.New(fetcher, service.Config{
		DetailLimit:   cfg.Analysis.DetailLimit,
		OutputLimit:   cfg.Analysis.OutputLimit,
		TopCommenters: cfg.Analysis.TopCommenters,
	}, logger)

	provider := mock.New(cfg.Analysis.MockDelay, logger)

	fixtures, err := NewFixtureStorage(cfg.S3)
	if err != nil {
		return nil, err
	}
	if fixtures != nil {
		provider.WithFixtures(fixtures, cfg.S3.FixtureKey)
	}

	return policy.New(svc, provider), nil
}
