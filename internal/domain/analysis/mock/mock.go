// Package mock serves a canned analysis result so the dashboard can be exercised
// without live Threads credentials.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
)

// FixtureStore loads a stored Result JSON document
type FixtureStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Provider returns the canned result after an artificial delay
type Provider struct {
	delay      time.Duration
	fixtures   FixtureStore // optional
	fixtureKey string
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a new mock provider
func New(delay time.Duration, logger *slog.Logger) *Provider {
	return &Provider{
		delay:  delay,
		now:    time.Now,
		logger: logger,
	}
}

// WithFixtures makes the provider prefer the document stored under key
func (p *Provider) WithFixtures(store FixtureStore, key string) *Provider {
	p.fixtures = store
	p.fixtureKey = key
	return p
}

// WithClock sets the clock used to stamp results
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// Result waits for the configured delay and returns the mock payload.
// A fixture that cannot be loaded falls back to the built-in payload.
func (p *Provider) Result(ctx context.Context) (*entity.Result, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	res := p.fromFixture(ctx)
	if res == nil {
		res = Canned()
	}

	res.Source = entity.SourceMock
	res.Timestamp = p.now().UTC()
	return res, nil
}

func (p *Provider) fromFixture(ctx context.Context) *entity.Result {
	if p.fixtures == nil {
		return nil
	}

	body, err := p.fixtures.Get(ctx, p.fixtureKey)
	if err != nil {
		p.logger.Warn("mock fixture unavailable, using built-in payload", "key", p.fixtureKey, "error", err)
		return nil
	}

	res, err := Decode(body)
	if err != nil {
		p.logger.Warn("mock fixture is invalid, using built-in payload", "key", p.fixtureKey, "error", err)
		return nil
	}

	return res
}

// Decode parses a Result JSON document
func Decode(body []byte) (*entity.Result, error) {
	var res entity.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	if res.User.Username == "" {
		return nil, fmt.Errorf("decoding result: user.username is empty")
	}
	if res.Posts == nil {
		res.Posts = []entity.PostWithInsights{}
	}
	if res.TopCommentUsers == nil {
		res.TopCommentUsers = []entity.Commenter{}
	}
	return &res, nil
}
