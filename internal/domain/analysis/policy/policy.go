package policy

import (
	"context"
	"strings"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
	"github.com/vadim/threadstat/internal/domain/analysis/service"
)

// TokenSource yields the access token for the current caller, if there is one
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// StaticToken is a token supplied directly by the caller
type StaticToken string

// AccessToken returns the trimmed token; blank tokens are reported as absent
func (t StaticToken) AccessToken(context.Context) (string, bool) {
	tok := strings.TrimSpace(string(t))
	return tok, tok != ""
}

// TokenChain tries each source in order and returns the first token found
type TokenChain []TokenSource

// AccessToken returns the first available token
func (c TokenChain) AccessToken(ctx context.Context) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if tok, ok := src.AccessToken(ctx); ok {
			return tok, true
		}
	}
	return "", false
}

// AnalysisService defines the interface for the analysis pipeline
type AnalysisService interface {
	Analyze(ctx context.Context, in service.AnalyzeInput) (*entity.Result, error)
}

// MockProvider defines the interface for the canned result source
type MockProvider interface {
	Result(ctx context.Context) (*entity.Result, error)
}

// Policy decides which pipeline variant runs for a caller
type Policy struct {
	svc  AnalysisService
	mock MockProvider
}

// New creates a new analysis policy
func New(svc AnalysisService, mock MockProvider) *Policy {
	return &Policy{
		svc:  svc,
		mock: mock,
	}
}

// Analyze runs the full analysis, including commenter ranking and comment statistics
func (p *Policy) Analyze(ctx context.Context, tokens TokenSource) (*entity.Result, error) {
	return p.run(ctx, tokens, true)
}

// AnalyzeBasic runs the analysis without fetching conversations
func (p *Policy) AnalyzeBasic(ctx context.Context, tokens TokenSource) (*entity.Result, error) {
	return p.run(ctx, tokens, false)
}

// Mock returns the canned result
func (p *Policy) Mock(ctx context.Context) (*entity.Result, error) {
	res, err := p.mock.Result(ctx)
	if err != nil {
		return nil, &entity.ProcessingError{Err: err}
	}
	return res, nil
}

func (p *Policy) run(ctx context.Context, tokens TokenSource, comments bool) (*entity.Result, error) {
	if tokens == nil {
		return nil, entity.ErrMissingCredential
	}

	token, ok := tokens.AccessToken(ctx)
	if !ok {
		return nil, entity.ErrMissingCredential
	}

	return p.svc.Analyze(ctx, service.AnalyzeInput{
		AccessToken: token,
		Comments:    comments,
	})
}
