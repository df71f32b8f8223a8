package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
	"github.com/vadim/threadstat/internal/domain/analysis/policy"
	"github.com/vadim/threadstat/internal/httpx/response"
)

// AnalysisPolicy defines the interface for analysis operations
type AnalysisPolicy interface {
	Analyze(ctx context.Context, tokens policy.TokenSource) (*entity.Result, error)
	AnalyzeBasic(ctx context.Context, tokens policy.TokenSource) (*entity.Result, error)
	Mock(ctx context.Context) (*entity.Result, error)
}

// SessionTokens resolves the session cookie of a request to a token source; nil when there is none
type SessionTokens func(r *http.Request) policy.TokenSource

// Failure messages returned to API clients
const (
	msgMissingToken   = "Access token is required"
	msgAnalysisFailed = "Threads analysis request failed"
	msgBasicFailed    = "Threads API request failed"
	msgMockFailed     = "Failed to generate mock data"
)

// AnalysisHandler handles the JSON analysis API
type AnalysisHandler struct {
	policy   AnalysisPolicy
	sessions SessionTokens
	now      func() time.Time
	logger   *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(p AnalysisPolicy, sessions SessionTokens, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		policy:   p,
		sessions: sessions,
		now:      time.Now,
		logger:   logger,
	}
}

// RegisterRoutes registers analysis routes.
// They are mounted as sub-routers so CORS runs before method matching.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	corsMiddleware := apiCORS()

	r.Route("/api/threads", func(r chi.Router) {
		r.Use(corsMiddleware)

		// Full analysis with commenter ranking
		r.Post("/analysis", h.Analyze())

		// Profile, followers and post insights only
		r.Post("/followers", h.AnalyzeBasic())

		// Canned payload for exercising the dashboard
		r.Post("/mock", h.Mock())
	})

	r.Route("/analyze", func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Post("/", h.Analyze())
	})
}

// AnalyzeRequest represents the request body of the analysis endpoints
type AnalyzeRequest struct {
	AccessToken string `json:"accessToken"`
}

// Analyze handles POST /api/threads/analysis
func (h *AnalysisHandler) Analyze() http.HandlerFunc {
	return h.run(msgAnalysisFailed, func(ctx context.Context, tokens policy.TokenSource) (*entity.Result, error) {
		return h.policy.Analyze(ctx, tokens)
	})
}

// AnalyzeBasic handles POST /api/threads/followers
func (h *AnalysisHandler) AnalyzeBasic() http.HandlerFunc {
	return h.run(msgBasicFailed, func(ctx context.Context, tokens policy.TokenSource) (*entity.Result, error) {
		return h.policy.AnalyzeBasic(ctx, tokens)
	})
}

// Mock handles POST /api/threads/mock
func (h *AnalysisHandler) Mock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.policy.Mock(r.Context())
		if err != nil {
			h.logger.Error("mock analysis failed", "error", err)
			response.ErrorWithDetails(w, http.StatusInternalServerError, msgMockFailed, err.Error(), h.now())
			return
		}

		response.OK(w, res)
	}
}

func (h *AnalysisHandler) run(failure string, analyze func(context.Context, policy.TokenSource) (*entity.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		// 400 is reserved for a missing token; an unreadable body is a processing failure
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Warn("invalid analysis request body", "error", err)
			response.ErrorWithDetails(w, http.StatusInternalServerError, failure, "invalid request body: "+err.Error(), h.now())
			return
		}

		tokens := policy.TokenChain{policy.StaticToken(req.AccessToken)}
		if h.sessions != nil {
			tokens = append(tokens, h.sessions(r))
		}

		res, err := analyze(r.Context(), tokens)
		if err != nil {
			h.writeError(w, failure, err)
			return
		}

		response.OK(w, res)
	}
}

func (h *AnalysisHandler) writeError(w http.ResponseWriter, failure string, err error) {
	if errors.Is(err, entity.ErrMissingCredential) {
		response.BadRequest(w, msgMissingToken)
		return
	}

	var authErr *entity.UpstreamAuthError
	if errors.As(err, &authErr) {
		h.logger.Warn("profile fetch rejected", "status", authErr.StatusCode, "error", err)
	} else {
		h.logger.Error("analysis failed", "error", err)
	}

	response.ErrorWithDetails(w, http.StatusInternalServerError, failure, err.Error(), h.now())
}
