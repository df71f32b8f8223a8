package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/threadstat/internal/domain/session/entity"
	"github.com/vadim/threadstat/internal/httpx/response"
)

// SessionService defines the interface for sign-in and session operations
type SessionService interface {
	BeginAuthorization(ctx context.Context) (string, error)
	CompleteAuthorization(ctx context.Context, code, state string) (*entity.Session, error)
	IssueToken(sess *entity.Session) (string, error)
	CurrentSession(ctx context.Context, raw string) (*entity.Session, error)
	Logout(ctx context.Context, raw string) error
}

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles the OAuth sign-in flow
type AuthHandler struct {
	sessions SessionService
	cookie   CookieConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions SessionService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		cookie:   cookie,
		logger:   logger,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", h.Login())
		r.Get("/callback", h.Callback())
		r.Post("/logout", h.Logout())
		r.Get("/session", h.Session())
	})
}

// Login handles GET /auth/login
func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := h.sessions.BeginAuthorization(r.Context())
		if err != nil {
			if errors.Is(err, entity.ErrOAuthNotConfigured) {
				response.ServiceUnavailable(w, "Threads sign-in is not configured")
				return
			}
			h.logger.Error("failed to begin authorization", "error", err)
			response.InternalError(w, "failed to begin sign-in")
			return
		}

		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

// Callback handles GET /auth/callback
func (h *AuthHandler) Callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if reason := q.Get("error"); reason != "" {
			h.logger.Warn("authorization denied", "error", reason, "description", q.Get("error_description"))
			redirectWithError(w, r, errCodeCancelled)
			return
		}

		sess, err := h.sessions.CompleteAuthorization(r.Context(), q.Get("code"), q.Get("state"))
		if err != nil {
			h.logger.Error("failed to complete authorization", "error", err)
			redirectWithError(w, r, errCodeSignInFailed)
			return
		}

		token, err := h.sessions.IssueToken(sess)
		if err != nil {
			h.logger.Error("failed to issue session token", "error", err)
			redirectWithError(w, r, errCodeSignInFailed)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie.Name,
			Value:    token,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			HttpOnly: true,
			Secure:   h.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := sessionCookie(r, h.cookie.Name); raw != "" {
			if err := h.sessions.Logout(r.Context(), raw); err != nil {
				h.logger.Error("failed to delete session", "error", err)
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie.Name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// SessionResponse describes the signed-in user
type SessionResponse struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

// SessionUser is the profile fragment kept in the session
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Session handles GET /auth/session
func (h *AuthHandler) Session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.CurrentSession(r.Context(), sessionCookie(r, h.cookie.Name))
		if err != nil {
			response.Unauthorized(w, "not signed in")
			return
		}

		response.OK(w, SessionResponse{
			User: SessionUser{
				ID:       sess.UserID,
				Username: sess.Username,
				Name:     sess.Name,
				Image:    sess.ProfilePictureURL,
			},
			Expires: sess.ExpiresAt,
		})
	}
}

func sessionCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Error codes carried in /?error= after a failed sign-in
const (
	errCodeCancelled    = "cancelled"
	errCodeSignInFailed = "signin_failed"
)

var signInErrors = map[string]string{
	errCodeCancelled:    "Sign-in was cancelled",
	errCodeSignInFailed: "Sign-in failed, please try again",
}

// signInError maps an error code to its banner text; unknown codes show nothing
func signInError(code string) string {
	return signInErrors[code]
}

func redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(code), http.StatusFound)
}
