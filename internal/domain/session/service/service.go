package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vadim/threadstat/internal/domain/session/entity"
	"github.com/vadim/threadstat/internal/httpx/upstream/threads"
)

// OAuthClient defines the Threads operations needed to sign a user in
type OAuthClient interface {
	ExchangeCode(ctx context.Context, in threads.ExchangeCodeInput) (*threads.ExchangeCodeOutput, error)
	GetProfile(ctx context.Context, in threads.GetProfileInput) (*threads.ProfileOutput, error)
}

// SessionStore persists sessions
type SessionStore interface {
	Create(ctx context.Context, sess *entity.Session) error
	Get(ctx context.Context, id string) (*entity.Session, error)
	Delete(ctx context.Context, id string) error
}

// StateStore holds pending OAuth state values
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// Config holds OAuth client and session settings
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	Scopes       []string

	TTL      time.Duration
	StateTTL time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// Service implements the OAuth authorization-code flow and session lookup
type Service struct {
	oauth    OAuthClient
	sessions SessionStore
	states   StateStore
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a new session service
func New(oauth OAuthClient, sessions SessionStore, states StateStore, cfg Config, logger *slog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	return &Service{
		oauth:    oauth,
		sessions: sessions,
		states:   states,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock sets the clock used for expiry and token timestamps
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TTL returns how long new sessions stay valid
func (s *Service) TTL() time.Duration {
	return s.cfg.TTL
}

// BeginAuthorization stores a fresh state value and returns the consent screen URL
func (s *Service) BeginAuthorization(ctx context.Context) (string, error) {
	if s.cfg.ClientID == "" || s.cfg.RedirectURI == "" {
		return "", entity.ErrOAuthNotConfigured
	}

	state := uuid.NewString()
	if err := s.states.Put(ctx, state, s.cfg.StateTTL); err != nil {
		return "", fmt.Errorf("saving oauth state: %w", err)
	}

	return threads.AuthorizeURL(threads.AuthorizeURLInput{
		AuthorizeURL: s.cfg.AuthorizeURL,
		ClientID:     s.cfg.ClientID,
		RedirectURI:  s.cfg.RedirectURI,
		Scopes:       s.cfg.Scopes,
		State:        state,
	}), nil
}

// CompleteAuthorization validates the state, exchanges the code and persists a new session
func (s *Service) CompleteAuthorization(ctx context.Context, code, state string) (*entity.Session, error) {
	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		return nil, entity.ErrOAuthNotConfigured
	}
	if state == "" {
		return nil, entity.ErrInvalidState
	}

	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("checking oauth state: %w", err)
	}
	if !ok {
		return nil, entity.ErrInvalidState
	}
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}

	token, err := s.oauth.ExchangeCode(ctx, threads.ExchangeCodeInput{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Code:         code,
		RedirectURI:  s.cfg.RedirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	profile, err := s.oauth.GetProfile(ctx, threads.GetProfileInput{
		AccessToken: token.AccessToken,
		Fields:      []string{"id", "username", "name", "threads_profile_picture_url"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	userID := profile.ID
	if userID == "" {
		userID = token.UserID.String()
	}

	now := s.now()
	sess := &entity.Session{
		ID:                uuid.NewString(),
		UserID:            userID,
		Username:          profile.Username,
		Name:              profile.Name,
		ProfilePictureURL: profile.ProfilePictureURL,
		AccessToken:       token.AccessToken,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.cfg.TTL),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.logger.Info("user signed in", "session_id", sess.ID, "username", sess.Username)
	return sess, nil
}

// IssueToken signs the cookie value identifying sess
func (s *Service) IssueToken(sess *entity.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub": sess.ID,
		"iss": s.cfg.JWTIssuer,
		"aud": s.cfg.JWTAudience,
		"iat": s.now().Unix(),
		"exp": sess.ExpiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// parseToken validates the cookie value and returns the session id it carries
func (s *Service) parseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithAudience(s.cfg.JWTAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", entity.ErrInvalidToken
	}
	return sub, nil
}

// CurrentSession resolves a cookie value to its live session
func (s *Service) CurrentSession(ctx context.Context, raw string) (*entity.Session, error) {
	if raw == "" {
		return nil, entity.ErrSessionNotFound
	}

	id, err := s.parseToken(raw)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired(s.now()) {
		return nil, entity.ErrSessionExpired
	}

	return sess, nil
}

// Logout deletes the session behind the cookie value. Unknown or invalid cookies are ignored.
func (s *Service) Logout(ctx context.Context, raw string) error {
	id, err := s.parseToken(raw)
	if err != nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	s.logger.Info("user signed out", "session_id", id)
	return nil
}

// SessionToken exposes a session cookie as an access token source
type SessionToken struct {
	svc *Service
	raw string
}

// TokenSource returns a token source backed by the session cookie value raw
func (s *Service) TokenSource(raw string) *SessionToken {
	return &SessionToken{svc: s, raw: raw}
}

// AccessToken returns the Threads access token of the live session, if any
func (t *SessionToken) AccessToken(ctx context.Context) (string, bool) {
	if t == nil || t.raw == "" {
		return "", false
	}

	sess, err := t.svc.CurrentSession(ctx, t.raw)
	if err != nil {
		if !errors.Is(err, entity.ErrSessionNotFound) {
			t.svc.logger.Debug("session token rejected", "error", err)
		}
		return "", false
	}
	return sess.AccessToken, sess.AccessToken != ""
}
