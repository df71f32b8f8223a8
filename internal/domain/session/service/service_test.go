package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/threadstat/internal/domain/session/dao"
	"github.com/vadim/threadstat/internal/domain/session/entity"
	"github.com/vadim/threadstat/internal/httpx/upstream/threads"
)

type fakeOAuth struct {
	exchanged []threads.ExchangeCodeInput
	err       error
}

func (f *fakeOAuth) ExchangeCode(ctx context.Context, in threads.ExchangeCodeInput) (*threads.ExchangeCodeOutput, error) {
	f.exchanged = append(f.exchanged, in)
	if f.err != nil {
		return nil, f.err
	}
	return &threads.ExchangeCodeOutput{AccessToken: "threads-token", UserID: json.Number("42")}, nil
}

func (f *fakeOAuth) GetProfile(ctx context.Context, in threads.GetProfileInput) (*threads.ProfileOutput, error) {
	return &threads.ProfileOutput{ID: "42", Username: "alice", Name: "Alice"}, nil
}

var testConfig = Config{
	ClientID:     "cid",
	ClientSecret: "secret",
	RedirectURI:  "http://localhost:8080/auth/callback",
	Scopes:       []string{"threads_basic"},
	TTL:          time.Hour,
	StateTTL:     time.Minute,
	JWTSecret:    "test-secret",
	JWTIssuer:    "threadstat",
	JWTAudience:  "threadstat-dashboard",
}

type testEnv struct {
	svc      *Service
	oauth    *fakeOAuth
	sessions *dao.SessionMemory
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		oauth:    &fakeOAuth{},
		sessions: dao.NewSessionMemory(),
		now:      time.Now().Truncate(time.Second),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.svc = New(env.oauth, env.sessions, dao.NewStateMemory(), testConfig, logger).
		WithClock(func() time.Time { return env.now })
	return env
}

func stateFrom(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func (e *testEnv) signIn(t *testing.T) (*entity.Session, string) {
	t.Helper()
	redirect, err := e.svc.BeginAuthorization(context.Background())
	require.NoError(t, err)

	sess, err := e.svc.CompleteAuthorization(context.Background(), "the-code", stateFrom(t, redirect))
	require.NoError(t, err)

	token, err := e.svc.IssueToken(sess)
	require.NoError(t, err)
	return sess, token
}

func TestBeginAuthorization(t *testing.T) {
	env := newTestEnv(t)

	redirect, err := env.svc.BeginAuthorization(context.Background())
	require.NoError(t, err)

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, testConfig.RedirectURI, u.Query().Get("redirect_uri"))
	assert.NotEmpty(t, u.Query().Get("state"))
}

func TestBeginAuthorization_NotConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(&fakeOAuth{}, dao.NewSessionMemory(), dao.NewStateMemory(), Config{}, logger)

	_, err := svc.BeginAuthorization(context.Background())
	assert.ErrorIs(t, err, entity.ErrOAuthNotConfigured)
}

func TestCompleteAuthorization(t *testing.T) {
	env := newTestEnv(t)

	sess, token := env.signIn(t)

	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, "42", sess.UserID)
	assert.Equal(t, "threads-token", sess.AccessToken)
	assert.Equal(t, env.now.Add(time.Hour), sess.ExpiresAt)
	assert.NotEmpty(t, token)

	require.Len(t, env.oauth.exchanged, 1)
	assert.Equal(t, "the-code", env.oauth.exchanged[0].Code)
	assert.Equal(t, "secret", env.oauth.exchanged[0].ClientSecret)
}

func TestCompleteAuthorization_RejectsUnknownOrReusedState(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CompleteAuthorization(context.Background(), "code", "forged")
	assert.ErrorIs(t, err, entity.ErrInvalidState)

	redirect, err := env.svc.BeginAuthorization(context.Background())
	require.NoError(t, err)
	state := stateFrom(t, redirect)

	_, err = env.svc.CompleteAuthorization(context.Background(), "code", state)
	require.NoError(t, err)

	_, err = env.svc.CompleteAuthorization(context.Background(), "code", state)
	assert.ErrorIs(t, err, entity.ErrInvalidState)
	assert.Len(t, env.oauth.exchanged, 1)
}

func TestCompleteAuthorization_ExchangeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.oauth.err = &threads.APIError{StatusCode: 400, Message: "invalid code"}

	redirect, err := env.svc.BeginAuthorization(context.Background())
	require.NoError(t, err)

	_, err = env.svc.CompleteAuthorization(context.Background(), "bad", stateFrom(t, redirect))

	var apiErr *threads.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestCurrentSession(t *testing.T) {
	env := newTestEnv(t)
	sess, token := env.signIn(t)

	got, err := env.svc.CurrentSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = env.svc.CurrentSession(context.Background(), "")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	_, err = env.svc.CurrentSession(context.Background(), token+"x")
	assert.ErrorIs(t, err, entity.ErrInvalidToken)
}

func TestCurrentSession_WrongSecret(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(t)

	other := *env.svc
	other.cfg.JWTSecret = "another-secret"

	_, err := other.CurrentSession(context.Background(), token)
	assert.ErrorIs(t, err, entity.ErrInvalidToken)
}

func TestCurrentSession_Expired(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(t)

	env.now = env.now.Add(2 * time.Hour)

	_, err := env.svc.CurrentSession(context.Background(), token)
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	sess, token := env.signIn(t)

	require.NoError(t, env.svc.Logout(context.Background(), token))

	_, err := env.sessions.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	assert.NoError(t, env.svc.Logout(context.Background(), "garbage"))
}

func TestTokenSource(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(t)

	tok, ok := env.svc.TokenSource(token).AccessToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "threads-token", tok)

	_, ok = env.svc.TokenSource("").AccessToken(context.Background())
	assert.False(t, ok)

	require.NoError(t, env.svc.Logout(context.Background(), token))
	_, ok = env.svc.TokenSource(token).AccessToken(context.Background())
	assert.False(t, ok)
}
