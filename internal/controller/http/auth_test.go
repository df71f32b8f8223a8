package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionentity "github.com/vadim/threadstat/internal/domain/session/entity"
)

const testCookie = "threadstat_session"

type stubSessions struct {
	beginErr    error
	completeErr error
	loggedOut   []string
	sess        *sessionentity.Session
}

func (s *stubSessions) BeginAuthorization(ctx context.Context) (string, error) {
	if s.beginErr != nil {
		return "", s.beginErr
	}
	return "https://threads.net/oauth/authorize?state=abc", nil
}

func (s *stubSessions) CompleteAuthorization(ctx context.Context, code, state string) (*sessionentity.Session, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	if state != "abc" {
		return nil, sessionentity.ErrInvalidState
	}
	return s.sess, nil
}

func (s *stubSessions) IssueToken(sess *sessionentity.Session) (string, error) {
	return "signed-" + sess.ID, nil
}

func (s *stubSessions) CurrentSession(ctx context.Context, raw string) (*sessionentity.Session, error) {
	if s.sess == nil || raw != "signed-"+s.sess.ID {
		return nil, sessionentity.ErrSessionNotFound
	}
	return s.sess, nil
}

func (s *stubSessions) Logout(ctx context.Context, raw string) error {
	s.loggedOut = append(s.loggedOut, raw)
	return nil
}

func testSession() *sessionentity.Session {
	return &sessionentity.Session{
		ID:          "s1",
		UserID:      "42",
		Username:    "alice",
		Name:        "Alice",
		AccessToken: "threads-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func newAuthRouter(s SessionService) http.Handler {
	r := chi.NewRouter()
	NewAuthHandler(s, CookieConfig{Name: testCookie}, discardLogger()).RegisterRoutes(r)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func withCookie(req *http.Request, value string) *http.Request {
	req.AddCookie(&http.Cookie{Name: testCookie, Value: value})
	return req
}

func TestLogin_Redirects(t *testing.T) {
	rec := serve(newAuthRouter(&stubSessions{}), httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://threads.net/oauth/authorize?state=abc", rec.Header().Get("Location"))
}

func TestLogin_NotConfigured(t *testing.T) {
	rec := serve(newAuthRouter(&stubSessions{beginErr: sessionentity.ErrOAuthNotConfigured}),
		httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCallback_SetsCookie(t *testing.T) {
	rec := serve(newAuthRouter(&stubSessions{sess: testSession()}),
		httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=abc", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookie, cookies[0].Name)
	assert.Equal(t, "signed-s1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCallback_Failures(t *testing.T) {
	cases := map[string]struct {
		stub *stubSessions
		url  string
	}{
		"denied":    {&stubSessions{sess: testSession()}, "/auth/callback?error=access_denied"},
		"bad state": {&stubSessions{sess: testSession()}, "/auth/callback?code=c&state=forged"},
		"exchange":  {&stubSessions{completeErr: errors.New("upstream")}, "/auth/callback?code=c&state=abc"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(newAuthRouter(tc.stub), httptest.NewRequest(http.MethodGet, tc.url, nil))

			require.Equal(t, http.StatusFound, rec.Code)
			loc, err := url.Parse(rec.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/", loc.Path)
			assert.NotEmpty(t, signInError(loc.Query().Get("error")))
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	stub := &stubSessions{sess: testSession()}
	req := withCookie(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "signed-s1")

	rec := serve(newAuthRouter(stub), req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"signed-s1"}, stub.loggedOut)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestSessionEndpoint(t *testing.T) {
	router := newAuthRouter(&stubSessions{sess: testSession()})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, withCookie(httptest.NewRequest(http.MethodGet, "/auth/session", nil), "signed-s1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "threads-token")
}
