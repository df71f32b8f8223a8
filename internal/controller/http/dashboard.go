package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/threadstat/internal/domain/analysis/policy"
	sessionentity "github.com/vadim/threadstat/internal/domain/session/entity"
	"github.com/vadim/threadstat/internal/presentation"
)

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Thread Tracker</title>
    <style>
        body { margin: 0; font-family: system-ui, sans-serif; background: #f9fafb; color: #111827; }
        header { display: flex; justify-content: space-between; align-items: center; padding: 1rem 2rem; background: #fff; box-shadow: 0 1px 2px rgba(0,0,0,.06); }
        main { max-width: 64rem; margin: 0 auto; padding: 1.5rem; }
        .card { background: #fff; border-radius: .5rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); padding: 1.5rem; margin-bottom: 1.5rem; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(12rem, 1fr)); gap: 1rem; }
        .counter { font-size: 1.75rem; font-weight: 700; }
        .muted { color: #6b7280; font-size: .85rem; }
        .error { background: #fef2f2; border: 1px solid #fecaca; color: #b91c1c; }
        .hint { background: #fefce8; border: 1px solid #fde68a; color: #854d0e; padding: .5rem; border-radius: .25rem; }
        .liked { background: #fef2f2; } .reposted { background: #f0fdf4; } .replied { background: #eff6ff; }
        button, .button { padding: .6rem 1.2rem; border: 0; border-radius: .5rem; background: #2563eb; color: #fff; cursor: pointer; text-decoration: none; font-size: 1rem; }
        button.secondary { background: #e5e7eb; color: #374151; }
        ol { padding-left: 1.25rem; } li { margin: .5rem 0; }
    </style>
</head>
<body>
<header>
    <strong>🧵 Thread Tracker</strong>
    {{if .Session}}
    <form method="post" action="/auth/logout">
        {{if .Session.ProfilePictureURL}}<img src="{{.Session.ProfilePictureURL}}" alt="Profile" width="32" height="32">{{end}}
        <span class="muted">{{if .Session.Name}}{{.Session.Name}}{{else}}@{{.Session.Username}}{{end}}</span>
        <button class="secondary" type="submit">Log out</button>
    </form>
    {{end}}
</header>
<main>
{{if not .Session}}
    <div class="card">
        <h2>Threads account analytics</h2>
        <p>Sign in with Threads to see follower counts, post engagement and your most active commenters.</p>
        {{if .Error}}<p class="card error">{{.Error}}</p>{{end}}
        <a class="button" href="/auth/login">Continue with Threads</a>
        <form method="post" action="/refresh" style="display:inline">
            <input type="hidden" name="mock" value="1">
            <button class="secondary" type="submit">Try demo data</button>
        </form>
    </div>
{{end}}
{{if .Error}}{{if .Session}}
    <div class="card error">
        <h3>Failed to load data</h3>
        <p>{{.Error}}</p>
    </div>
{{end}}{{end}}
{{if .Session}}
    <form method="post" action="/refresh">
        <button type="submit">📊 Refresh data</button>
        <span class="muted">Loading can take up to a minute while posts are fetched.</span>
    </form>
{{end}}
{{with .View}}
    <div class="card">
        <h3>Account</h3>
        <div class="grid">
            <div><p class="muted">Username</p><p>{{.Username}}</p></div>
            <div><p class="muted">Name</p><p>{{.Name}}</p></div>
        </div>
        <p class="muted">Data source: {{.Source}}{{if .GeneratedAt}} · {{.GeneratedAt}}{{end}}</p>
        {{if .FollowerHint}}<p class="hint">Follower count is 0: the account may have no followers, or the token lacks the insights permission.</p>{{end}}
        {{if .Note}}<p class="hint">{{.Note}}</p>{{end}}
    </div>
    <div class="grid">
        <div class="card"><p class="muted">Followers</p><p class="counter">{{.Followers}}</p></div>
        <div class="card"><p class="muted">Posts</p><p class="counter">{{.TotalPosts}}</p><p class="muted">{{.AnalyzedPosts}} analyzed</p></div>
        <div class="card"><p class="muted">Likes</p><p class="counter">{{.TotalLikes}}</p></div>
        <div class="card"><p class="muted">Views</p><p class="counter">{{.TotalViews}}</p></div>
    </div>
    {{if .Commenters}}
    <div class="card">
        <h3>💬 Top 10 commenters</h3>
        <ol>
        {{range .Commenters}}
            <li><strong>@{{.Username}}</strong>{{if .Name}} <span class="muted">{{.Name}}</span>{{end}}
                · {{.Replies}} replies <span class="muted">on {{.PostsInteracted}} posts</span></li>
        {{end}}
        </ol>
    </div>
    {{end}}
    {{if .TopPosts}}
    <div class="card">
        <h3>📊 Top posts</h3>
        <div class="grid">
        {{range .TopPosts}}
            <div class="card {{.Kind}}">
                <h4>{{.Title}}</h4>
                <p>{{.Text}}</p>
                <p class="counter">{{.Value}} <span class="muted">{{.Unit}}</span></p>
            </div>
        {{end}}
        </div>
    </div>
    {{end}}
    {{with .CommentStats}}
    <div class="card">
        <h3>Comment stats</h3>
        <div class="grid">
            <div><p class="muted">Total comments</p><p>{{.TotalComments}}</p></div>
            <div><p class="muted">My comments</p><p>{{.MyComments}}</p></div>
            {{if .MostActive}}<div><p class="muted">Most active commenter</p><p>{{.MostActive}}</p></div>{{end}}
            {{if .MostCommented}}<div><p class="muted">Most commented post</p><p>{{.MostCommented}}</p></div>{{end}}
        </div>
    </div>
    {{end}}
{{end}}
</main>
</body>
</html>`

// SessionReader resolves a session cookie value
type SessionReader interface {
	CurrentSession(ctx context.Context, raw string) (*sessionentity.Session, error)
}

// DashboardHandler renders the HTML dashboard
type DashboardHandler struct {
	analysis   AnalysisPolicy
	sessions   SessionReader
	tokens     SessionTokens
	cookieName string
	tmpl       *template.Template
	logger     *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(analysis AnalysisPolicy, sessions SessionReader, tokens SessionTokens, cookieName string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		analysis:   analysis,
		sessions:   sessions,
		tokens:     tokens,
		cookieName: cookieName,
		tmpl:       template.Must(template.New("dashboard").Parse(dashboardTemplate)),
		logger:     logger,
	}
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index())
	r.Post("/refresh", h.Refresh())
}

type dashboardData struct {
	Session *sessionentity.Session
	View    *presentation.View
	Error   string
}

// Index handles GET /
func (h *DashboardHandler) Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, http.StatusOK, dashboardData{
			Session: h.currentSession(r),
			Error:   signInError(r.URL.Query().Get("error")),
		})
	}
}

// Refresh handles POST /refresh by running the pipeline and rendering its result
func (h *DashboardHandler) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := dashboardData{Session: h.currentSession(r)}

		if r.FormValue("mock") == "1" {
			res, err := h.analysis.Mock(r.Context())
			if err != nil {
				data.Error = err.Error()
				h.render(w, http.StatusInternalServerError, data)
				return
			}
			v := presentation.NewView(res)
			data.View = &v
			h.render(w, http.StatusOK, data)
			return
		}

		if data.Session == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		var tokens policy.TokenSource
		if h.tokens != nil {
			tokens = h.tokens(r)
		}

		res, err := h.analysis.Analyze(r.Context(), tokens)
		if err != nil {
			h.logger.Error("dashboard refresh failed", "error", err)
			data.Error = err.Error()
			h.render(w, http.StatusInternalServerError, data)
			return
		}

		v := presentation.NewView(res)
		data.View = &v
		h.render(w, http.StatusOK, data)
	}
}

func (h *DashboardHandler) currentSession(r *http.Request) *sessionentity.Session {
	raw := sessionCookie(r, h.cookieName)
	if raw == "" {
		return nil
	}

	sess, err := h.sessions.CurrentSession(r.Context(), raw)
	if err != nil {
		return nil
	}
	return sess
}

func (h *DashboardHandler) render(w http.ResponseWriter, status int, data dashboardData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := h.tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
	}
}
