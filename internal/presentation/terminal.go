package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Terminal renders dashboards as coloured text
type Terminal struct {
	w      io.Writer
	bold   func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	red    func(a ...interface{}) string
	faint  func(a ...interface{}) string
}

// NewTerminal creates a renderer writing to w
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:      w,
		bold:   color.New(color.Bold).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
		faint:  color.New(color.Faint).SprintFunc(),
	}
}

// Render writes the whole dashboard
func (t *Terminal) Render(v View) {
	t.header(v)
	t.counters(v)
	t.commenters(v)
	t.topPosts(v)
	t.commentStats(v)
}

// RenderError writes a failure the way the dashboard shows it
func (t *Terminal) RenderError(err error) {
	fmt.Fprintf(t.w, "%s %s\n", t.red("✗"), t.red("Failed to load data: "+err.Error()))
}

func (t *Terminal) header(v View) {
	fmt.Fprintln(t.w, t.cyan("🧵 Thread Tracker"))
	fmt.Fprintf(t.w, "%s @%s (%s)\n", t.bold("User:"), v.Username, v.Name)
	fmt.Fprintf(t.w, "%s %s\n", t.faint("Source:"), t.faint(v.Source))
	if v.GeneratedAt != "" {
		fmt.Fprintf(t.w, "%s %s\n", t.faint("Generated:"), t.faint(v.GeneratedAt))
	}
	if v.Note != "" {
		fmt.Fprintln(t.w, t.yellow(v.Note))
	}
	if v.FollowerHint {
		fmt.Fprintln(t.w, t.yellow("Follower count is 0: the account may have no followers or the token lacks threads_manage_insights"))
	}
	fmt.Fprintln(t.w)
}

func (t *Terminal) counters(v View) {
	fmt.Fprintf(t.w, "  %-12s %s\n", "Followers", t.green(v.Followers))
	fmt.Fprintf(t.w, "  %-12s %s (%s analyzed)\n", "Posts", t.green(v.TotalPosts), v.AnalyzedPosts)
	fmt.Fprintf(t.w, "  %-12s %s\n", "Likes", t.green(v.TotalLikes))
	fmt.Fprintf(t.w, "  %-12s %s\n", "Views", t.green(v.TotalViews))
	fmt.Fprintln(t.w)
}

func (t *Terminal) commenters(v View) {
	if len(v.Commenters) == 0 {
		return
	}

	fmt.Fprintln(t.w, t.bold("💬 Top commenters"))
	for _, c := range v.Commenters {
		name := ""
		if c.Name != "" {
			name = " " + t.faint(c.Name)
		}
		fmt.Fprintf(t.w, "  %2d. @%s%s  %s replies on %s posts\n", c.Rank, c.Username, name, t.cyan(c.Replies), c.PostsInteracted)
	}
	fmt.Fprintln(t.w)
}

func (t *Terminal) topPosts(v View) {
	if len(v.TopPosts) == 0 {
		return
	}

	fmt.Fprintln(t.w, t.bold("📊 Top posts"))
	for _, p := range v.TopPosts {
		fmt.Fprintf(t.w, "  %-14s %s %s\n", p.Title, t.green(p.Value), p.Unit)
		fmt.Fprintf(t.w, "  %-14s %s\n", "", t.faint(strings.ReplaceAll(p.Text, "\n", " ")))
	}
	fmt.Fprintln(t.w)
}

func (t *Terminal) commentStats(v View) {
	cs := v.CommentStats
	if cs == nil {
		return
	}

	fmt.Fprintln(t.w, t.bold("Comment stats"))
	fmt.Fprintf(t.w, "  %-14s %s\n", "Total", cs.TotalComments)
	fmt.Fprintf(t.w, "  %-14s %s\n", "Mine", cs.MyComments)
	if cs.MostActive != "" {
		fmt.Fprintf(t.w, "  %-14s %s\n", "Most active", cs.MostActive)
	}
	if cs.MostCommented != "" {
		fmt.Fprintf(t.w, "  %-14s %s\n", "Most comments", cs.MostCommented)
	}
}
