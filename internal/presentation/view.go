package presentation

import (
	"time"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
)

const (
	notAvailable   = "N/A"
	noText         = "No text"
	postTextLength = 140
)

// View is a Result prepared for rendering
type View struct {
	Username      string
	Name          string
	Source        string
	GeneratedAt   string
	Note          string
	Followers     string
	TotalPosts    string
	AnalyzedPosts string
	TotalLikes    string
	TotalViews    string
	// FollowerHint is set when a live result reports zero followers, which usually means a missing permission
	FollowerHint bool
	Commenters   []CommenterRow
	TopPosts     []TopPostCard
	CommentStats *CommentStatsView
}

// CommenterRow is one line of the commenter ranking
type CommenterRow struct {
	Rank            int
	Username        string
	Name            string // empty when it equals the username
	Replies         string
	PostsInteracted string
}

// TopPostCard is one of the headline post cards
type TopPostCard struct {
	Kind  string // liked, reposted, replied
	Title string
	Text  string
	Value string
	Unit  string
}

// CommentStatsView summarizes comment statistics
type CommentStatsView struct {
	TotalComments string
	MyComments    string
	MostActive    string
	MostCommented string
}

// NewView prepares res for rendering
func NewView(res *entity.Result) View {
	v := View{
		Username:      orNA(res.User.Username),
		Name:          orNA(res.User.Name),
		Source:        SourceLabel(res.Source),
		Note:          res.Note,
		Followers:     FormatCount(res.FollowerCount),
		TotalPosts:    FormatCount(int64(res.TotalPosts)),
		AnalyzedPosts: FormatCount(int64(res.AnalyzedPosts)),
		TotalLikes:    FormatCount(res.TotalStats.TotalLikes),
		TotalViews:    FormatCount(res.TotalStats.TotalViews),
		FollowerHint:  res.Source != entity.SourceMock && res.FollowerCount == 0,
	}
	if !res.Timestamp.IsZero() {
		v.GeneratedAt = res.Timestamp.UTC().Format(time.RFC1123)
	}

	for i, c := range res.TopCommentUsers {
		row := CommenterRow{
			Rank:            i + 1,
			Username:        c.Username,
			Replies:         FormatCount(c.TotalReplies),
			PostsInteracted: FormatCount(c.PostsInteracted),
		}
		if c.Name != c.Username {
			row.Name = c.Name
		}
		v.Commenters = append(v.Commenters, row)
	}

	if tp := res.TopPosts; tp != nil {
		v.TopPosts = appendCard(v.TopPosts, "liked", "Most liked", "likes", tp.MostLiked, func(in entity.PostInsights) int64 { return in.Likes })
		v.TopPosts = appendCard(v.TopPosts, "reposted", "Most reposted", "reposts", tp.MostReposted, func(in entity.PostInsights) int64 { return in.Reposts })
		v.TopPosts = appendCard(v.TopPosts, "replied", "Most replied", "replies", tp.MostReplied, func(in entity.PostInsights) int64 { return in.Replies })
	}

	if cs := res.CommentStats; cs != nil {
		sv := &CommentStatsView{
			TotalComments: FormatCount(cs.TotalComments),
			MyComments:    FormatCount(cs.TotalMyComments),
		}
		if cs.MostActiveCommenter != nil {
			sv.MostActive = "@" + cs.MostActiveCommenter.Username + " (" + FormatCount(cs.MostActiveCommenter.CommentCount) + ")"
		}
		if cs.MyMostCommentedPost != nil {
			sv.MostCommented = postText(cs.MyMostCommentedPost.Text) + " (" + FormatCount(cs.MyMostCommentedPost.CommentCount) + ")"
		}
		v.CommentStats = sv
	}

	return v
}

func appendCard(cards []TopPostCard, kind, title, unit string, p *entity.PostWithInsights, metric func(entity.PostInsights) int64) []TopPostCard {
	if p == nil {
		return cards
	}
	return append(cards, TopPostCard{
		Kind:  kind,
		Title: title,
		Text:  postText(p.Text),
		Value: FormatCount(metric(p.Insights)),
		Unit:  unit,
	})
}

func postText(s string) string {
	if s == "" {
		return noText
	}
	return Truncate(s, postTextLength)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
