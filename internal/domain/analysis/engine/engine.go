// Package engine turns fetched Threads posts, insights and conversations into the
// dashboard summary. It performs no I/O and reads no clock, so the same input always
// yields the same Result.
package engine

import (
	"sort"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
)

const (
	defaultTopCommenters = 10
	defaultOutputLimit   = 20
)

// Options selects which facets are computed and how results are capped
type Options struct {
	// Comments enables commenter ranking and comment statistics
	Comments bool
	// TopCommenters caps the commenter ranking (default 10)
	TopCommenters int
	// OutputLimit caps the returned post list (default 20)
	OutputLimit int
}

// Input is everything the engine needs for one invocation
type Input struct {
	Profile       entity.UserProfile
	FollowerCount int64
	// TotalPosts is the number of text posts fetched before the detail cap
	TotalPosts int
	// Details are the posts that had insights (and optionally comments) fetched, in upstream order
	Details []entity.PostDetail
}

// Aggregate builds the Result for one pipeline invocation. It never fails.
func Aggregate(in Input, opts Options) *entity.Result {
	if opts.TopCommenters <= 0 {
		opts.TopCommenters = defaultTopCommenters
	}
	if opts.OutputLimit <= 0 {
		opts.OutputLimit = defaultOutputLimit
	}

	source := entity.SourceBasic
	if opts.Comments {
		source = entity.SourceAnalysis
	}

	res := &entity.Result{
		User:            in.Profile,
		FollowerCount:   in.FollowerCount,
		TotalPosts:      in.TotalPosts,
		TopCommentUsers: []entity.Commenter{},
		Posts:           []entity.PostWithInsights{},
		Source:          source,
	}

	if len(in.Details) == 0 {
		res.Note = entity.NoteNoPosts
		return res
	}

	posts := make([]entity.PostWithInsights, len(in.Details))
	for i, d := range in.Details {
		posts[i] = entity.PostWithInsights{Post: d.Post, Insights: d.Insights}
	}

	res.AnalyzedPosts = len(posts)
	res.TotalStats = sumStats(posts)
	res.TopPosts = topPosts(posts)

	if opts.Comments {
		commenters, stats := aggregateComments(in.Profile.Username, in.Details)
		res.TopCommentUsers = rankCommenters(commenters, opts.TopCommenters)
		res.CommentStats = stats
	}

	if len(posts) > opts.OutputLimit {
		posts = posts[:opts.OutputLimit]
	}
	res.Posts = posts

	return res
}

func sumStats(posts []entity.PostWithInsights) entity.TotalStats {
	var s entity.TotalStats
	for _, p := range posts {
		s.TotalLikes += p.Insights.Likes
		s.TotalReplies += p.Insights.Replies
		s.TotalReposts += p.Insights.Reposts
		s.TotalQuotes += p.Insights.Quotes
		s.TotalViews += p.Insights.Views
	}
	return s
}

// topPosts scans left to right; a later post only replaces the max on a strictly greater value.
func topPosts(posts []entity.PostWithInsights) *entity.TopPosts {
	maxBy := func(metric func(entity.PostInsights) int64) *entity.PostWithInsights {
		best := 0
		for i := 1; i < len(posts); i++ {
			if metric(posts[i].Insights) > metric(posts[best].Insights) {
				best = i
			}
		}
		p := posts[best]
		return &p
	}

	return &entity.TopPosts{
		MostLiked:    maxBy(func(in entity.PostInsights) int64 { return in.Likes }),
		MostReposted: maxBy(func(in entity.PostInsights) int64 { return in.Reposts }),
		MostReplied:  maxBy(func(in entity.PostInsights) int64 { return in.Replies }),
	}
}

// aggregateComments returns commenters in first-seen order together with comment statistics.
func aggregateComments(me string, details []entity.PostDetail) ([]*entity.Commenter, *entity.CommentStats) {
	stats := &entity.CommentStats{}
	byName := make(map[string]*entity.Commenter)
	var order []*entity.Commenter

	var mostCommented *entity.PostDetail
	var mostCommentedCount int64

	for i := range details {
		d := &details[i]
		if !d.CommentsFetched {
			continue
		}

		count := int64(len(d.Comments))
		stats.TotalComments += count
		stats.TotalCommentsOnMyPosts += count
		if count > mostCommentedCount {
			mostCommented = d
			mostCommentedCount = count
		}

		seenOnPost := make(map[string]struct{})
		for _, c := range d.Comments {
			if c.Username == "" {
				continue
			}
			if c.Username == me {
				stats.TotalMyComments++
				continue
			}

			user, ok := byName[c.Username]
			if !ok {
				user = &entity.Commenter{Username: c.Username, Name: c.Username}
				byName[c.Username] = user
				order = append(order, user)
			}
			user.AddReply()

			if _, seen := seenOnPost[c.Username]; !seen {
				seenOnPost[c.Username] = struct{}{}
				user.PostsInteracted++
			}
		}
	}

	var active *entity.Commenter
	for _, c := range order {
		if active == nil || c.TotalReplies > active.TotalReplies {
			active = c
		}
	}
	if active != nil {
		stats.MostActiveCommenter = &entity.ActiveCommenter{
			Username:     active.Username,
			Name:         active.Name,
			CommentCount: active.TotalReplies,
		}
	}

	if mostCommented != nil {
		stats.MyMostCommentedPost = &entity.CommentedPost{
			ID:           mostCommented.Post.ID,
			Text:         mostCommented.Post.Text,
			CommentCount: mostCommentedCount,
		}
	}

	return order, stats
}

func rankCommenters(commenters []*entity.Commenter, limit int) []entity.Commenter {
	ranked := make([]entity.Commenter, 0, len(commenters))
	for _, c := range commenters {
		if c.TotalReplies > 0 {
			ranked = append(ranked, *c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalReplies > ranked[j].TotalReplies
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
