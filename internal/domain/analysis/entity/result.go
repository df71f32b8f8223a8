package entity

import "time"

// Result sources
const (
	SourceAnalysis = "threads_api_analysis"
	SourceBasic    = "threads_api"
	SourceMock     = "mock_data"
)

// NoteNoPosts is attached to results produced from an empty post list
const NoteNoPosts = "No posts available from API"

// TotalStats holds per-metric sums across analyzed posts
type TotalStats struct {
	TotalLikes   int64 `json:"totalLikes"`
	TotalReplies int64 `json:"totalReplies"`
	TotalReposts int64 `json:"totalReposts"`
	TotalQuotes  int64 `json:"totalQuotes"`
	TotalViews   int64 `json:"totalViews"`
}

// TopPosts points at the best post for each headline metric
type TopPosts struct {
	MostLiked    *PostWithInsights `json:"mostLiked"`
	MostReposted *PostWithInsights `json:"mostReposted"`
	MostReplied  *PostWithInsights `json:"mostReplied"`
}

// Commenter aggregates everything one external user did on the account's posts
type Commenter struct {
	Username          string `json:"username"`
	Name              string `json:"name,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url"`
	TotalLikes        int64  `json:"total_likes"`
	TotalReposts      int64  `json:"total_reposts"`
	TotalReplies      int64  `json:"total_replies"`
	TotalInteractions int64  `json:"total_interactions"`
	PostsInteracted   int64  `json:"posts_interacted"`
}

// AddReply records one reply and keeps TotalInteractions in sync
func (c *Commenter) AddReply() {
	c.TotalReplies++
	c.recount()
}

func (c *Commenter) recount() {
	c.TotalInteractions = c.TotalLikes + c.TotalReposts + c.TotalReplies
}

// ActiveCommenter is the external user with the most comments
type ActiveCommenter struct {
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	CommentCount int64  `json:"commentCount"`
}

// CommentedPost is the account's post with the most comments
type CommentedPost struct {
	ID           string `json:"id"`
	Text         string `json:"text,omitempty"`
	CommentCount int64  `json:"commentCount"`
}

// CommentStats holds comment counters across analyzed posts
type CommentStats struct {
	TotalComments          int64            `json:"totalComments"`
	TotalCommentsOnMyPosts int64            `json:"totalCommentsOnMyPosts"`
	TotalMyComments        int64            `json:"totalMyComments"`
	MostActiveCommenter    *ActiveCommenter `json:"mostActiveCommenter,omitempty"`
	MyMostCommentedPost    *CommentedPost   `json:"myMostCommentedPost,omitempty"`
}

// Result is the dashboard payload produced by one pipeline invocation
type Result struct {
	User            UserProfile        `json:"user"`
	FollowerCount   int64              `json:"followerCount"`
	TotalPosts      int                `json:"totalPosts"`
	AnalyzedPosts   int                `json:"analyzedPosts"`
	TotalStats      TotalStats         `json:"totalStats"`
	TopPosts        *TopPosts          `json:"topPosts"`
	TopCommentUsers []Commenter        `json:"topCommentUsers"`
	CommentStats    *CommentStats      `json:"commentStats,omitempty"`
	Posts           []PostWithInsights `json:"posts"`
	Source          string             `json:"_source"`
	Timestamp       time.Time          `json:"_timestamp"`
	Note            string             `json:"_note,omitempty"`
}
