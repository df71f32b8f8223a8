package entity

// MediaTypeTextPost marks an original, user-authored text post
const MediaTypeTextPost = "TEXT_POST"

// UserProfile represents the authenticated Threads account
type UserProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name,omitempty"`
	ProfilePictureURL string `json:"threads_profile_picture_url,omitempty"`
	Biography         string `json:"threads_biography,omitempty"`
}

// Post represents a single Threads post as returned by the posts endpoint
type Post struct {
	ID           string `json:"id"`
	MediaType    string `json:"media_type,omitempty"`
	MediaURL     string `json:"media_url,omitempty"`
	Permalink    string `json:"permalink,omitempty"`
	Shortcode    string `json:"shortcode,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Username     string `json:"username,omitempty"`
	Text         string `json:"text,omitempty"`
}

// IsTextPost reports whether the post is an original text post
func (p Post) IsTextPost() bool {
	return p.MediaType == MediaTypeTextPost
}

// PostInsights holds the engagement counters of a post. Missing metrics are 0.
type PostInsights struct {
	Likes   int64 `json:"likes"`
	Replies int64 `json:"replies"`
	Reposts int64 `json:"reposts"`
	Quotes  int64 `json:"quotes"`
	Views   int64 `json:"views"`
}

// PostWithInsights is a post with its insights attached
type PostWithInsights struct {
	Post
	Insights PostInsights `json:"insights"`
}

// CommentAuthor is one entry of a post's conversation list
type CommentAuthor struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// PostDetail groups a post with everything fetched for it
type PostDetail struct {
	Post     Post
	Insights PostInsights
	Comments []CommentAuthor
	// CommentsFetched is false when the conversation list could not be loaded
	CommentsFetched bool
}
