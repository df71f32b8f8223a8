package mock

import "github.com/vadim/threadstat/internal/domain/analysis/entity"

func cannedPost(id, text, ts string, in entity.PostInsights) entity.PostWithInsights {
	return entity.PostWithInsights{
		Post:     entity.Post{ID: id, MediaType: entity.MediaTypeTextPost, Text: text, Timestamp: ts, Username: "test_user"},
		Insights: in,
	}
}

func cannedCommenter(username, name string, likes, reposts, replies, posts int64) entity.Commenter {
	c := entity.Commenter{
		Username:        username,
		Name:            name,
		TotalLikes:      likes,
		TotalReposts:    reposts,
		TotalReplies:    replies,
		PostsInteracted: posts,
	}
	c.TotalInteractions = likes + reposts + replies
	return c
}

// Canned returns a fresh copy of the built-in mock payload
func Canned() *entity.Result {
	posts := []entity.PostWithInsights{
		cannedPost("post1", "Our most popular post so far 🔥", "2024-06-15T10:30:00Z",
			entity.PostInsights{Likes: 2340, Replies: 45, Reposts: 23, Quotes: 12, Views: 8900}),
		cannedPost("post2", "The post everyone shared ⭐", "2024-06-14T15:20:00Z",
			entity.PostInsights{Likes: 890, Replies: 12, Reposts: 156, Quotes: 8, Views: 4500}),
		cannedPost("post3", "The one with all the replies 💬", "2024-06-13T09:15:00Z",
			entity.PostInsights{Likes: 560, Replies: 234, Reposts: 34, Quotes: 15, Views: 3200}),
		cannedPost("post4", "Just a regular post", "2024-06-12T14:45:00Z",
			entity.PostInsights{Likes: 234, Replies: 8, Reposts: 12, Quotes: 3, Views: 1200}),
	}

	mostLiked, mostReposted, mostReplied := posts[0], posts[1], posts[2]

	return &entity.Result{
		User: entity.UserProfile{
			ID:                "12345678901234567",
			Username:          "test_user",
			Name:              "Test User",
			ProfilePictureURL: "https://example.com/profile.jpg",
		},
		FollowerCount: 1245,
		TotalPosts:    23,
		AnalyzedPosts: 23,
		TotalStats: entity.TotalStats{
			TotalLikes:   8920,
			TotalReplies: 234,
			TotalReposts: 156,
			TotalQuotes:  45,
			TotalViews:   45230,
		},
		TopPosts: &entity.TopPosts{
			MostLiked:    &mostLiked,
			MostReposted: &mostReposted,
			MostReplied:  &mostReplied,
		},
		TopCommentUsers: []entity.Commenter{
			cannedCommenter("active_follower", "Active Follower", 18, 5, 15, 12),
			cannedCommenter("super_fan_1", "Super Fan", 25, 8, 12, 15),
			cannedCommenter("regular_commenter", "Regular Commenter", 12, 2, 11, 8),
			cannedCommenter("loyal_supporter", "Loyal Supporter", 22, 3, 8, 18),
			cannedCommenter("engaged_user", "Engaged User", 15, 7, 6, 10),
		},
		CommentStats: &entity.CommentStats{
			TotalComments:          52,
			TotalCommentsOnMyPosts: 52,
			TotalMyComments:        4,
			MostActiveCommenter: &entity.ActiveCommenter{
				Username:     "active_follower",
				Name:         "Active Follower",
				CommentCount: 15,
			},
			MyMostCommentedPost: &entity.CommentedPost{
				ID:           "post3",
				Text:         "The one with all the replies 💬",
				CommentCount: 234,
			},
		},
		Posts: posts,
	}
}
