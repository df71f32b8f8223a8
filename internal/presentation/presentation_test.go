package presentation

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
	"github.com/vadim/threadstat/internal/domain/analysis/mock"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestFormatCount(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1245:    "1,245",
		45230:   "45,230",
		1234567: "1,234,567",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCount(in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hello w...", Truncate("hello world!", 10))
	assert.Equal(t, "가나다라...", Truncate("가나다라마바사아", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "anything", Truncate("anything", 0))
}

func TestNewView(t *testing.T) {
	res := mock.Canned()
	res.Source = entity.SourceMock
	res.Timestamp = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	v := NewView(res)

	assert.Equal(t, "test_user", v.Username)
	assert.Equal(t, "1,245", v.Followers)
	assert.Equal(t, "8,920", v.TotalLikes)
	assert.Equal(t, "45,230", v.TotalViews)
	assert.Equal(t, "Mock data", v.Source)
	assert.False(t, v.FollowerHint)
	assert.NotEmpty(t, v.GeneratedAt)

	require.Len(t, v.Commenters, 5)
	assert.Equal(t, 1, v.Commenters[0].Rank)
	assert.Equal(t, "active_follower", v.Commenters[0].Username)

	require.Len(t, v.TopPosts, 3)
	assert.Equal(t, "2,340", v.TopPosts[0].Value)
	assert.Equal(t, "reposts", v.TopPosts[1].Unit)

	require.NotNil(t, v.CommentStats)
	assert.Equal(t, "@active_follower (15)", v.CommentStats.MostActive)
}

func TestNewView_Empty(t *testing.T) {
	v := NewView(&entity.Result{
		User:   entity.UserProfile{Username: "alice"},
		Source: entity.SourceAnalysis,
		Note:   entity.NoteNoPosts,
	})

	assert.Equal(t, "N/A", v.Name)
	assert.True(t, v.FollowerHint)
	assert.Empty(t, v.TopPosts)
	assert.Empty(t, v.Commenters)
	assert.Nil(t, v.CommentStats)
	assert.Empty(t, v.GeneratedAt)
}

func TestNewView_CommenterNameHiddenWhenSameAsUsername(t *testing.T) {
	v := NewView(&entity.Result{
		TopCommentUsers: []entity.Commenter{{Username: "bob", Name: "bob", TotalReplies: 2}},
		TopPosts: &entity.TopPosts{
			MostLiked: &entity.PostWithInsights{Insights: entity.PostInsights{Likes: 1}},
		},
	})

	require.Len(t, v.Commenters, 1)
	assert.Empty(t, v.Commenters[0].Name)

	require.Len(t, v.TopPosts, 1)
	assert.Equal(t, "No text", v.TopPosts[0].Text)
}

func TestTerminal_Render(t *testing.T) {
	var buf bytes.Buffer
	NewTerminal(&buf).Render(NewView(mock.Canned()))

	out := buf.String()
	assert.Contains(t, out, "@test_user (Test User)")
	assert.Contains(t, out, "1,245")
	assert.Contains(t, out, " 1. @active_follower Active Follower  15 replies on 12 posts")
	assert.Contains(t, out, "Most liked")
	assert.Contains(t, out, "Most active")
	assert.NotContains(t, out, "\x1b[")
}

func TestTerminal_RenderError(t *testing.T) {
	var buf bytes.Buffer
	NewTerminal(&buf).RenderError(errors.New("token expired"))

	assert.Contains(t, buf.String(), "Failed to load data: token expired")
}
