package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 48*time.Hour, cfg.VoteInterval)
	assert.Equal(t, 24*time.Hour, cfg.FeaturedInterval)
	assert.Equal(t, time.Hour, cfg.YTFeedInterval)
	assert.Equal(t, 5, cfg.VoteWindowDays)
	assert.Equal(t, 50, cfg.VoteMessageLimit)
	assert.Equal(t, 30, cfg.FeaturedWindowDays)
	assert.Equal(t, 2, cfg.FeedRetentionDays)
	assert.Equal(t, "✅", cfg.UpvoteEmoji)
	assert.Equal(t, "repuls.io", cfg.YouTubeQuery)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FEATURED_WINDOW_DAYS", "7")
	t.Setenv("VOTE_INTERVAL", "12h")
	t.Setenv("YOUTUBE_API_KEYS", "key-a, key-b,")

	cfg := Load()
	assert.Equal(t, 7, cfg.FeaturedWindowDays)
	assert.Equal(t, 12*time.Hour, cfg.VoteInterval)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.YouTubeAPIKeys)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FEATURED_WINDOW_DAYS", "soon")
	t.Setenv("VOTE_INTERVAL", "tomorrow")

	cfg := Load()
	assert.Equal(t, 30, cfg.FeaturedWindowDays)
	assert.Equal(t, 48*time.Hour, cfg.VoteInterval)
}
