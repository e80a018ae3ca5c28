package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token   string
	GuildID string

	CommunityChannelID string
	FeaturedChannelID  string
	ModLogChannelID    string
	StatusChannelID    string
	TicketCategoryID   string
	ModRoleID          string

	UpvoteEmoji    string
	UsedEmoji      string
	ValidatedEmoji string

	VoteInterval      time.Duration
	FeaturedInterval  time.Duration
	YTFeedInterval    time.Duration
	VoteWindowDays     int
	VoteMessageLimit   int
	FeaturedWindowDays int
	FeedRetentionDays  int

	FeaturedEndpointURL string
	FeaturedStatusURL   string
	WebsiteAPIToken     string

	YouTubeAPIKeys []string
	YouTubeQuery   string

	SQLitePath string

	HTTPAddr  string
	HTTPToken string
}

// Load reads the environment, with a .env file as a convenience for local
// runs. Only the Discord token is mandatory; everything else has a default
// or degrades the matching component.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env: %v", err)
	}

	return Config{
		Token:   os.Getenv("DISCORD_TOKEN"),
		GuildID: os.Getenv("GUILD_ID"),

		CommunityChannelID: os.Getenv("COMMUNITY_CHANNEL_ID"),
		FeaturedChannelID:  os.Getenv("FEATURED_CHANNEL_ID"),
		ModLogChannelID:    os.Getenv("MODLOG_CHANNEL_ID"),
		StatusChannelID:    os.Getenv("STATUS_CHANNEL_ID"),
		TicketCategoryID:   os.Getenv("TICKET_CATEGORY_ID"),
		ModRoleID:          os.Getenv("MOD_ROLE_ID"),

		UpvoteEmoji:    getenv("UPVOTE_EMOJI", "✅"),
		UsedEmoji:      getenv("USED_EMOJI", "📌"),
		ValidatedEmoji: getenv("VALIDATED_EMOJI", "👍"),

		VoteInterval:       getduration("VOTE_INTERVAL", 48*time.Hour),
		FeaturedInterval:   getduration("FEATURED_INTERVAL", 24*time.Hour),
		YTFeedInterval:     getduration("YTFEED_INTERVAL", time.Hour),
		VoteWindowDays:     getint("VOTE_WINDOW_DAYS", 5),
		VoteMessageLimit:   getint("VOTE_MESSAGE_LIMIT", 50),
		FeaturedWindowDays: getint("FEATURED_WINDOW_DAYS", 30),
		FeedRetentionDays:  getint("FEED_RETENTION_DAYS", 2),

		FeaturedEndpointURL: os.Getenv("FEATURED_ENDPOINT_URL"),
		FeaturedStatusURL:   os.Getenv("FEATURED_STATUS_URL"),
		WebsiteAPIToken:     os.Getenv("WEBSITE_API_TOKEN"),

		YouTubeAPIKeys: getlist("YOUTUBE_API_KEYS"),
		YouTubeQuery:   getenv("YOUTUBE_QUERY", "repuls.io"),

		SQLitePath: getenv("SQLITE_PATH", "repulsbot.db"),

		HTTPAddr:  getenv("HTTP_ADDR", ":9100"),
		HTTPToken: os.Getenv("HTTP_TOKEN"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}

func getlist(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
