package ytfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/bwmarrin/discordgo"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3/search"

// Session is the slice of the gateway the feed needs.
type Session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Store is the dedup slice of the persistent store.
type Store interface {
	AddPostedVideo(videoID string) bool
	PurgePostedVideos(days int)
}

type Config struct {
	Session            Session
	Store              Store
	APIKeys            []string
	Query              string
	CommunityChannelID string
	LookbackHours      int
	RetentionDays      int
	BaseURL            string
	HTTPClient         *http.Client
}

// Feed polls the YouTube search API for fresh videos matching the game query
// and drops them into the community channel, where they become vote
// candidates. Duplicate suppression is durable so restarts never repost.
type Feed struct {
	config Config
}

func New(config Config) *Feed {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.LookbackHours <= 0 {
		config.LookbackHours = 2
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 2
	}
	return &Feed{config: config}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// Run is the scheduled task body: search, dedup, post, purge.
func (f *Feed) Run(ctx context.Context) error {
	if len(f.config.APIKeys) == 0 {
		return fmt.Errorf("ytfeed: no API keys configured")
	}

	resp, err := f.search(ctx)
	if err != nil {
		return fmt.Errorf("ytfeed: %w", err)
	}

	posted := 0
	for _, item := range resp.Items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if item.ID.VideoID == "" {
			continue
		}
		if !f.config.Store.AddPostedVideo(item.ID.VideoID) {
			continue
		}

		content := fmt.Sprintf("**%s** just posted a new video!\nhttps://www.youtube.com/watch?v=%s",
			item.Snippet.ChannelTitle, item.ID.VideoID)
		if _, err := f.config.Session.ChannelMessageSend(f.config.CommunityChannelID, content); err != nil {
			log.Printf("ytfeed: post %s: %v", item.ID.VideoID, err)
			continue
		}
		posted++
	}

	if posted > 0 {
		log.Printf("ytfeed: posted %d new video(s)", posted)
	}
	f.config.Store.PurgePostedVideos(f.config.RetentionDays)
	return nil
}

// search tries each API key in order until one yields a usable response.
// Quota exhaustion on one key (403) moves on to the next.
func (f *Feed) search(ctx context.Context) (*searchResponse, error) {
	publishedAfter := time.Now().UTC().Add(-time.Duration(f.config.LookbackHours) * time.Hour)

	var lastErr error
	for _, key := range f.config.APIKeys {
		resp, err := f.searchWithKey(ctx, key, publishedAfter)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Printf("ytfeed: key rotation: %v", err)
	}
	return nil, fmt.Errorf("all API keys failed: %w", lastErr)
}

func (f *Feed) searchWithKey(ctx context.Context, key string, publishedAfter time.Time) (*searchResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("maxResults", "25")
	params.Set("q", f.config.Query)
	params.Set("publishedAfter", publishedAfter.Format(time.RFC3339))
	params.Set("key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.config.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &body, nil
}
