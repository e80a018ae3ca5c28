package featured

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/repuls-community/repulsbot/src/discord"
	"github.com/repuls-community/repulsbot/src/store"
	"github.com/repuls-community/repulsbot/src/webclient"
	"github.com/repuls-community/repulsbot/src/youtube"
)

// Session is the slice of the gateway the engine needs. *discordgo.Session
// satisfies it.
type Session interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// Publisher pushes videos to the game website.
type Publisher interface {
	Publish(ctx context.Context, videoURL string) webclient.Result
	CurrentFeatured(ctx context.Context) (string, time.Time, bool)
}

// Store is the slice of the persistent store the engine needs.
type Store interface {
	GetForcedVideo() store.Forced
	SetForcedVideo(messageID string, days int) bool
	ActivateForcedVideo(deadline time.Time) bool
	ClearForcedVideo() bool
	SyncCandidate(messageID string, validated bool) store.CandidateStatus
	MarkUsed(messageID string) bool
}

type Config struct {
	Session           Session
	Publisher         Publisher
	Store             Store
	GuildID           string
	FeaturedChannelID string
	AnnounceChannelID string
	LogChannelID      string
	WindowDays        int
	MessageLimit      int
	ValidatedEmoji    string
	UsedEmoji         string
	Rand              *rand.Rand
}

// Engine publishes the website's featured video on a fixed cadence. A forced
// override set by an admin always takes precedence; otherwise it draws from
// the featured channel's recent validated videos, preferring ones that never
// aired.
type Engine struct {
	config Config
}

func New(config Config) *Engine {
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{config: config}
}

// Run is the scheduled task body. At most one publish attempt is made per
// cycle, and a failed attempt is never retried until the next cycle or an
// admin re-run.
func (e *Engine) Run(ctx context.Context) error {
	forced := e.config.Store.GetForcedVideo()
	if forced.State != store.ForcedNone {
		if e.runForced(ctx, forced) {
			return nil
		}
		// The override pointed at a dead or linkless message and has been
		// cleared; continue with a normal selection.
	}
	return e.runNormal(ctx)
}

// runForced consumes the override. Returns false only when the override was
// unusable and cleared, meaning the cycle should fall through to a normal
// pick. A failed publish of a usable override still ends the cycle.
func (e *Engine) runForced(ctx context.Context, forced store.Forced) bool {
	msg, err := e.config.Session.ChannelMessage(e.config.FeaturedChannelID, forced.MessageID)
	if err != nil {
		e.audit("⚠️ Forced video message %s no longer exists, clearing the override.", forced.MessageID)
		e.config.Store.ClearForcedVideo()
		return false
	}

	url := youtube.Extract(msg.Content)
	if url == "" {
		e.audit("⚠️ Forced video message %s contains no video link, clearing the override.", forced.MessageID)
		e.config.Store.ClearForcedVideo()
		return false
	}

	res := e.config.Publisher.Publish(ctx, url)
	if !res.OK() {
		e.announce("⚠️ The website's featured video could not be updated this time.")
		e.audit("⚠️ Failed to publish the forced video (status %s). It will be retried next cycle.", res)
		return true
	}

	e.markConsumed(forced.MessageID)
	if forced.State == store.ForcedPending {
		deadline := time.Now().UTC().Add(time.Duration(forced.Days) * 24 * time.Hour)
		e.config.Store.ActivateForcedVideo(deadline)
		e.announce("🌟 The website's featured video has been updated!")
		e.audit("📌 Forced video is now live until %s.", deadline.Format(time.RFC1123))
	} else {
		log.Printf("featured: forced video %s republished", forced.MessageID)
	}
	return true
}

func (e *Engine) runNormal(ctx context.Context) error {
	fresh, reused, err := e.scan(ctx)
	if err != nil {
		return fmt.Errorf("featured: %w", err)
	}

	pool := fresh
	recycled := false
	if len(pool) == 0 {
		pool = reused
		recycled = true
	}
	if len(pool) == 0 {
		e.audit("🤷 No validated videos in the featured channel window, nothing to publish.")
		return nil
	}

	choice := pool[e.config.Rand.Intn(len(pool))]
	res := e.config.Publisher.Publish(ctx, choice.url)
	if !res.OK() {
		e.announce("⚠️ The website's featured video could not be updated this time.")
		e.audit("⚠️ Failed to publish %s (status %s). It will be retried next cycle.", choice.url, res)
		return nil
	}

	e.markConsumed(choice.messageID)
	e.announce("🌟 The website's featured video has been updated!")
	if recycled {
		e.audit("♻️ Republished an already-featured video, no fresh validated ones were available: %s", choice.url)
	} else {
		e.audit("✅ Published %s to the website.", choice.url)
	}
	return nil
}

// markConsumed flags the candidate in the store and mirrors it onto the
// message as the used reaction, so admins browsing the channel can see which
// videos already aired. The store row is the source of truth; the reaction
// is only an indicator.
func (e *Engine) markConsumed(messageID string) {
	if !e.config.Store.MarkUsed(messageID) {
		log.Printf("featured: failed to persist used flag for %s", messageID)
	}
	if e.config.UsedEmoji == "" {
		return
	}
	if err := e.config.Session.MessageReactionAdd(e.config.FeaturedChannelID, messageID, e.config.UsedEmoji); err != nil {
		log.Printf("featured: used reaction on %s: %v", messageID, err)
	}
}

type candidate struct {
	messageID string
	url       string
}

// scan walks the featured channel window, re-syncs each video message's
// validated bit from its current reactions, and splits validated candidates
// into never-aired and already-aired pools.
func (e *Engine) scan(ctx context.Context) (fresh, reused []candidate, err error) {
	after := discord.SnowflakeAt(time.Now().UTC().AddDate(0, 0, -e.config.WindowDays))
	messages, err := e.config.Session.ChannelMessages(e.config.FeaturedChannelID, e.config.MessageLimit, "", after, "")
	if err != nil {
		return nil, nil, fmt.Errorf("history %s: %w", e.config.FeaturedChannelID, err)
	}

	for _, m := range messages {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		url := youtube.Extract(m.Content)
		if url == "" {
			continue
		}

		status := e.config.Store.SyncCandidate(m.ID, hasReaction(m, e.config.ValidatedEmoji))
		if !status.Validated {
			continue
		}

		c := candidate{messageID: m.ID, url: url}
		if status.Used {
			reused = append(reused, c)
		} else {
			fresh = append(fresh, c)
		}
	}

	return fresh, reused, nil
}

// SetForced validates and stores a pending override from a message jump
// link. The returned string is the user-facing confirmation; a non-nil error
// carries the user-facing rejection.
func (e *Engine) SetForced(messageLink string, days int) (string, error) {
	if days < 1 {
		return "", fmt.Errorf("days must be at least 1")
	}

	_, channelID, messageID, ok := discord.ParseMessageLink(messageLink)
	if !ok {
		return "", fmt.Errorf("that does not look like a Discord message link")
	}
	if channelID != e.config.FeaturedChannelID {
		return "", fmt.Errorf("the message must be in the featured videos channel")
	}

	msg, err := e.config.Session.ChannelMessage(channelID, messageID)
	if err != nil {
		return "", fmt.Errorf("could not fetch that message, is the link correct?")
	}
	if youtube.Extract(msg.Content) == "" {
		return "", fmt.Errorf("that message does not contain a video link")
	}

	if !e.config.Store.SetForcedVideo(messageID, days) {
		return "", fmt.Errorf("could not save the override, try again")
	}

	reply := fmt.Sprintf("Done. The video will be forced for %d day(s) starting from the next featured-video cycle.", days)
	if !hasReaction(msg, e.config.ValidatedEmoji) {
		reply += "\n⚠️ Note: that video has not been validated with " + e.config.ValidatedEmoji + " yet."
	}
	return reply, nil
}

// ClearForced drops the override, reporting whether one existed.
func (e *Engine) ClearForced() (string, error) {
	forced := e.config.Store.GetForcedVideo()
	if forced.State == store.ForcedNone {
		return "There is no forced video set.", nil
	}
	if !e.config.Store.ClearForcedVideo() {
		return "", fmt.Errorf("could not clear the override, try again")
	}
	return "Forced video cleared. The next cycle picks from the community pool again.", nil
}

// Status describes the override and what the website currently shows.
func (e *Engine) Status(ctx context.Context) string {
	var out string

	forced := e.config.Store.GetForcedVideo()
	switch forced.State {
	case store.ForcedPending:
		out = fmt.Sprintf("A forced video is pending: %s (forced for %d day(s) once it airs).",
			discord.MessageLink(e.config.GuildID, e.config.FeaturedChannelID, forced.MessageID), forced.Days)
	case store.ForcedActive:
		out = fmt.Sprintf("A forced video is live: %s (until %s).",
			discord.MessageLink(e.config.GuildID, e.config.FeaturedChannelID, forced.MessageID),
			forced.Deadline.Format(time.RFC1123))
	default:
		out = "No forced video is set."
	}

	if url, updatedAt, ok := e.config.Publisher.CurrentFeatured(ctx); ok {
		out += fmt.Sprintf("\nThe website currently shows %s", url)
		if !updatedAt.IsZero() {
			out += fmt.Sprintf(" (since %s)", updatedAt.Format(time.RFC1123))
		}
		out += "."
	} else {
		out += "\nThe website's current video could not be read."
	}

	return out
}

// audit carries the detailed entry for moderators: process log plus the
// moderation log channel.
func (e *Engine) audit(format string, args ...interface{}) {
	content := fmt.Sprintf(format, args...)
	log.Printf("featured: %s", content)
	if e.config.LogChannelID == "" {
		return
	}
	if _, err := e.config.Session.ChannelMessageSend(e.config.LogChannelID, content); err != nil {
		log.Printf("featured: admin log send: %v", err)
	}
}

// announce is the short public notice for the community, without the status
// detail the audit entry carries.
func (e *Engine) announce(content string) {
	if e.config.AnnounceChannelID == "" {
		return
	}
	if _, err := e.config.Session.ChannelMessageSend(e.config.AnnounceChannelID, content); err != nil {
		log.Printf("featured: announce: %v", err)
	}
}

func hasReaction(m *discordgo.Message, emoji string) bool {
	for _, r := range m.Reactions {
		if r.Emoji != nil && r.Emoji.Name == emoji && r.Count > 0 {
			return true
		}
	}
	return false
}
