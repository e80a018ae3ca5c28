package votes

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/repuls-community/repulsbot/src/discord"
	"github.com/repuls-community/repulsbot/src/store"
	"github.com/repuls-community/repulsbot/src/youtube"
)

// Session is the slice of the gateway the engine needs. *discordgo.Session
// satisfies it.
type Session interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Store is the candidate-status slice of the persistent store.
type Store interface {
	Candidate(messageID string) store.CandidateStatus
	MarkUsed(messageID string) bool
}

type Config struct {
	Session            Session
	Store              Store
	GuildID            string
	CommunityChannelID string
	FeaturedChannelID  string
	LogChannelID       string
	WindowDays         int
	MessageLimit       int
	UpvoteEmoji        string
	UsedEmoji          string
	Rand               *rand.Rand
}

// Engine runs the periodic community vote: it seeds an upvote reaction on
// every new video message, and on each cycle tallies the reactions inside a
// bounded trailing window, picks a winner and forwards it to the featured
// channel.
type Engine struct {
	config Config
}

func New(config Config) *Engine {
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{config: config}
}

// HandleMessage seeds the upvote reaction on community-channel messages that
// contain a recognized video link. This is the only write path that creates
// votable candidates.
func (e *Engine) HandleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.ChannelID != e.config.CommunityChannelID {
		return
	}
	if !youtube.Matches(m.Content) {
		return
	}
	if err := e.config.Session.MessageReactionAdd(m.ChannelID, m.ID, e.config.UpvoteEmoji); err != nil {
		log.Printf("votes: seed reaction on %s: %v", m.ID, err)
	}
}

// Run is the scheduled task body: scan, tally, announce.
func (e *Engine) Run(ctx context.Context) error {
	candidates, err := e.Scan(ctx, e.config.WindowDays*24, e.config.MessageLimit)
	if err != nil {
		return fmt.Errorf("votes: %w", err)
	}

	pick := SelectWinner(candidates, e.config.Rand)
	if pick == nil {
		e.announceNoWinner()
		return nil
	}

	if !e.config.Store.MarkUsed(pick.Candidate.MessageID) {
		log.Printf("votes: failed to persist used flag for %s", pick.Candidate.MessageID)
	}
	if err := e.config.Session.MessageReactionAdd(pick.Candidate.ChannelID, pick.Candidate.MessageID, e.config.UsedEmoji); err != nil {
		log.Printf("votes: used reaction on %s: %v", pick.Candidate.MessageID, err)
	}

	e.announceWinner(pick)
	e.forwardWinner(pick)
	e.auditPick(pick)
	return nil
}

// auditPick leaves a provenance trail in the moderation log so admins can
// tell a genuine top vote from a tie draw or a fallback.
func (e *Engine) auditPick(pick *Pick) {
	if e.config.LogChannelID == "" {
		return
	}
	jump := discord.MessageLink(e.config.GuildID, pick.Candidate.ChannelID, pick.Candidate.MessageID)
	content := fmt.Sprintf("🗳️ Community vote result: %s — %s.", jump, pick.FooterText())
	if _, err := e.config.Session.ChannelMessageSend(e.config.LogChannelID, content); err != nil {
		log.Printf("votes: audit note: %v", err)
	}
}

// Scan fetches the community channel window (oldest first, bounded by both
// the message limit and the hours-back horizon) and builds the transient
// candidate list. Each matching message is refetched by ID because reaction
// counts on cached copies go stale.
func (e *Engine) Scan(ctx context.Context, hoursBack, limit int) ([]Candidate, error) {
	after := discord.SnowflakeAt(time.Now().UTC().Add(-time.Duration(hoursBack) * time.Hour))
	messages, err := e.config.Session.ChannelMessages(e.config.CommunityChannelID, limit, "", after, "")
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", e.config.CommunityChannelID, err)
	}
	sortOldestFirst(messages)

	var candidates []Candidate
	for _, m := range messages {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		url := youtube.Extract(m.Content)
		if url == "" {
			continue
		}

		fresh, err := e.config.Session.ChannelMessage(e.config.CommunityChannelID, m.ID)
		if err != nil {
			log.Printf("votes: refetch %s: %v", m.ID, err)
			continue
		}

		candidates = append(candidates, Candidate{
			MessageID: fresh.ID,
			ChannelID: e.config.CommunityChannelID,
			AuthorID:  authorID(fresh),
			URL:       url,
			RawVotes:  reactionCount(fresh, e.config.UpvoteEmoji),
			Used:      e.config.Store.Candidate(fresh.ID).Used,
		})
	}

	return candidates, nil
}

func (e *Engine) announceNoWinner() {
	embed := &discordgo.MessageEmbed{
		Title:       "No new featured video this time 🫤",
		Description: "No video got any community votes in the window. Post your videos and vote with " + e.config.UpvoteEmoji + "!",
		Color:       0xED4245,
	}
	if _, err := e.config.Session.ChannelMessageSendEmbed(e.config.CommunityChannelID, embed); err != nil {
		log.Printf("votes: announce no winner: %v", err)
	}
}

func (e *Engine) announceWinner(pick *Pick) {
	jump := discord.MessageLink(e.config.GuildID, pick.Candidate.ChannelID, pick.Candidate.MessageID)

	embed := &discordgo.MessageEmbed{
		Title:     "New featured video! 🎉",
		Color:     0xED4245,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Watch it now!",
				Value: fmt.Sprintf("🎬 [Click here to watch the video](%s), by <@%s>!", jump, pick.Candidate.AuthorID),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: pick.FooterText()},
	}

	if _, err := e.config.Session.ChannelMessageSendEmbed(e.config.CommunityChannelID, embed); err != nil {
		log.Printf("votes: announce winner: %v", err)
	}
}

func (e *Engine) forwardWinner(pick *Pick) {
	content := fmt.Sprintf("Community pick by <@%s>:\n%s", pick.Candidate.AuthorID, pick.Candidate.URL)
	if _, err := e.config.Session.ChannelMessageSend(e.config.FeaturedChannelID, content); err != nil {
		log.Printf("votes: forward winner to featured channel: %v", err)
	}
}

// Leaderboard builds the top-voted videos embed for the slash command.
// Unlike the winner selection, it lists raw community votes (seed excluded)
// and ignores used state.
func (e *Engine) Leaderboard(ctx context.Context, hours, limit, top int) (*discordgo.MessageEmbed, error) {
	candidates, err := e.Scan(ctx, hours, limit)
	if err != nil {
		return nil, err
	}

	var voted []Candidate
	for _, c := range candidates {
		if c.EffectiveVotes() > 0 {
			voted = append(voted, c)
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "👏 YouTube Video Leaderboard",
		Description: fmt.Sprintf("(within the last %dh, with a limit of %d messages)", hours, limit),
		Color:       0xF1C40F,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Top %d most voted YouTube videos", top)},
	}

	if len(voted) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Sorry, no voted videos found in the given timeframe...",
			Value: "Try broadening my search scope?",
		})
		return embed, nil
	}

	sort.SliceStable(voted, func(i, j int) bool {
		return voted[i].EffectiveVotes() > voted[j].EffectiveVotes()
	})
	if len(voted) > top {
		voted = voted[:top]
	}

	medals := []string{"🥇", "🥈", "🥉"}
	for idx, c := range voted {
		header := fmt.Sprintf("#%d", idx+1)
		if idx < len(medals) {
			header = medals[idx]
		}
		jump := discord.MessageLink(e.config.GuildID, c.ChannelID, c.MessageID)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s - %d votes", header, c.EffectiveVotes()),
			Value: fmt.Sprintf("[Watch video](%s) here!", jump),
		})
	}

	return embed, nil
}

func reactionCount(m *discordgo.Message, emoji string) int {
	for _, r := range m.Reactions {
		if r.Emoji != nil && r.Emoji.Name == emoji {
			return r.Count
		}
	}
	return 0
}

func authorID(m *discordgo.Message) string {
	if m.Author == nil {
		return ""
	}
	return m.Author.ID
}

// sortOldestFirst orders messages by snowflake ID ascending. The gateway
// does not guarantee an order for `after` queries across implementations.
func sortOldestFirst(messages []*discordgo.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return snowflakeLess(messages[i].ID, messages[j].ID)
	})
}

func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
