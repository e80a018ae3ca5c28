package votes

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repuls-community/repulsbot/src/store"
)

type fakeSession struct {
	byChannel map[string][]*discordgo.Message
	byID      map[string]*discordgo.Message

	reactions []string
	sent      map[string][]string
	embeds    map[string][]*discordgo.MessageEmbed
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		byChannel: make(map[string][]*discordgo.Message),
		byID:      make(map[string]*discordgo.Message),
		sent:      make(map[string][]string),
		embeds:    make(map[string][]*discordgo.MessageEmbed),
	}
}

func (f *fakeSession) addMessage(channelID, id, authorID, content string, upvotes int) {
	m := &discordgo.Message{
		ID:        id,
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: authorID},
	}
	if upvotes > 0 {
		m.Reactions = []*discordgo.MessageReactions{
			{Count: upvotes, Emoji: &discordgo.Emoji{Name: "✅"}},
		}
	}
	f.byChannel[channelID] = append(f.byChannel[channelID], m)
	f.byID[id] = m
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	msgs := f.byChannel[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeSession) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m, ok := f.byID[messageID]
	if !ok {
		return nil, fmt.Errorf("unknown message %s", messageID)
	}
	return m, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	f.reactions = append(f.reactions, channelID+"/"+messageID+"/"+emojiID)
	return nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent[channelID] = append(f.sent[channelID], content)
	return &discordgo.Message{ID: "sent", ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.embeds[channelID] = append(f.embeds[channelID], embed)
	return &discordgo.Message{ID: "sent", ChannelID: channelID}, nil
}

type fakeStore struct {
	used   map[string]bool
	marked []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{used: make(map[string]bool)}
}

func (f *fakeStore) Candidate(messageID string) store.CandidateStatus {
	return store.CandidateStatus{MessageID: messageID, Used: f.used[messageID]}
}

func (f *fakeStore) MarkUsed(messageID string) bool {
	f.used[messageID] = true
	f.marked = append(f.marked, messageID)
	return true
}

func newTestEngine(session *fakeSession, st *fakeStore) *Engine {
	return New(Config{
		Session:            session,
		Store:              st,
		GuildID:            "900",
		CommunityChannelID: "100",
		FeaturedChannelID:  "200",
		LogChannelID:       "300",
		WindowDays:         5,
		MessageLimit:       50,
		UpvoteEmoji:        "✅",
		UsedEmoji:          "📌",
		Rand:               rand.New(rand.NewSource(1)),
	})
}

func TestRunPicksTopVotedAndForwards(t *testing.T) {
	session := newFakeSession()
	session.addMessage("100", "11", "u1", "check this https://youtu.be/dQw4w9WgXcQ", 4)
	session.addMessage("100", "12", "u2", "https://www.youtube.com/watch?v=abc123XYZ_-", 2)
	session.addMessage("100", "13", "u3", "https://youtu.be/zzzzzzzzzzz", 1)
	st := newFakeStore()

	require.NoError(t, newTestEngine(session, st).Run(context.Background()))

	assert.Equal(t, []string{"11"}, st.marked)
	assert.Contains(t, session.reactions, "100/11/📌")

	require.Len(t, session.embeds["100"], 1)
	assert.Equal(t, "Selected with 3 votes", session.embeds["100"][0].Footer.Text)

	require.Len(t, session.sent["200"], 1)
	assert.Contains(t, session.sent["200"][0], "https://youtu.be/dQw4w9WgXcQ")
	assert.Contains(t, session.sent["200"][0], "<@u1>")

	require.Len(t, session.sent["300"], 1)
	assert.Contains(t, session.sent["300"][0], "Selected with 3 votes")
}

func TestRunSkipsUsedCandidates(t *testing.T) {
	session := newFakeSession()
	session.addMessage("100", "11", "u1", "https://youtu.be/aaaaaaaaaaa", 6)
	session.addMessage("100", "12", "u2", "https://youtu.be/bbbbbbbbbbb", 6)
	session.addMessage("100", "13", "u3", "https://youtu.be/ccccccccccc", 4)
	st := newFakeStore()
	st.used["11"] = true
	st.used["12"] = true

	require.NoError(t, newTestEngine(session, st).Run(context.Background()))

	require.Len(t, session.sent["200"], 1)
	assert.Contains(t, session.sent["200"][0], "ccccccccccc")
	require.Len(t, session.embeds["100"], 1)
	assert.Contains(t, session.embeds["100"][0].Footer.Text, "already featured")
}

func TestRunAnnouncesWhenNothingVoted(t *testing.T) {
	session := newFakeSession()
	session.addMessage("100", "11", "u1", "https://youtu.be/aaaaaaaaaaa", 1)
	session.addMessage("100", "12", "u2", "no link here", 0)
	st := newFakeStore()

	require.NoError(t, newTestEngine(session, st).Run(context.Background()))

	assert.Empty(t, st.marked)
	assert.Empty(t, session.sent["200"])
	require.Len(t, session.embeds["100"], 1)
	assert.Equal(t, "No new featured video this time 🫤", session.embeds["100"][0].Title)
}

func TestHandleMessageSeedsUpvote(t *testing.T) {
	session := newFakeSession()
	st := newFakeStore()
	e := newTestEngine(session, st)

	e.HandleMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "42", ChannelID: "100", Content: "https://youtu.be/dQw4w9WgXcQ",
	}})
	assert.Equal(t, []string{"100/42/✅"}, session.reactions)

	// wrong channel and non-video messages are ignored
	e.HandleMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "43", ChannelID: "999", Content: "https://youtu.be/dQw4w9WgXcQ",
	}})
	e.HandleMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "44", ChannelID: "100", Content: "hello",
	}})
	assert.Len(t, session.reactions, 1)
}

func TestLeaderboardOrdersAndCaps(t *testing.T) {
	session := newFakeSession()
	session.addMessage("100", "11", "u1", "https://youtu.be/aaaaaaaaaaa", 2)
	session.addMessage("100", "12", "u2", "https://youtu.be/bbbbbbbbbbb", 5)
	session.addMessage("100", "13", "u3", "https://youtu.be/ccccccccccc", 3)
	session.addMessage("100", "14", "u4", "https://youtu.be/ddddddddddd", 1)
	st := newFakeStore()

	embed, err := newTestEngine(session, st).Leaderboard(context.Background(), 24, 50, 2)
	require.NoError(t, err)

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "🥇 - 4 votes", embed.Fields[0].Name)
	assert.Equal(t, "🥈 - 2 votes", embed.Fields[1].Name)
}

func TestLeaderboardEmpty(t *testing.T) {
	session := newFakeSession()
	st := newFakeStore()

	embed, err := newTestEngine(session, st).Leaderboard(context.Background(), 24, 50, 3)
	require.NoError(t, err)
	require.Len(t, embed.Fields, 1)
	assert.Contains(t, embed.Fields[0].Name, "no voted videos")
}
