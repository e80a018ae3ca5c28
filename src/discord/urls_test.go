package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflakeAtRoundTrips(t *testing.T) {
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	id := SnowflakeAt(at)

	decoded, err := discordgo.SnowflakeTimestamp(id)
	require.NoError(t, err)
	assert.WithinDuration(t, at, decoded, time.Second)
}

func TestSnowflakeAtClampsPreEpoch(t *testing.T) {
	assert.Equal(t, "0", SnowflakeAt(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseMessageLink(t *testing.T) {
	link := MessageLink("603655329120518223", "800108276004028446", "1370706473155563581")
	guildID, channelID, messageID, ok := ParseMessageLink(link)
	require.True(t, ok)
	assert.Equal(t, "603655329120518223", guildID)
	assert.Equal(t, "800108276004028446", channelID)
	assert.Equal(t, "1370706473155563581", messageID)

	_, _, _, ok = ParseMessageLink("https://example.com/channels/1/2/3")
	assert.False(t, ok)
}
