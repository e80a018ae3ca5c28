package discord

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Discord snowflake epoch, milliseconds since Unix epoch.
const snowflakeEpoch = 1420070400000

// SnowflakeAt returns the smallest message ID that could have been created
// at t, usable as the `after` cursor of a history query.
func SnowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - snowflakeEpoch
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<22, 10)
}

// MessageLink builds the jump URL for a message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

var messageLinkPattern = regexp.MustCompile(
	`^https://(?:\w+\.)?discord(?:app)?\.com/channels/(\d+)/(\d+)/(\d+)$`,
)

// ParseMessageLink splits a jump URL into guild, channel and message IDs.
func ParseMessageLink(link string) (guildID, channelID, messageID string, ok bool) {
	m := messageLinkPattern.FindStringSubmatch(link)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}
