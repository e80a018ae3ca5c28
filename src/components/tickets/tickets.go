package tickets

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/repuls-community/repulsbot/src/discord"
	"github.com/repuls-community/repulsbot/src/store"
)

// Session is the slice of the gateway the manager needs.
type Session interface {
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Store is the ticket slice of the persistent store.
type Store interface {
	AddTicket(name, title, authorID, openLogURL string) bool
	GetTicket(name string) (store.Ticket, bool)
	RemoveTicket(name string) bool
}

type Config struct {
	Session         Session
	Store           Store
	GuildID         string
	CategoryID      string
	ModRoleID       string
	ModLogChannelID string

	// BotUserID is resolved at open time; the session only learns its own
	// user after the gateway handshake.
	BotUserID func() string
}

// Manager opens and closes private support ticket channels. Each ticket is a
// text channel under the ticket category, visible only to the author, the
// moderation team and the bot, tracked in the store so it survives restarts.
type Manager struct {
	config Config
}

func New(config Config) *Manager {
	return &Manager{config: config}
}

// Open creates the ticket channel and announces it to the moderation log.
// kind is the short ticket-type slug from the slash command choices.
func (m *Manager) Open(authorID, kind, title, description string) (*discordgo.Channel, error) {
	name := fmt.Sprintf("%s-%s", kind, uuid.NewString()[:6])

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   m.config.GuildID, // @everyone
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    authorID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
		{
			ID:    m.config.ModRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory,
		},
	}
	if m.config.BotUserID != nil {
		if botID := m.config.BotUserID(); botID != "" {
			overwrites = append(overwrites, &discordgo.PermissionOverwrite{
				ID:    botID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
			})
		}
	}

	channel, err := m.config.Session.GuildChannelCreateComplex(m.config.GuildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                title,
		ParentID:             m.config.CategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return nil, fmt.Errorf("tickets: create channel: %w", err)
	}

	intro := &discordgo.MessageEmbed{
		Title:       "🎫 " + title,
		Description: description,
		Color:       0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Opened by", Value: fmt.Sprintf("<@%s>", authorID), Inline: true},
			{Name: "Type", Value: kind, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "A moderator will get back to you here. Use /close_ticket when resolved."},
	}
	if _, err := m.config.Session.ChannelMessageSendEmbed(channel.ID, intro); err != nil {
		log.Printf("tickets: intro message in %s: %v", channel.ID, err)
	}

	openLogURL := ""
	announce := &discordgo.MessageEmbed{
		Title:       "🎫 Ticket opened",
		Description: fmt.Sprintf("**%s**\nby <@%s> in <#%s>", title, authorID, channel.ID),
		Color:       0x57F287,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if logged, err := m.config.Session.ChannelMessageSendEmbed(m.config.ModLogChannelID, announce); err != nil {
		log.Printf("tickets: modlog announce for %s: %v", name, err)
	} else {
		openLogURL = discord.MessageLink(m.config.GuildID, m.config.ModLogChannelID, logged.ID)
	}

	if !m.config.Store.AddTicket(name, title, authorID, openLogURL) {
		log.Printf("tickets: failed to persist ticket %s", name)
	}

	return channel, nil
}

// Close audits and deletes a ticket channel. The command must be run inside
// a channel under the ticket category that the store knows about.
func (m *Manager) Close(channelID, closerID string) error {
	channel, err := m.config.Session.Channel(channelID)
	if err != nil {
		return fmt.Errorf("tickets: fetch channel: %w", err)
	}
	if channel.ParentID != m.config.CategoryID {
		return fmt.Errorf("this command only works inside a ticket channel")
	}

	ticket, ok := m.config.Store.GetTicket(channel.Name)
	if !ok {
		return fmt.Errorf("this channel is not a tracked ticket")
	}

	audit := &discordgo.MessageEmbed{
		Title:       "🔒 Ticket closed",
		Description: fmt.Sprintf("**%s**\nopened by <@%s>, closed by <@%s>", ticket.Title, ticket.AuthorID, closerID),
		Color:       0xED4245,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if ticket.OpenLogURL != "" {
		audit.Fields = append(audit.Fields, &discordgo.MessageEmbedField{
			Name:  "Opening log",
			Value: fmt.Sprintf("[Jump to the opening entry](%s)", ticket.OpenLogURL),
		})
	}
	if _, err := m.config.Session.ChannelMessageSendEmbed(m.config.ModLogChannelID, audit); err != nil {
		log.Printf("tickets: modlog audit for %s: %v", channel.Name, err)
	}

	if !m.config.Store.RemoveTicket(channel.Name) {
		log.Printf("tickets: failed to remove ticket row %s", channel.Name)
	}

	if _, err := m.config.Session.ChannelDelete(channelID); err != nil {
		return fmt.Errorf("tickets: delete channel: %w", err)
	}
	return nil
}

// KnownKind reports whether the slug is one of the slash command choices.
func KnownKind(kind string) bool {
	switch strings.ToLower(kind) {
	case "ing-rep", "dis-rep", "rol", "other":
		return true
	}
	return false
}
