package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandPing             = "ping"
	CommandVideoLeaderboard = "video_leaderboard"
	CommandRunVote          = "run_vote"
	CommandSetForcedVideo   = "set_forced_video"
	CommandClearForcedVideo = "clear_forced_video"
	CommandIsForcedVideo    = "is_forced_video"
	CommandRestartFeatured  = "restart_featured_loop"
	CommandOpenTicket       = "open_ticket"
	CommandCloseTicket      = "close_ticket"
)

var adminPermission = int64(discordgo.PermissionAdministrator)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandPing: {
		Name:        CommandPing,
		Description: "Displays latency of the bot",
	},
	CommandVideoLeaderboard: {
		Name:        CommandVideoLeaderboard,
		Description: "Show the most voted YouTube videos",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "hours",
				Description: "How far back to look (hours)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "message_limit",
				Description: "Maximum number of messages scanned",
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "top",
				Description: "How many entries to show",
			},
		},
	},
	CommandRunVote: {
		Name:                     CommandRunVote,
		Description:              "Run the community vote selection immediately (admin only)",
		DefaultMemberPermissions: &adminPermission,
	},
	CommandSetForcedVideo: {
		Name:                     CommandSetForcedVideo,
		Description:              "Force a featured-channel video onto the website for some days (admin only)",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message_link",
				Description: "Link to the message in the featured channel",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "days",
				Description: "How many days the video stays forced once it airs",
				Required:    true,
			},
		},
	},
	CommandClearForcedVideo: {
		Name:                     CommandClearForcedVideo,
		Description:              "Clear the forced featured video (admin only)",
		DefaultMemberPermissions: &adminPermission,
	},
	CommandIsForcedVideo: {
		Name:                     CommandIsForcedVideo,
		Description:              "Show the forced-video override and the website's current video (admin only)",
		DefaultMemberPermissions: &adminPermission,
	},
	CommandRestartFeatured: {
		Name:                     CommandRestartFeatured,
		Description:              "Run the featured-video selection immediately (admin only)",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "also_vote_loop",
				Description: "Also run the community vote selection",
			},
		},
	},
	CommandOpenTicket: {
		Name:        CommandOpenTicket,
		Description: "Open a private support ticket with the moderation team",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "type",
				Description: "What the ticket is about",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "In-game report", Value: "ing-rep"},
					{Name: "Discord report", Value: "dis-rep"},
					{Name: "Role related", Value: "rol"},
					{Name: "Other", Value: "other"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "title",
				Description: "Briefly summarize your issue",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "description",
				Description: "Give as many details as possible",
				Required:    true,
			},
		},
	},
	CommandCloseTicket: {
		Name:        CommandCloseTicket,
		Description: "If launched in a ticket, closes it",
	},
}

var defaultCommandOrder = []string{
	CommandPing,
	CommandVideoLeaderboard,
	CommandRunVote,
	CommandSetForcedVideo,
	CommandClearForcedVideo,
	CommandIsForcedVideo,
	CommandRestartFeatured,
	CommandOpenTicket,
	CommandCloseTicket,
}

// commandClient is the application-command slice of the gateway.
// *discordgo.Session satisfies it.
type commandClient interface {
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID string, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID string, guildID string, cmdID string, options ...discordgo.RequestOption) error
}

// RegisterSlashCommands registers the requested slash commands for a guild.
// When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	return registerSlashCommands(s, s.State.User.ID, guildID, names...)
}

func registerSlashCommands(c commandClient, appID, guildID string, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to register slash commands")
	}

	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}

		_, err := c.ApplicationCommandCreate(appID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("discord: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

// DeleteSlashCommands removes all registered slash commands for a guild.
// Used by the clear-commands maintenance mode of the binary.
func DeleteSlashCommands(s *discordgo.Session, guildID string) error {
	return deleteSlashCommands(s, s.State.User.ID, guildID)
}

func deleteSlashCommands(c commandClient, appID, guildID string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to delete slash commands")
	}

	commands, err := c.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := c.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			return err
		}
	}

	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
