package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/repuls-community/repulsbot/src/components/tickets"
	"github.com/repuls-community/repulsbot/src/discord"
)

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case discord.CommandPing:
		b.handlePing(s, i)
	case discord.CommandVideoLeaderboard:
		b.handleLeaderboard(s, i, data)
	case discord.CommandRunVote:
		b.handleRunVote(s, i)
	case discord.CommandSetForcedVideo:
		b.handleSetForcedVideo(s, i, data)
	case discord.CommandClearForcedVideo:
		b.handleClearForcedVideo(s, i)
	case discord.CommandIsForcedVideo:
		b.handleIsForcedVideo(s, i)
	case discord.CommandRestartFeatured:
		b.handleRestartFeatured(s, i, data)
	case discord.CommandOpenTicket:
		b.handleOpenTicket(s, i, data)
	case discord.CommandCloseTicket:
		b.handleCloseTicket(s, i)
	}
}

func (b *Bot) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respond(s, i, fmt.Sprintf("Pong! 🏓 Gateway latency: %dms", s.HeartbeatLatency().Milliseconds()), false)
}

func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data)
	hours := intOption(opts, "hours", 24)
	limit := intOption(opts, "message_limit", b.config.VoteMessageLimit)
	top := intOption(opts, "top", 3)

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Printf("bot: defer leaderboard: %v", err)
		return
	}

	embed, err := b.votes.Leaderboard(b.ctx, hours, limit, top)
	if err != nil {
		log.Printf("bot: leaderboard: %v", err)
		followUp(s, i, "Could not build the leaderboard, try again later.")
		return
	}

	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		log.Printf("bot: leaderboard follow-up: %v", err)
	}
}

func (b *Bot) handleRunVote(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.voteRunner.RunNow() {
		respond(s, i, "Community vote selection triggered.", true)
		return
	}
	respond(s, i, "A vote selection is already running, nothing to do.", true)
}

func (b *Bot) handleSetForcedVideo(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data)
	link := stringOption(opts, "message_link")
	days := intOption(opts, "days", 0)

	reply, err := b.featured.SetForced(link, days)
	if err != nil {
		respond(s, i, "❌ "+err.Error(), true)
		return
	}
	respond(s, i, reply, true)
}

func (b *Bot) handleClearForcedVideo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	reply, err := b.featured.ClearForced()
	if err != nil {
		respond(s, i, "❌ "+err.Error(), true)
		return
	}
	respond(s, i, reply, true)
}

func (b *Bot) handleIsForcedVideo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		log.Printf("bot: defer forced status: %v", err)
		return
	}
	followUp(s, i, b.featured.Status(b.ctx))
}

func (b *Bot) handleRestartFeatured(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data)

	reply := "Featured-video selection triggered."
	if !b.featuredRunner.RunNow() {
		reply = "A featured-video selection is already running, nothing to do."
	}

	if boolOption(opts, "also_vote_loop") {
		if b.voteRunner.RunNow() {
			reply += "\nCommunity vote selection triggered."
		} else {
			reply += "\nThe vote selection is already running."
		}
	}

	respond(s, i, reply, true)
}

func (b *Bot) handleOpenTicket(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data)
	kind := stringOption(opts, "type")
	title := stringOption(opts, "title")
	description := stringOption(opts, "description")

	if !tickets.KnownKind(kind) {
		respond(s, i, "❌ Unknown ticket type.", true)
		return
	}

	channel, err := b.tickets.Open(interactionUserID(i), kind, title, description)
	if err != nil {
		log.Printf("bot: open ticket: %v", err)
		respond(s, i, "❌ Could not open the ticket, ping a moderator directly.", true)
		return
	}
	respond(s, i, fmt.Sprintf("Your ticket is ready: <#%s>", channel.ID), true)
}

func (b *Bot) handleCloseTicket(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Respond before deleting the channel; the interaction dies with it.
	respond(s, i, "Closing this ticket...", true)

	if err := b.tickets.Close(i.ChannelID, interactionUserID(i)); err != nil {
		log.Printf("bot: close ticket: %v", err)
		followUp(s, i, "❌ "+err.Error())
	}
}

// ---------------------------------------------------------------- helpers

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("bot: interaction respond: %v", err)
	}
}

func followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		log.Printf("bot: follow-up: %v", err)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		out[opt.Name] = opt
	}
	return out
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, def int) int {
	if opt, ok := opts[name]; ok {
		return int(opt.IntValue())
	}
	return def
}

func boolOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt, ok := opts[name]; ok {
		return opt.BoolValue()
	}
	return false
}
