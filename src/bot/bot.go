package bot

import (
	"context"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/repuls-community/repulsbot/src/components/featured"
	"github.com/repuls-community/repulsbot/src/components/scheduler"
	"github.com/repuls-community/repulsbot/src/components/tickets"
	"github.com/repuls-community/repulsbot/src/components/votes"
	"github.com/repuls-community/repulsbot/src/components/ytfeed"
	"github.com/repuls-community/repulsbot/src/config"
	"github.com/repuls-community/repulsbot/src/discord"
	"github.com/repuls-community/repulsbot/src/store"
	"github.com/repuls-community/repulsbot/src/webclient"
)

type Bot struct {
	session *discordgo.Session
	config  config.Config
	store   *store.Store
	website *webclient.Client

	votes    *votes.Engine
	featured *featured.Engine
	feed     *ytfeed.Feed
	tickets  *tickets.Manager

	voteRunner     *scheduler.Runner
	featuredRunner *scheduler.Runner
	feedRunner     *scheduler.Runner

	ready     chan struct{}
	readyOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg config.Config, st *store.Store, website *webclient.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		session: dg,
		config:  cfg,
		store:   st,
		website: website,
		ready:   make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	b.initializeComponents()
	b.registerHandlers()

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	return b, nil
}

func (b *Bot) initializeComponents() {
	b.votes = votes.New(votes.Config{
		Session:            b.session,
		Store:              b.store,
		GuildID:            b.config.GuildID,
		CommunityChannelID: b.config.CommunityChannelID,
		FeaturedChannelID:  b.config.FeaturedChannelID,
		LogChannelID:       b.config.ModLogChannelID,
		WindowDays:         b.config.VoteWindowDays,
		MessageLimit:       b.config.VoteMessageLimit,
		UpvoteEmoji:        b.config.UpvoteEmoji,
		UsedEmoji:          b.config.UsedEmoji,
	})

	b.featured = featured.New(featured.Config{
		Session:           b.session,
		Publisher:         b.website,
		Store:             b.store,
		GuildID:           b.config.GuildID,
		FeaturedChannelID: b.config.FeaturedChannelID,
		AnnounceChannelID: b.config.CommunityChannelID,
		LogChannelID:      b.config.ModLogChannelID,
		WindowDays:        b.config.FeaturedWindowDays,
		MessageLimit:      b.config.VoteMessageLimit,
		ValidatedEmoji:    b.config.ValidatedEmoji,
		UsedEmoji:         b.config.UsedEmoji,
	})

	// Built here, before the session opens, so interaction handlers on other
	// goroutines never observe a half-initialized bot. The bot's own user ID
	// only exists after the gateway handshake, so it is resolved per open.
	b.tickets = tickets.New(tickets.Config{
		Session:         b.session,
		Store:           b.store,
		GuildID:         b.config.GuildID,
		CategoryID:      b.config.TicketCategoryID,
		ModRoleID:       b.config.ModRoleID,
		ModLogChannelID: b.config.ModLogChannelID,
		BotUserID: func() string {
			if u := b.session.State.User; u != nil {
				return u.ID
			}
			return ""
		},
	})

	b.feed = ytfeed.New(ytfeed.Config{
		Session:            b.session,
		Store:              b.store,
		APIKeys:            b.config.YouTubeAPIKeys,
		Query:              b.config.YouTubeQuery,
		CommunityChannelID: b.config.CommunityChannelID,
		RetentionDays:      b.config.FeedRetentionDays,
	})

	b.voteRunner = scheduler.NewRunner(scheduler.Task{
		Name:     "community-vote",
		Interval: b.config.VoteInterval,
		Run:      b.votes.Run,
	}, b.ready)

	b.featuredRunner = scheduler.NewRunner(scheduler.Task{
		Name:     "featured-video",
		Interval: b.config.FeaturedInterval,
		Run:      b.featured.Run,
	}, b.ready)

	b.feedRunner = scheduler.NewRunner(scheduler.Task{
		Name:     "youtube-feed",
		Interval: b.config.YTFeedInterval,
		Run:      b.feed.Run,
	}, b.ready)
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.votes.HandleMessage)
	b.session.AddHandler(b.handleInteraction)
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return err
	}

	b.voteRunner.Start(b.ctx)
	b.featuredRunner.Start(b.ctx)
	if len(b.config.YouTubeAPIKeys) > 0 {
		b.feedRunner.Start(b.ctx)
	} else {
		log.Println("bot: no YouTube API keys, feed disabled")
	}
	return nil
}

func (b *Bot) Stop() {
	b.cancel()
	b.voteRunner.Stop()
	b.featuredRunner.Stop()
	if len(b.config.YouTubeAPIKeys) > 0 {
		b.feedRunner.Stop()
	}
	if err := b.session.Close(); err != nil {
		log.Printf("bot: close session: %v", err)
	}
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("bot: logged in as %s", event.User.Username)

	if err := discord.RegisterSlashCommands(s, b.config.GuildID); err != nil {
		log.Printf("bot: %v", err)
	}

	if err := s.UpdateGameStatus(0, "repuls.io"); err != nil {
		log.Printf("bot: update presence: %v", err)
	}

	if b.config.StatusChannelID != "" {
		if _, err := s.ChannelMessageSend(b.config.StatusChannelID, "🟢 Bot is back online."); err != nil {
			log.Printf("bot: status note: %v", err)
		}
	}

	// Reconnects fire Ready again; the task runners must be released once.
	b.readyOnce.Do(func() { close(b.ready) })
}
