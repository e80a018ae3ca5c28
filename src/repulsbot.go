package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/repuls-community/repulsbot/src/bot"
	"github.com/repuls-community/repulsbot/src/config"
	"github.com/repuls-community/repulsbot/src/data"
	"github.com/repuls-community/repulsbot/src/discord"
	"github.com/repuls-community/repulsbot/src/store"
	"github.com/repuls-community/repulsbot/src/webclient"
	"github.com/repuls-community/repulsbot/src/webserver"
)

func main() {
	cfg := config.Load()
	if cfg.Token == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}

	// Maintenance mode: `repulsbot clear-commands` deregisters the guild's
	// slash commands and exits, for decommissioning or renaming commands.
	if len(os.Args) > 1 && os.Args[1] == "clear-commands" {
		clearCommands(cfg)
		return
	}

	db := data.MustSQLite(cfg.SQLitePath)
	st, err := store.Open(db)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	website := webclient.New(cfg.FeaturedEndpointURL, cfg.FeaturedStatusURL, cfg.WebsiteAPIToken)

	b, err := bot.New(cfg, st, website)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
	if err := b.Start(); err != nil {
		log.Fatalf("bot start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go webserver.Serve(ctx, webserver.Config{
		Addr:      cfg.HTTPAddr,
		Token:     cfg.HTTPToken,
		Store:     st,
		Publisher: website,
	})

	// Wait for termination
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	cancel()
	b.Stop()
}

func clearCommands(cfg config.Config) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatalf("discord: %v", err)
	}
	if err := dg.Open(); err != nil {
		log.Fatalf("discord open: %v", err)
	}
	defer dg.Close()

	if err := discord.DeleteSlashCommands(dg, cfg.GuildID); err != nil {
		log.Fatalf("clear commands: %v", err)
	}
	log.Println("slash commands cleared")
}
