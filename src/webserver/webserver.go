package webserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/repuls-community/repulsbot/src/store"
	"github.com/repuls-community/repulsbot/src/webclient"
)

// Publisher is the read side of the website client.
type Publisher interface {
	CurrentFeatured(ctx context.Context) (string, time.Time, bool)
}

// Store is the slice of the persistent store the API exposes.
type Store interface {
	GetForcedVideo() store.Forced
}

type Config struct {
	Addr      string
	Token     string
	Store     Store
	Publisher Publisher
}

// New builds the small status API the bot serves alongside the gateway
// connection: a health probe and a read-only view of the featured-video
// state for dashboards.
func New(cfg Config) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	g.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"https://repuls.io", "http://localhost:3000"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := g.Group("/api")
	if cfg.Token != "" {
		api.Use(bearerAuth(cfg.Token))
	}
	api.GET("/featured", featuredHandler(cfg))

	return g
}

func bearerAuth(token string) gin.HandlerFunc {
	want := "Bearer " + token
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "unauthorized"})
			return
		}
		c.Next()
	}
}

func featuredHandler(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{"forced": describeForced(cfg.Store.GetForcedVideo())}

		if url, updatedAt, ok := cfg.Publisher.CurrentFeatured(c.Request.Context()); ok {
			website := gin.H{"video_url": url}
			if !updatedAt.IsZero() {
				website["updated_at"] = updatedAt.UTC().Format(time.RFC3339)
			}
			resp["website"] = website
		}

		c.JSON(http.StatusOK, resp)
	}
}

func describeForced(forced store.Forced) gin.H {
	switch forced.State {
	case store.ForcedPending:
		return gin.H{"state": "pending", "message_id": forced.MessageID, "days": forced.Days}
	case store.ForcedActive:
		return gin.H{
			"state":      "active",
			"message_id": forced.MessageID,
			"deadline":   forced.Deadline.UTC().Format(time.RFC3339),
		}
	default:
		return gin.H{"state": "none"}
	}
}

// Serve runs the API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg Config) {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      New(cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("webserver: shutdown: %v", err)
		}
	}()

	log.Printf("webserver: listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("webserver: %v", err)
	}
}

var _ Publisher = (*webclient.Client)(nil)
