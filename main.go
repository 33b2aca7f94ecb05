/* main.go
 * The "main" method for running the bot. For details about the bot see `readme.md`
 * Usage: go run . -env=".env" -web=true
 * Authors: Zachary Bower
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/api"
	"github.com/thboss/g5-discord-bot-sub000/api/external"
	"github.com/thboss/g5-discord-bot-sub000/api/store"
	"github.com/thboss/g5-discord-bot-sub000/bot"
	"github.com/thboss/g5-discord-bot-sub000/web"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//Flags
	envPtr := flag.String("env", ".env", "Path of the .env file, the environment is used when it does not exist")
	webPtr := flag.Bool("web", true, "Serve the HTTP status endpoints on HTTP_ADDR")
	flag.Parse()

	if err := godotenv.Load(*envPtr); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading %s: %v", *envPtr, err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *webPtr); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

// run wires the store, the match-hosting client, the Discord adapter and the engine, then blocks until ctx is
// cancelled
func run(ctx context.Context, cfg Config, logger *zap.Logger, serveWeb bool) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := store.NewStore(connectCtx, cfg.MongoDatabase, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Warn("failed to disconnect from mongo", zap.Error(err))
		}
	}()
	if err := db.EnsureIndexes(connectCtx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	client, err := external.NewClient(cfg.G5APIURL, cfg.G5APIKey, cfg.G5APIRate)
	if err != nil {
		return err
	}

	discord, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	surface := bot.NewSurface(discord, logger.Named("surface"))

	engine, err := api.NewAPI(api.Config{
		Store:    db,
		Host:     client,
		Ratings:  client,
		Surface:  surface,
		Platform: bot.NewPlatform(discord, logger.Named("platform")),
		Logger:   logger.Named("engine"),
		Timeouts: cfg.Timeouts(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := engine.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to stop the match poller", zap.Error(err))
		}
	}()

	resumed, err := engine.ResumeTracking(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume live matches: %w", err)
	}
	logger.Info("resumed live matches", zap.Int("count", resumed))

	if serveWeb {
		go func() {
			if err := web.Start(ctx, web.Config{Addr: cfg.HTTPAddr, API: engine, Logger: logger.Named("web")}); err != nil {
				logger.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	b, err := bot.NewBot(cfg.DiscordToken, engine, surface, logger.Named("bot"))
	if err != nil {
		return err
	}
	return b.Run(ctx, discord)
}
