package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"certsentry/internal/bot"
	"certsentry/internal/health"
	"certsentry/internal/history"
	"certsentry/internal/queue"
)

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot()
		},
	}
}

func runBot() error {
	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if len(cfg.Telegram.AllowedUserIDs) == 0 {
		log.Warn("ALLOWED_USER_IDS is empty: the bot will answer /my_id only")
	}

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history db: %w", err)
	}
	defer hist.Close()

	// The download queue is optional: without DATABASE_URL the bot still
	// analyzes certificates, it just refuses /download.
	var tasks bot.TaskQueue
	var ping health.PingFunc
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("create db pool: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping db: %w", err)
		}
		log.Info("database connection established")

		q := queue.New(pool)
		if err := q.EnsureSchema(context.Background()); err != nil {
			return err
		}
		tasks = q
		ping = pool.Ping
	} else {
		log.Warn("DATABASE_URL is not set: /download is disabled")
	}

	b, err := bot.New(bot.Config{
		Token:          cfg.Telegram.Token,
		AllowedUserIDs: cfg.Telegram.AllowedUserIDs,
	}, hist, tasks)
	if err != nil {
		return fmt.Errorf("bot init: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := health.NewServer(addr, ping)

	go func() {
		log.Infof("health endpoint listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("health server error: %v", err)
		}
	}()

	go b.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	b.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("health server shutdown: %w", err)
	}

	log.Info("stopped")
	return nil
}
