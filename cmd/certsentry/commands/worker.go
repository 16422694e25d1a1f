package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"certsentry/internal/bot"
	"certsentry/internal/fetch"
	"certsentry/internal/queue"
	"certsentry/internal/worker"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the video download worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker()
		},
	}
}

func runWorker() error {
	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	if err := fetch.Check(cfg.Worker.YtdlpBinary); err != nil {
		return err
	}

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

	notifier, err := bot.NewNotifier(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("telegram init: %w", err)
	}

	fetcher := fetch.New(cfg.Worker.YtdlpBinary, cfg.Worker.WorkDir)
	w := worker.New(q, fetcher, notifier, cfg.Worker.PollInterval, cfg.Worker.ErrorBackoff)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}
