// Package worker runs the download task loop: claim a task, fetch the
// video, deliver it to the requesting Telegram user, record the outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"certsentry/internal/queue"
)

type TaskQueue interface {
	ClaimNext(ctx context.Context) (*queue.Task, error)
	SetStatus(ctx context.Context, id uuid.UUID, status queue.Status) error
}

type Fetcher interface {
	Fetch(ctx context.Context, videoURL, taskID string) (string, error)
}

type Notifier interface {
	SendText(userID int64, text string) error
	SendVideo(userID int64, path string) error
}

type Worker struct {
	tasks    TaskQueue
	fetcher  Fetcher
	notifier Notifier

	pollInterval time.Duration
	errorBackoff time.Duration
}

func New(tasks TaskQueue, fetcher Fetcher, notifier Notifier, poll, backoff time.Duration) *Worker {
	if poll <= 0 {
		poll = 10 * time.Second
	}
	if backoff <= 0 {
		backoff = 30 * time.Second
	}
	return &Worker{
		tasks:        tasks,
		fetcher:      fetcher,
		notifier:     notifier,
		pollInterval: poll,
		errorBackoff: backoff,
	}
}

// Run polls for tasks until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	log.Info("worker started, waiting for tasks")

	for {
		if err := ctx.Err(); err != nil {
			log.Info("worker stopping")
			return err
		}

		task, err := w.tasks.ClaimNext(ctx)
		switch {
		case errors.Is(err, queue.ErrNoTasks):
			if !sleep(ctx, w.pollInterval) {
				return ctx.Err()
			}
		case err != nil:
			log.Errorf("failed to claim a task: %v", err)
			if !sleep(ctx, w.errorBackoff) {
				return ctx.Err()
			}
		default:
			w.process(ctx, task)
		}
	}
}

func (w *Worker) process(ctx context.Context, task *queue.Task) {
	logger := log.WithFields(log.Fields{"task_id": task.ID, "user_id": task.UserID})
	logger.Info("processing download task")

	path, err := w.fetcher.Fetch(ctx, task.VideoURL, task.ID.String())
	if err != nil {
		logger.Errorf("download failed: %v", err)
		w.fail(ctx, task, logger)
		return
	}

	if err := w.notifier.SendText(task.UserID,
		fmt.Sprintf("Video from %s downloaded, sending the file...", task.VideoURL)); err != nil {
		logger.Warnf("could not notify user: %v", err)
	}

	if err := w.notifier.SendVideo(task.UserID, path); err != nil {
		logger.Errorf("sending video failed: %v", err)
		os.Remove(path)
		w.fail(ctx, task, logger)
		return
	}

	if err := os.Remove(path); err != nil {
		logger.Warnf("could not remove temp file %s: %v", path, err)
	}
	if err := w.tasks.SetStatus(ctx, task.ID, queue.StatusCompleted); err != nil {
		logger.Errorf("could not mark task completed: %v", err)
		return
	}
	logger.Info("task completed")
}

func (w *Worker) fail(ctx context.Context, task *queue.Task, logger *log.Entry) {
	if err := w.tasks.SetStatus(ctx, task.ID, queue.StatusFailed); err != nil {
		logger.Errorf("could not mark task failed: %v", err)
	}
	if err := w.notifier.SendText(task.UserID,
		fmt.Sprintf("❌ Could not process your video: %s", task.VideoURL)); err != nil {
		logger.Warnf("could not notify user about failure: %v", err)
	}
}

// sleep waits for d or until the context is canceled, reporting whether the
// full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
