// Package queue is the Postgres-backed download task queue shared by the
// bot (producer) and the worker (consumer).
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrNoTasks is returned by ClaimNext when nothing is pending.
var ErrNoTasks = errors.New("no pending tasks")

type Task struct {
	ID        uuid.UUID
	UserID    int64
	VideoURL  string
	Status    Status
	CreatedAt time.Time
}

type Queue struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queue {
	return &Queue{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS download_tasks (
	task_id    UUID PRIMARY KEY,
	user_id    BIGINT NOT NULL,
	video_url  TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS download_tasks_pending_idx
	ON download_tasks (created_at) WHERE status = 'new';
`

func (q *Queue) EnsureSchema(ctx context.Context) error {
	if _, err := q.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (q *Queue) Enqueue(ctx context.Context, userID int64, videoURL string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := q.pool.Exec(ctx,
		"INSERT INTO download_tasks (task_id, user_id, video_url, status) VALUES ($1, $2, $3, $4)",
		id, userID, videoURL, StatusNew,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue task: %w", err)
	}
	return id, nil
}

// ClaimNext picks the oldest pending task and flips it to processing in a
// single transaction. FOR UPDATE SKIP LOCKED keeps concurrent workers from
// claiming the same row.
func (q *Queue) ClaimNext(ctx context.Context) (*Task, error) {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	var task Task
	err = tx.QueryRow(ctx, `
		SELECT task_id, user_id, video_url, created_at FROM download_tasks
		WHERE status = $1 ORDER BY created_at LIMIT 1 FOR UPDATE SKIP LOCKED
	`, StatusNew).Scan(&task.ID, &task.UserID, &task.VideoURL, &task.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTasks
		}
		return nil, fmt.Errorf("select pending task: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE download_tasks SET status = $1 WHERE task_id = $2",
		StatusProcessing, task.ID,
	); err != nil {
		return nil, fmt.Errorf("mark task processing: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	task.Status = StatusProcessing
	return &task, nil
}

func (q *Queue) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := q.pool.Exec(ctx,
		"UPDATE download_tasks SET status = $1 WHERE task_id = $2",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}
