package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/medalchat/internal/config"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

// Enqueuer is the part of *asynq.Client the queue client uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type Client struct {
	client Enqueuer
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// NewClientWith wraps an existing enqueuer.
func NewClientWith(e Enqueuer) *Client {
	return &Client{client: e}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Record hands an audit record to the worker. The task ID is the trace ID,
// so a record is queued at most once.
func (c *Client) Record(ctx context.Context, rec models.QueryAudit) error {
	return c.enqueue(ctx, TypeQueryAudit, rec,
		asynq.Queue(QueueLow),
		asynq.TaskID(rec.TraceID.String()),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
