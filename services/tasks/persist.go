package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spotfinder/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypePlacePersist = "place:persist"
	persistMaxRetry  = 3
	persistTimeout   = 30 * time.Second
)

// NewPersistTask encodes a candidate for the persistence queue.
func NewPersistTask(c models.Candidate) (*asynq.Task, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePlacePersist, b, asynq.MaxRetry(persistMaxRetry), asynq.Timeout(persistTimeout)), nil
}

// ParsePersistTask decodes the candidate carried by a persist task.
func ParsePersistTask(t *asynq.Task) (models.Candidate, error) {
	var c models.Candidate
	if err := json.Unmarshal(t.Payload(), &c); err != nil {
		return c, fmt.Errorf("invalid %s payload: %w", TypePlacePersist, err)
	}
	return c, nil
}

// Enqueuer is the part of asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// QueueDispatcher sends candidates to the durable asynq queue. A worker
// process runs the persistence, so a restart does not lose queued work.
type QueueDispatcher struct {
	client Enqueuer
	logger *zap.Logger
}

// NewQueueDispatcher creates a dispatcher over client.
func NewQueueDispatcher(client Enqueuer, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{client: client, logger: logger}
}

// Dispatch enqueues c. Enqueue failures are logged and the candidate dropped.
func (d *QueueDispatcher) Dispatch(ctx context.Context, c models.Candidate) {
	task, err := NewPersistTask(c)
	if err != nil {
		d.logger.Error("failed to encode persist task", zap.String("name", c.Name), zap.Error(err))
		return
	}
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if _, err := d.client.EnqueueContext(enqueueCtx, task); err != nil {
		d.logger.Warn("failed to enqueue persist task", zap.String("name", c.Name), zap.Error(err))
	}
}

// Close releases the queue client.
func (d *QueueDispatcher) Close() {
	if err := d.client.Close(); err != nil {
		d.logger.Warn("failed to close queue client", zap.Error(err))
	}
}

// Persister is the work a persist task performs.
type Persister interface {
	Persist(ctx context.Context, c models.Candidate) error
}

// HandlePersistTask returns the asynq handler for TypePlacePersist.
// Undecodable payloads are not retried.
func HandlePersistTask(p Persister, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		c, err := ParsePersistTask(task)
		if err != nil {
			logger.Error("dropping persist task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := p.Persist(ctx, c); err != nil {
			logger.Warn("persist task failed", zap.String("name", c.Name), zap.String("source", c.Source), zap.Error(err))
			return err
		}
		return nil
	}
}
