package search

import (
	"context"
	"sync"
	"time"

	"spotfinder/models"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const persistTimeout = 15 * time.Second

// Dispatcher hands candidates to the persistence pipeline without blocking the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, c models.Candidate)
	Close()
}

// Persister is the unit of work a dispatcher runs.
type Persister interface {
	Persist(ctx context.Context, c models.Candidate) error
}

// SyncDispatcher persists inline. Used by the CLI and in tests.
type SyncDispatcher struct {
	persister Persister
	logger    *zap.Logger
}

// NewSyncDispatcher creates an inline dispatcher.
func NewSyncDispatcher(p Persister, logger *zap.Logger) *SyncDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncDispatcher{persister: p, logger: logger}
}

func (d *SyncDispatcher) Dispatch(ctx context.Context, c models.Candidate) {
	if err := d.persister.Persist(ctx, c); err != nil {
		d.logger.Warn("persist failed", zap.String("name", c.Name), zap.Error(err))
	}
}

func (d *SyncDispatcher) Close() {}

// PoolDispatcher queues candidates in a bounded buffer drained by an ants
// worker pool. A full buffer drops the candidate and logs it.
type PoolDispatcher struct {
	persister Persister
	pool      *ants.Pool
	queue     chan models.Candidate
	logger    *zap.Logger

	inflight  sync.WaitGroup
	feeder    sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewPoolDispatcher starts poolSize workers behind a queue of queueSize candidates.
func NewPoolDispatcher(p Persister, poolSize, queueSize int, logger *zap.Logger) (*PoolDispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poolSize <= 0 {
		poolSize = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	d := &PoolDispatcher{
		persister: p,
		pool:      pool,
		queue:     make(chan models.Candidate, queueSize),
		logger:    logger,
	}
	d.feeder.Add(1)
	go d.feed()
	return d, nil
}

func (d *PoolDispatcher) Dispatch(_ context.Context, c models.Candidate) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping candidate", zap.String("name", c.Name))
		return
	}
	d.inflight.Add(1)
	select {
	case d.queue <- c:
	default:
		d.inflight.Done()
		d.logger.Warn("persist queue full, dropping candidate",
			zap.String("name", c.Name), zap.String("source", c.Source))
	}
}

func (d *PoolDispatcher) feed() {
	defer d.feeder.Done()
	for c := range d.queue {
		c := c
		err := d.pool.Submit(func() {
			defer d.inflight.Done()
			d.run(c)
		})
		if err != nil {
			d.inflight.Done()
			d.logger.Error("failed to submit persist task", zap.String("name", c.Name), zap.Error(err))
		}
	}
}

func (d *PoolDispatcher) run(c models.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("persist task panicked", zap.Any("panic", r), zap.String("name", c.Name))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := d.persister.Persist(ctx, c); err != nil {
		d.logger.Warn("persist failed", zap.String("name", c.Name), zap.Error(err))
	}
}

// Wait blocks until every accepted candidate has been processed.
func (d *PoolDispatcher) Wait() { d.inflight.Wait() }

// Close stops accepting work, drains the queue and releases the pool.
func (d *PoolDispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		d.feeder.Wait()
		d.inflight.Wait()
		d.pool.Release()
	})
}
