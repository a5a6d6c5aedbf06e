// Package workerpool provides a bounded worker pool for concurrent alert
// notification dispatch.
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of work.
type Task struct {
	ID      string
	Payload []byte
}

// WorkerFunc processes one task. A non-nil error triggers a retry up to the
// configured limit.
type WorkerFunc func(ctx context.Context, task *Task) error

// Config holds worker pool configuration.
type Config struct {
	// Workers is the number of concurrent workers.
	Workers int
	// QueueSize is the size of the task queue.
	QueueSize int
	// MaxRetries is the maximum number of retries for failed tasks.
	MaxRetries int
	// RetryDelay is the base delay between retries, scaled linearly per
	// attempt.
	RetryDelay time.Duration
	// ShutdownTimeout bounds how long Stop waits for in-flight tasks.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns defaults sized for notification fan-out.
func DefaultConfig() Config {
	return Config{
		Workers:         10,
		QueueSize:       1000,
		MaxRetries:      3,
		RetryDelay:      200 * time.Millisecond,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ErrQueueFull is returned by Submit when the task queue is saturated.
var ErrQueueFull = errors.New("task queue is full")

// ErrStopped is returned by Submit after Stop has been called.
var ErrStopped = errors.New("pool is shutting down")

// Pool runs tasks on a fixed set of workers with bounded queueing.
type Pool struct {
	cfg    Config
	fn     WorkerFunc
	logger *zap.Logger

	tasks   chan *Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped int32

	completed int64
	failed    int64
	retried   int64
}

// New creates a worker pool.
func New(cfg Config, fn WorkerFunc, logger *zap.Logger) (*Pool, error) {
	if fn == nil {
		return nil, errors.New("worker function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		cfg:    cfg,
		fn:     fn,
		logger: logger,
		tasks:  make(chan *Task, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started",
		zap.Int("workers", p.cfg.Workers),
		zap.Int("queue_size", p.cfg.QueueSize),
	)
}

// Submit queues a task without blocking.
func (p *Pool) Submit(task *Task) error {
	if atomic.LoadInt32(&p.stopped) == 1 {
		return ErrStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains the queue and waits for workers, bounded by ShutdownTimeout.
// Already-queued tasks keep their full retry budget during the drain; the
// pool context is cancelled only once the timeout expires.
func (p *Pool) Stop() {
	if !atomic.CompareAndSwapInt32(&p.stopped, 0, 1) {
		return
	}
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped")
	case <-time.After(p.cfg.ShutdownTimeout):
		p.cancel()
		p.logger.Warn("worker pool shutdown timed out")
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.process(id, task)
	}
}

func (p *Pool) process(workerID int, task *Task) {
	var err error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			atomic.AddInt64(&p.retried, 1)
			select {
			case <-p.ctx.Done():
				// Hard stop after the shutdown timeout; give the
				// task one last attempt instead of waiting out the
				// remaining backoff.
				attempt = p.cfg.MaxRetries
			case <-time.After(p.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		if err = p.fn(p.ctx, task); err == nil {
			atomic.AddInt64(&p.completed, 1)
			return
		}

		p.logger.Debug("task attempt failed",
			zap.String("task_id", task.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	atomic.AddInt64(&p.failed, 1)
	p.logger.Error("task failed",
		zap.String("task_id", task.ID),
		zap.Int("worker_id", workerID),
		zap.Error(err),
	)
}

// Stats holds pool counters.
type Stats struct {
	Completed int64
	Failed    int64
	Retried   int64
	Queued    int
}

// Stats returns current pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
		Retried:   atomic.LoadInt64(&p.retried),
		Queued:    len(p.tasks),
	}
}
