package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/offers-tracker/internal/pipeline"
)

// FileProcessor handles one document end to end.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (pipeline.Outcome, error)
}

// SerialQueue feeds documents to a single worker, so at most one document
// is in flight and the ledger sees one writer. A path already waiting in the
// queue is not queued twice.
type SerialQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	timeout time.Duration

	ch   chan Job
	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	closed  bool
	waiting map[string]struct{}
}

type Option func(*SerialQueue)

func WithQueueSize(n int) Option {
	return func(q *SerialQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *SerialQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewSerialQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *SerialQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &SerialQueue{
		proc:    proc,
		logger:  logger,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		waiting: map[string]struct{}{},
	}
	for _, o := range opts {
		o(q)
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	q.logger.Info("worker started")
	for {
		select {
		case job := <-q.ch:
			q.handle(job)
		case <-q.stop:
			for {
				select {
				case job := <-q.ch:
					q.handle(job)
				default:
					q.logger.Info("worker stopped")
					return
				}
			}
		}
	}
}

func (q *SerialQueue) handle(job Job) {
	q.mu.Lock()
	delete(q.waiting, job.Path)
	q.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	out, err := q.proc.ProcessFile(ctx, job.Path)
	if err != nil {
		q.logger.Error("processing failed", "path", job.Path, "source", job.Source, "error", err)
		return
	}
	q.logger.Debug("processing finished",
		"path", job.Path,
		"status", out.Status,
		"waited_ms", time.Since(job.SubmittedAt).Milliseconds(),
	)
}

// Enqueue blocks while the queue is full, until ctx is done or the queue
// shuts down.
func (q *SerialQueue) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrClosed
	}
	if _, dup := q.waiting[job.Path]; dup {
		q.mu.Unlock()
		q.logger.Debug("already queued", "path", job.Path)
		return nil
	}
	q.waiting[job.Path] = struct{}{}
	q.mu.Unlock()

	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path, "source", job.Source)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		q.forget(job.Path)
		return ctx.Err()
	case <-q.stop:
		q.forget(job.Path)
		return ErrClosed
	}
}

func (q *SerialQueue) forget(path string) {
	q.mu.Lock()
	delete(q.waiting, path)
	q.mu.Unlock()
}

// Shutdown stops intake and waits for queued documents to finish.
func (q *SerialQueue) Shutdown(ctx context.Context) {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.stop)
	})

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-q.done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
