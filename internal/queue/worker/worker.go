package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/job"
	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	LockTTL       time.Duration
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
	metrics  *observability.JobMetrics

	// backoff is swappable for tests
	backoff func(attempt int) time.Duration

	readyMu sync.RWMutex
	ready   bool
}

func New(
	cfg Config,
	repo JobsRepository,
	notifier notifications.Notifier,
	log *slog.Logger,
	prom *observability.Prom,
) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 60 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		log:      log.With("worker_id", cfg.WorkerID),
		prom:     prom,
		metrics:  observability.NewJobMetrics(),
		backoff:  ExponentialBackoff,
	}
}

func (w *Worker) Metrics() *observability.JobMetrics { return w.metrics }

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

// Run polls until ctx is cancelled, then lets in-flight jobs finish for up
// to ShutdownGrace.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval.String())
	w.setReady(true)

	// jobs keep running on their own context so a shutdown does not cut a
	// send in half
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, jobCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.reapStale(ctx)
	}()

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Warn("shutdown grace elapsed, abandoning in-flight jobs")
		cancelJobs()
		<-done
	}
	return nil
}

func (w *Worker) loop(ctx, jobCtx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// drain everything that is due before waiting again
		for ctx.Err() == nil {
			processed, err := w.ProcessOne(jobCtx)
			if err != nil {
				w.log.Error("process job failed", "err", err)
				break
			}
			if !processed {
				break
			}
		}
	}
}

func (w *Worker) reapStale(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				w.log.Error("requeue stale jobs failed", "err", err)
				continue
			}
			if n > 0 {
				w.log.Warn("requeued stale jobs", "count", n)
			}
		}
	}
}
