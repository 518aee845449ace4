package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/job"
	"github.com/geocoder89/reviewhub/internal/jobs"
	"github.com/geocoder89/reviewhub/internal/notifications"
)

// errPermanent marks failures a retry cannot fix.
var errPermanent = errors.New("permanent job failure")

// ProcessOne claims and runs at most one job. It reports whether a job was
// claimed; job failures are recorded on the job, not returned.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncClaimed()
	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()
	err = w.execute(ctx, j)
	elapsed := time.Since(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.prom.ObserveJob(j.Type, result, elapsed)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.metrics.IncDone()
	w.prom.ObserveJob(j.Type, "done", elapsed)
	w.log.InfoContext(ctx, "job done", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	switch p := payload.(type) {
	case jobs.SendConfirmationCodePayload:
		return w.notifier.SendConfirmationCode(ctx, notifications.SendConfirmationCodeInput{
			Email:    p.Email,
			Username: p.Username,
			Code:     p.Code,
		})
	default:
		return fmt.Errorf("%w: no handler for %s", errPermanent, j.Type)
	}
}

// handleFailure reschedules with backoff, or dead-letters the job once its
// attempts are used up. It returns the metrics result label.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	msg := cause.Error()

	if errors.Is(cause, errPermanent) || j.Exhausted() {
		if err := w.repo.MarkFailed(ctx, j.ID, msg); err != nil {
			w.log.ErrorContext(ctx, "mark failed failed", "job_id", j.ID, "err", err)
		}
		w.metrics.IncDeadLettered()
		w.log.ErrorContext(ctx, "job dead-lettered", "job_id", j.ID, "job_type", j.Type,
			"attempts", j.Attempts+1, "err", msg)
		return "failed"
	}

	delay := w.backoff(j.Attempts)
	if err := w.repo.Reschedule(ctx, j.ID, time.Now().UTC().Add(delay), msg); err != nil {
		w.log.ErrorContext(ctx, "reschedule failed", "job_id", j.ID, "err", err)
	}
	w.metrics.IncRetried()
	w.log.WarnContext(ctx, "job rescheduled", "job_id", j.ID, "job_type", j.Type,
		"attempt", j.Attempts+1, "retry_in", delay.String(), "err", msg)
	return "retried"
}
