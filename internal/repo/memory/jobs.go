package memory

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/job"
)

type JobsRepo struct {
	s *Store
}

func (r *JobsRepo) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	r.s.mu.Lock()
	r.s.jobs[j.ID] = j
	r.s.mu.Unlock()

	return j, nil
}

func (r *JobsRepo) GetByID(_ context.Context, id string) (job.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	return j, nil
}

func (r *JobsRepo) ClaimNext(_ context.Context, workerID string) (job.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()

	due := make([]job.Job, 0)
	for _, j := range r.s.jobs {
		if j.Status == job.StatusPending && !j.RunAt.After(now) && j.Attempts < j.MaxAttempts {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return job.Job{}, job.ErrJobNotFound
	}

	sort.Slice(due, func(a, b int) bool {
		if !due[a].RunAt.Equal(due[b].RunAt) {
			return due[a].RunAt.Before(due[b].RunAt)
		}
		return due[a].CreatedAt.Before(due[b].CreatedAt)
	})

	j := due[0]
	j.Status = job.StatusProcessing
	j.LockedAt = &now
	j.LockedBy = &workerID
	j.UpdatedAt = now
	r.s.jobs[j.ID] = j

	return j, nil
}

func (r *JobsRepo) update(id string, fn func(j *job.Job)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return job.ErrJobNotFound
	}

	fn(&j)
	j.LockedAt = nil
	j.LockedBy = nil
	j.UpdatedAt = time.Now().UTC()
	r.s.jobs[id] = j
	return nil
}

func (r *JobsRepo) MarkDone(_ context.Context, id string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.Payload = json.RawMessage(`{}`)
		j.LastError = nil
	})
}

func (r *JobsRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Payload = json.RawMessage(`{}`)
		j.Attempts++
		j.LastError = &errMsg
	})
}

func (r *JobsRepo) Reschedule(_ context.Context, id string, runAt time.Time, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusPending
		j.Attempts++
		j.RunAt = runAt
		j.LastError = &errMsg
	})
}

func (r *JobsRepo) RequeueStaleProcessing(_ context.Context, lockTTL time.Duration) (int64, error) {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-lockTTL)

	var n int64
	for id, j := range r.s.jobs {
		if j.Status == job.StatusProcessing && j.LockedAt != nil && j.LockedAt.Before(cutoff) {
			j.Status = job.StatusPending
			j.LockedAt = nil
			j.LockedBy = nil
			j.UpdatedAt = time.Now().UTC()
			r.s.jobs[id] = j
			n++
		}
	}
	return n, nil
}

// Pending lists jobs waiting to run, oldest first.
func (r *JobsRepo) Pending() []job.Job {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]job.Job, 0)
	for _, j := range r.s.jobs {
		if j.Status == job.StatusPending {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}
