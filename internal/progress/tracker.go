// Package progress tracks per-job conversion progress and renders it to the
// terminal. The tracker is the single shared record of all jobs in flight;
// renderers and the dropzone watcher read from it, converters write to it.
package progress

import (
	"sync"
	"time"

	"github.com/bnema/anyconv/internal/domain"
)

// publishInterval rate-limits fan-out to subscribers. Status transitions
// (starting, done, error) always go through.
const publishInterval = 100 * time.Millisecond

type Tracker struct {
	jobs          map[string]domain.JobProgress
	subscribers   map[string][]chan domain.JobProgress
	lastPublished map[string]time.Time
	mu            sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		jobs:          make(map[string]domain.JobProgress),
		subscribers:   make(map[string][]chan domain.JobProgress),
		lastPublished: make(map[string]time.Time),
	}
}

// Start registers a new job. Total may be zero when the length of the work
// is not known yet; Set can raise it later.
func (t *Tracker) Start(jobID, message string, total int64) {
	now := time.Now()
	t.update(jobID, domain.JobProgress{
		JobID:       jobID,
		Total:       total,
		Status:      domain.JobStatusStarting,
		Message:     message,
		StartedAt:   now,
		LastUpdated: now,
	}, true)
}

// Set moves the job to processing with the given position.
func (t *Tracker) Set(jobID string, current, total int64) {
	t.mu.Lock()
	rec, ok := t.jobs[jobID]
	t.mu.Unlock()
	if !ok {
		return
	}
	rec.Progress = current
	if total > 0 {
		rec.Total = total
	}
	rec.Status = domain.JobStatusProcessing
	rec.LastUpdated = time.Now()
	t.update(jobID, rec, false)
}

// Done marks the job finished and snaps progress to total.
func (t *Tracker) Done(jobID string) {
	t.mu.Lock()
	rec, ok := t.jobs[jobID]
	t.mu.Unlock()
	if !ok {
		return
	}
	rec.Progress = rec.Total
	rec.Status = domain.JobStatusDone
	rec.LastUpdated = time.Now()
	t.update(jobID, rec, true)
}

// Fail marks the job errored. The record stays available so late readers
// can see what went wrong.
func (t *Tracker) Fail(jobID string, err error) {
	t.mu.Lock()
	rec, ok := t.jobs[jobID]
	t.mu.Unlock()
	if !ok {
		rec = domain.JobProgress{JobID: jobID, StartedAt: time.Now()}
	}
	rec.Status = domain.JobStatusError
	if err != nil {
		rec.Error = err.Error()
	}
	rec.LastUpdated = time.Now()
	t.update(jobID, rec, true)
}

// Get returns a copy of the job record.
func (t *Tracker) Get(jobID string) (domain.JobProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.jobs[jobID]
	return rec, ok
}

// Snapshot returns copies of every tracked job.
func (t *Tracker) Snapshot() []domain.JobProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.JobProgress, 0, len(t.jobs))
	for _, rec := range t.jobs {
		out = append(out, rec)
	}
	return out
}

// Subscribe returns a channel fed with updates for jobID. Slow subscribers
// lose intermediate updates, never terminal ones blockingly.
func (t *Tracker) Subscribe(jobID string) chan domain.JobProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan domain.JobProgress, 16)
	t.subscribers[jobID] = append(t.subscribers[jobID], ch)
	return ch
}

func (t *Tracker) Unsubscribe(jobID string, ch chan domain.JobProgress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subscribers[jobID]
	for i, sub := range subs {
		if sub == ch {
			t.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(t.subscribers[jobID]) == 0 {
		delete(t.subscribers, jobID)
	}
}

func (t *Tracker) update(jobID string, rec domain.JobProgress, force bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[jobID] = rec
	if !force && time.Since(t.lastPublished[jobID]) < publishInterval {
		return
	}
	t.lastPublished[jobID] = rec.LastUpdated
	// Sends stay under the lock so Unsubscribe cannot close a channel
	// between snapshot and send. They never block: drop for slow readers.
	for _, ch := range t.subscribers[jobID] {
		select {
		case ch <- rec:
		default:
		}
	}
}
