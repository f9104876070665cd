package domain

import "time"

type JobStatus string

const (
	JobStatusStarting   JobStatus = "starting"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// JobProgress is the shared progress record for one job. Writers replace the
// whole record under the tracker's lock; readers get copies.
type JobProgress struct {
	JobID       string    `json:"job_id"`
	Progress    int64     `json:"progress"`
	Total       int64     `json:"total"`
	Status      JobStatus `json:"status"`
	Message     string    `json:"message"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Percent reports completion in [0,100].
func (p JobProgress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(p.Progress * 100 / p.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Conversion is one finished (or failed) file conversion as recorded in the
// history store.
type Conversion struct {
	ID        int64
	Source    string
	Output    string
	Format    string
	Status    JobStatus
	Error     string
	CreatedAt time.Time
}
