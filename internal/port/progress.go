package port

// ProgressSink receives per-job progress from long-running engine calls.
// Implementations must be safe for concurrent use by worker-pool tasks.
type ProgressSink interface {
	Start(jobID, description string, total int64)
	Set(jobID string, current, total int64)
	Done(jobID string)
	Error(jobID string, err error)
}
