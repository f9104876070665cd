package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/bnema/anyconv/internal/infrastructure/logger"
)

// Reporter renders tracked jobs as terminal progress bars. It satisfies the
// port.ProgressSink interface, forwarding every update to the tracker so
// other observers (the watcher, tests) see the same state.
type Reporter struct {
	tracker *Tracker
	out     io.Writer
	silent  bool

	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func NewReporter(tracker *Tracker, silent bool) *Reporter {
	return &Reporter{
		tracker: tracker,
		out:     os.Stderr,
		silent:  silent,
		bars:    make(map[string]*progressbar.ProgressBar),
	}
}

func (r *Reporter) Start(jobID, description string, total int64) {
	r.tracker.Start(jobID, description, total)
	if r.silent {
		return
	}

	bar := progressbar.NewOptions64(max64(total, 1),
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(publishInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)

	r.mu.Lock()
	r.bars[jobID] = bar
	r.mu.Unlock()
}

func (r *Reporter) Set(jobID string, current, total int64) {
	r.tracker.Set(jobID, current, total)

	r.mu.Lock()
	bar := r.bars[jobID]
	r.mu.Unlock()
	if bar == nil {
		return
	}
	if total > 0 && bar.GetMax64() != total {
		bar.ChangeMax64(total)
	}
	_ = bar.Set64(current)
}

func (r *Reporter) Done(jobID string) {
	r.tracker.Done(jobID)
	r.finishBar(jobID)
}

func (r *Reporter) Error(jobID string, err error) {
	r.tracker.Fail(jobID, err)
	r.finishBar(jobID)
	if err != nil {
		logger.Error.Printf("[!] job %s failed: %v", jobID, err)
	}
}

func (r *Reporter) finishBar(jobID string) {
	r.mu.Lock()
	bar := r.bars[jobID]
	delete(r.bars, jobID)
	r.mu.Unlock()
	if bar != nil {
		_ = bar.Finish()
	}
}

// Wait gives the last bar render a moment to clear before the next log
// line. Purely cosmetic.
func (r *Reporter) Wait() {
	if !r.silent {
		time.Sleep(publishInterval)
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
