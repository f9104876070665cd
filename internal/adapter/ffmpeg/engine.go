// Package ffmpeg drives the external ffmpeg/ffprobe binaries for every
// audio and video operation: transcodes, stream extraction, stills and gif
// work, adaptive streaming and concatenation.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/port"
)

type Engine struct {
	sink port.ProgressSink
	run  runner

	availOnce sync.Once
	availErr  error

	// visuals probe results, cached per run
	visMu   sync.Mutex
	visuals map[string]bool
}

func NewEngine(sink port.ProgressSink) *Engine {
	return &Engine{
		sink:    sink,
		run:     execRunner{},
		visuals: make(map[string]bool),
	}
}

// Available reports whether both ffmpeg and ffprobe can be found on PATH.
// The lookup result is cached for the lifetime of the engine.
func (e *Engine) Available() error {
	e.availOnce.Do(func() {
		for _, tool := range []string{"ffmpeg", "ffprobe"} {
			if _, err := exec.LookPath(tool); err != nil {
				e.availErr = fmt.Errorf("%w: %s", domain.ErrToolMissing, tool)
				return
			}
		}
	})
	return e.availErr
}

// exec runs ffmpeg with machine-readable progress appended, feeding the
// sink for jobID against totalUS microseconds of expected output. A zero
// totalUS disables the bar position (the job still gets start/done).
func (e *Engine) exec(ctx context.Context, jobID string, totalUS int64, args []string) error {
	if err := e.Available(); err != nil {
		return err
	}

	full := append([]string{"-hide_banner", "-loglevel", "error", "-nostats"}, args...)
	full = append(full, "-progress", "pipe:1")

	var onProgress func(us int64)
	if e.sink != nil && jobID != "" && totalUS > 0 {
		onProgress = func(us int64) {
			e.sink.Set(jobID, us, totalUS)
		}
	}

	stderr, err := e.run.run(ctx, "ffmpeg", full, onProgress)
	if err != nil {
		return classify(err, stderr)
	}
	return nil
}

// classify maps known ffmpeg failure messages to the retryable sentinels.
func classify(err error, stderr string) error {
	msg := strings.ToLower(stderr)
	switch {
	case strings.Contains(msg, "sample rate"):
		return fmt.Errorf("%w: %s", domain.ErrRateIncompatible, firstLine(stderr))
	case strings.Contains(msg, "could not find tag for codec"),
		strings.Contains(msg, "incorrect codec parameters"),
		strings.Contains(msg, "not supported in the") && strings.Contains(msg, "muxer"):
		return fmt.Errorf("%w: %s", domain.ErrCodecContainer, firstLine(stderr))
	}
	if stderr != "" {
		return fmt.Errorf("%v: %s", err, firstLine(stderr))
	}
	return err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return s
}

// durationUS probes the input and returns its duration in microseconds,
// 0 when unknown. Used to scale progress bars; failures are not fatal.
func (e *Engine) durationUS(ctx context.Context, path string) int64 {
	probe, err := e.Probe(ctx, path)
	if err != nil {
		return 0
	}
	return int64(probe.DurationSeconds() * 1e6)
}

var _ port.MediaEngine = (*Engine)(nil)
