package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// runner abstracts subprocess execution so ops can be tested without
// ffmpeg installed.
type runner interface {
	// run executes name with args. ffmpeg's machine-readable progress
	// stream ("-progress pipe:1") is parsed from stdout; every out_time
	// update is delivered to onProgress in microseconds. stderr is
	// captured and returned for error classification.
	run(ctx context.Context, name string, args []string, onProgress func(us int64)) (stderr string, err error)
	// output executes name with args and returns stdout.
	output(ctx context.Context, name string, args []string) ([]byte, error)
}

type execRunner struct{}

// stderrLimit bounds the captured stderr kept for error messages. ffmpeg
// is chatty; the tail is what matters.
const stderrLimit = 8 << 10

func (execRunner) run(ctx context.Context, name string, args []string, onProgress func(us int64)) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var errBuf tailBuffer
	cmd.Stderr = &errBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if onProgress == nil {
			continue
		}
		if us, ok := parseProgressLine(scanner.Text()); ok {
			onProgress(us)
		}
	}

	if err := cmd.Wait(); err != nil {
		return errBuf.String(), fmt.Errorf("%s: %w", name, err)
	}
	return errBuf.String(), nil
}

func (execRunner) output(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var errBuf tailBuffer
	cmd.Stderr = &errBuf
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, errBuf.String())
	}
	return out, nil
}

// parseProgressLine reads one "key=value" line of ffmpeg's progress
// stream, returning the position in microseconds for out_time_us (or the
// older out_time_ms alias, which ffmpeg also emits in microseconds).
func parseProgressLine(line string) (int64, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		return us, true
	}
	return 0, false
}

// tailBuffer keeps the last stderrLimit bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= stderrLimit {
		t.buf.Reset()
		p = p[n-stderrLimit:]
	} else if t.buf.Len()+n > stderrLimit {
		trimmed := t.buf.Bytes()[t.buf.Len()+n-stderrLimit:]
		rest := make([]byte, len(trimmed))
		copy(rest, trimmed)
		t.buf.Reset()
		t.buf.Write(rest)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
