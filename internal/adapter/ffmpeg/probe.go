package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/anyconv/internal/domain"
)

func (e *Engine) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	if err := e.Available(); err != nil {
		return nil, err
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	out, err := e.run.output(ctx, "ffprobe", args)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	var probe domain.ProbeResult
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}
	return &probe, nil
}

// HasVisuals reports whether the decoder can produce at least one video
// frame from path. Results are cached per run: the same file is probed by
// both the audio and movie converters.
func (e *Engine) HasVisuals(ctx context.Context, path string) (bool, error) {
	e.visMu.Lock()
	if cached, ok := e.visuals[path]; ok {
		e.visMu.Unlock()
		return cached, nil
	}
	e.visMu.Unlock()

	if err := e.Available(); err != nil {
		return false, err
	}

	// Decode a single frame rather than trusting stream headers: cover
	// art in audio containers shows up as a video stream but won't decode
	// as a moving picture.
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		path,
	}
	out, err := e.run.output(ctx, "ffprobe", args)
	if err != nil {
		return false, fmt.Errorf("visuals probe %s: %w", path, err)
	}

	var packets int
	fmt.Sscanf(string(out), "%d", &packets)
	// A still picture (cover art) decodes as exactly one packet.
	has := packets > 1

	e.visMu.Lock()
	e.visuals[path] = has
	e.visMu.Unlock()
	return has, nil
}
