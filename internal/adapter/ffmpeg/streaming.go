package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bnema/anyconv/internal/domain"
)

// HLS produces one renditions ladder under outDir: per-rendition subfolder
// "<i>/" holding "<res>_%03d.ts" segments and a "<res>.m3u8" playlist,
// plus a hand-written master.m3u8 at the top referencing each rendition.
func (e *Engine) HLS(ctx context.Context, jobID, input, outDir string, ladder []domain.Rendition) error {
	if err := e.Available(); err != nil {
		return err
	}

	if e.sink != nil && jobID != "" {
		e.sink.Set(jobID, 0, int64(len(ladder)))
	}

	for i, r := range ladder {
		renditionDir := filepath.Join(outDir, strconv.Itoa(i))
		if err := os.MkdirAll(renditionDir, 0755); err != nil {
			return fmt.Errorf("hls rendition dir: %w", err)
		}

		res := fmt.Sprintf("%dp", r.Height)
		args := []string{
			"-i", input,
			"-vf", fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease", r.Width, r.Height),
			"-c:v", "libx264",
			"-profile:v", "main",
			"-sc_threshold", "0",
			"-g", "48", "-keyint_min", "48",
			"-b:v", r.VideoBitrate,
			"-maxrate", r.VideoBitrate,
			"-bufsize", doubleBitrate(r.VideoBitrate),
			"-c:a", "aac",
			"-ar", "48000",
			"-b:a", r.AudioBitrate,
			"-hls_time", "4",
			"-hls_playlist_type", "vod",
			"-hls_segment_filename", filepath.Join(renditionDir, res+"_%03d.ts"),
			"-y", filepath.Join(renditionDir, res+".m3u8"),
		}
		if err := e.exec(ctx, "", 0, args); err != nil {
			return fmt.Errorf("hls rendition %s: %w", r.Resolution(), err)
		}

		if e.sink != nil && jobID != "" {
			e.sink.Set(jobID, int64(i+1), int64(len(ladder)))
		}
	}

	return writeMasterPlaylist(filepath.Join(outDir, "master.m3u8"), ladder)
}

func writeMasterPlaylist(path string, ladder []domain.Rendition) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for i, r := range ladder {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n", r.BandwidthBPS(), r.Resolution())
		fmt.Fprintf(&b, "%d/%dp.m3u8\n", i, r.Height)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("master playlist: %w", err)
	}
	return nil
}

// DASH emits a single multi-rate manifest.mpd, mapping the input once per
// ladder rung with per-stream bitrates.
func (e *Engine) DASH(ctx context.Context, jobID, input, outDir string) error {
	if err := e.Available(); err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("dash dir: %w", err)
	}

	probe, err := e.Probe(ctx, input)
	if err != nil {
		return err
	}
	hasAudio := probe.AudioStream() != nil

	args := []string{"-i", input}
	for i, r := range domain.HLSLadder {
		args = append(args,
			"-map", "0:v:0",
			fmt.Sprintf("-b:v:%d", i), r.VideoBitrate,
			fmt.Sprintf("-s:v:%d", i), r.Resolution(),
		)
	}
	args = append(args, "-c:v", "libx264", "-g", "120", "-keyint_min", "120", "-sc_threshold", "0")
	adaptationSets := "id=0,streams=v"
	if hasAudio {
		args = append(args, "-map", "0:a:0", "-c:a", "aac")
		adaptationSets += " id=1,streams=a"
	}
	args = append(args,
		"-use_timeline", "1",
		"-use_template", "1",
		"-adaptation_sets", adaptationSets,
		"-f", "dash",
		"-y", filepath.Join(outDir, "manifest.mpd"),
	)
	return e.exec(ctx, jobID, int64(probe.DurationSeconds()*1e6), args)
}

// doubleBitrate turns "1400k" into "2800k" for -bufsize.
func doubleBitrate(bitrate string) string {
	var kbps int
	if _, err := fmt.Sscanf(bitrate, "%dk", &kbps); err != nil {
		return bitrate
	}
	return fmt.Sprintf("%dk", kbps*2)
}
