package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/port"
)

// evenScale forces even output dimensions, required by yuv420p encoders.
const evenScale = "scale=trunc(iw/2)*2:trunc(ih/2)*2"

func (e *Engine) TranscodeAudio(ctx context.Context, jobID, input, output string, opts port.AudioOptions) error {
	args := []string{"-i", input, "-vn"}
	args = append(args, audioArgs(opts)...)
	args = append(args, "-y", output)
	return e.exec(ctx, jobID, e.durationUS(ctx, input), args)
}

// ExtractAudio pulls the first audio sub-stream out of a movie container.
func (e *Engine) ExtractAudio(ctx context.Context, jobID, input, output string, opts port.AudioOptions) error {
	probe, err := e.Probe(ctx, input)
	if err != nil {
		return err
	}
	if probe.AudioStream() == nil {
		return fmt.Errorf("%s: %w", input, domain.ErrNoAudioStream)
	}

	args := []string{"-i", input, "-map", "0:a:0", "-vn"}
	args = append(args, audioArgs(opts)...)
	args = append(args, "-y", output)
	return e.exec(ctx, jobID, int64(probe.DurationSeconds()*1e6), args)
}

func (e *Engine) TranscodeVideo(ctx context.Context, jobID, input, output string, opts port.VideoOptions) error {
	args := []string{"-i", input}
	if opts.Encoder != "" {
		args = append(args, "-c:v", opts.Encoder)
	}
	if opts.Framerate > 0 {
		args = append(args, "-r", strconv.Itoa(opts.Framerate))
	}
	args = append(args, "-vf", evenScale, "-y", output)
	return e.exec(ctx, jobID, e.durationUS(ctx, input), args)
}

// AudioToPlaceholderVideo wraps an audio-only input in a 16x16 constant
// black frame spanning the audio duration, so codec and container targets
// that require a video track still produce playable output.
func (e *Engine) AudioToPlaceholderVideo(ctx context.Context, jobID, input, output string, opts port.VideoOptions) error {
	encoder := opts.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{
		"-f", "lavfi", "-i", "color=c=black:s=16x16:r=1",
		"-i", input,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", encoder,
		"-c:a", "aac",
		"-shortest",
		"-y", output,
	}
	return e.exec(ctx, jobID, e.durationUS(ctx, input), args)
}

// StillsToVideo concatenates still images into one movie, each frame held
// for 1/framerate seconds.
func (e *Engine) StillsToVideo(ctx context.Context, jobID string, stills []string, output string, framerate int) error {
	if len(stills) == 0 {
		return fmt.Errorf("no stills to concatenate")
	}
	if framerate <= 0 {
		framerate = 24
	}

	list, cleanup, err := writeConcatList(stills, 1.0/float64(framerate))
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{
		"-f", "concat", "-safe", "0",
		"-i", list,
		"-vf", evenScale,
		"-pix_fmt", "yuv420p",
		"-y", output,
	}
	totalUS := int64(float64(len(stills)) / float64(framerate) * 1e6)
	return e.exec(ctx, jobID, totalUS, args)
}

// VideoToFrames writes an image sequence; outPattern carries the printf
// index placeholder. A zero fps keeps the source rate.
func (e *Engine) VideoToFrames(ctx context.Context, jobID, input, outPattern string, fps float64) error {
	args := []string{"-i", input}
	if fps > 0 {
		args = append(args, "-vf", fmt.Sprintf("fps=%g", fps))
	}
	args = append(args, "-y", outPattern)
	return e.exec(ctx, jobID, e.durationUS(ctx, input), args)
}

func (e *Engine) VideoToGIF(ctx context.Context, jobID, input, output string, fps float64) error {
	if fps <= 0 {
		fps = 10
	}
	// Two-pass palette keeps gifs from dithering into mud.
	filter := fmt.Sprintf("fps=%g,split[a][b];[a]palettegen[p];[b][p]paletteuse", fps)
	args := []string{
		"-i", input,
		"-filter_complex", filter,
		"-loop", "0",
		"-y", output,
	}
	return e.exec(ctx, jobID, e.durationUS(ctx, input), args)
}

// ExtractSubtitles writes the first subtitle stream as SRT. The generic
// form drops the explicit stream map and lets ffmpeg pick, which rescues
// containers whose subtitle stream is not the first mapped one.
func (e *Engine) ExtractSubtitles(ctx context.Context, jobID, input, output string, generic bool) error {
	var args []string
	if generic {
		args = []string{"-i", input, "-c:s", "srt", "-y", output}
	} else {
		args = []string{"-i", input, "-map", "0:s:0", "-c:s", "srt", "-y", output}
	}
	return e.exec(ctx, jobID, 0, args)
}

// ConcatAudio joins audio files through the concat filter, which tolerates
// mixed source codecs.
func (e *Engine) ConcatAudio(ctx context.Context, jobID string, inputs []string, output string, opts port.AudioOptions) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no audio inputs to concatenate")
	}

	var args []string
	var totalUS int64
	for _, in := range inputs {
		args = append(args, "-i", in)
		totalUS += e.durationUS(ctx, in)
	}

	var filter strings.Builder
	for i := range inputs {
		fmt.Fprintf(&filter, "[%d:a:0]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(inputs))

	args = append(args, "-filter_complex", filter.String(), "-map", "[out]")
	args = append(args, audioArgs(opts)...)
	args = append(args, "-y", output)
	return e.exec(ctx, jobID, totalUS, args)
}

// ConcatVideo joins movies back to back. Inputs are normalized to the
// first movie's resolution before the concat filter; audio is dropped when
// any input lacks it, kept otherwise.
func (e *Engine) ConcatVideo(ctx context.Context, jobID string, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no movie inputs to concatenate")
	}

	width, height := 1280, 720
	allAudio := true
	var totalUS int64
	for i, in := range inputs {
		probe, err := e.Probe(ctx, in)
		if err != nil {
			return err
		}
		totalUS += int64(probe.DurationSeconds() * 1e6)
		if probe.AudioStream() == nil {
			allAudio = false
		}
		if i == 0 {
			if vs := probe.VideoStream(); vs != nil && vs.Width > 0 {
				width, height = vs.Width, vs.Height
			}
		}
	}

	var args []string
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	var filter strings.Builder
	for i := range inputs {
		fmt.Fprintf(&filter,
			"[%d:v:0]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[v%d];",
			i, width, height, width, height, i)
	}
	for i := range inputs {
		fmt.Fprintf(&filter, "[v%d]", i)
		if allAudio {
			fmt.Fprintf(&filter, "[%d:a:0]", i)
		}
	}
	audioStreams := 0
	if allAudio {
		audioStreams = 1
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=%d[vout]", len(inputs), audioStreams)
	if allAudio {
		filter.WriteString("[aout]")
	}

	args = append(args, "-filter_complex", filter.String(), "-map", "[vout]")
	if allAudio {
		args = append(args, "-map", "[aout]")
	}
	args = append(args, "-y", output)
	return e.exec(ctx, jobID, totalUS, args)
}

// MergeAudioVideo muxes an audio track into a movie, keeping the video
// stream untouched.
func (e *Engine) MergeAudioVideo(ctx context.Context, jobID, video, audio, output string) error {
	args := []string{
		"-i", video,
		"-i", audio,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy",
		"-shortest",
		"-y", output,
	}
	return e.exec(ctx, jobID, e.durationUS(ctx, video), args)
}

func audioArgs(opts port.AudioOptions) []string {
	var args []string
	if opts.Encoder != "" {
		args = append(args, "-c:a", opts.Encoder)
	}
	if opts.Bitrate != "" {
		args = append(args, "-b:a", opts.Bitrate)
	}
	if opts.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(opts.SampleRate))
	}
	return args
}

// writeConcatList builds a concat-demuxer script holding each entry for
// holdSeconds. The caller must invoke cleanup.
func writeConcatList(files []string, holdSeconds float64) (string, func(), error) {
	f, err := os.CreateTemp("", "anyconv-concat-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("concat list: %w", err)
	}

	var b strings.Builder
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = file
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
		if holdSeconds > 0 {
			fmt.Fprintf(&b, "duration %g\n", holdSeconds)
		}
	}
	// The demuxer ignores the last duration unless the final entry repeats.
	if holdSeconds > 0 && len(files) > 0 {
		abs, err := filepath.Abs(files[len(files)-1])
		if err != nil {
			abs = files[len(files)-1]
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("concat list: %w", err)
	}
	f.Close()
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
