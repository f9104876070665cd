package port

import (
	"context"

	"github.com/bnema/anyconv/internal/domain"
)

// AudioOptions parameterize an audio encode.
type AudioOptions struct {
	Encoder    string
	Bitrate    string // e.g. "320k"; empty keeps the encoder default
	SampleRate int    // 0 keeps the source rate
}

// VideoOptions parameterize a video encode.
type VideoOptions struct {
	Encoder   string
	Framerate int // 0 keeps the source rate
}

// MediaEngine is the external transcoder (ffmpeg/ffprobe behind an exec
// wrapper). Every long-running call takes a jobID for progress reporting.
type MediaEngine interface {
	Available() error
	Probe(ctx context.Context, path string) (*domain.ProbeResult, error)
	HasVisuals(ctx context.Context, path string) (bool, error)

	TranscodeAudio(ctx context.Context, jobID, input, output string, opts AudioOptions) error
	ExtractAudio(ctx context.Context, jobID, input, output string, opts AudioOptions) error

	TranscodeVideo(ctx context.Context, jobID, input, output string, opts VideoOptions) error
	AudioToPlaceholderVideo(ctx context.Context, jobID, input, output string, opts VideoOptions) error
	StillsToVideo(ctx context.Context, jobID string, stills []string, output string, framerate int) error
	VideoToFrames(ctx context.Context, jobID, input, outPattern string, fps float64) error
	VideoToGIF(ctx context.Context, jobID, input, output string, fps float64) error

	ExtractSubtitles(ctx context.Context, jobID, input, output string, generic bool) error

	HLS(ctx context.Context, jobID, input, outDir string, ladder []domain.Rendition) error
	DASH(ctx context.Context, jobID, input, outDir string) error

	ConcatAudio(ctx context.Context, jobID string, inputs []string, output string, opts AudioOptions) error
	ConcatVideo(ctx context.Context, jobID string, inputs []string, output string) error
	MergeAudioVideo(ctx context.Context, jobID, video, audio, output string) error
}
