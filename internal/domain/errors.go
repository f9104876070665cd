package domain

import "errors"

var (
	// ErrNotFound is returned when a named input directory does not exist.
	ErrNotFound = errors.New("directory not found")
	// ErrNoMedia is returned when discovery found nothing convertible.
	ErrNoMedia = errors.New("no convertible media files found")
	// ErrUnknownFormat is returned for a target format outside the registry.
	ErrUnknownFormat = errors.New("unknown target format")
	// ErrConfig covers invalid flag combinations and unresolvable outputs.
	ErrConfig = errors.New("invalid configuration")
	// ErrRateIncompatible signals an audio encode rejected at the source
	// sample rate; the caller retries once at 48000 Hz.
	ErrRateIncompatible = errors.New("source sample rate incompatible")
	// ErrCodecContainer signals a transcode that failed in the requested
	// container; the caller retries in the codec's fallback container.
	ErrCodecContainer = errors.New("codec incompatible with container")
	// ErrToolMissing is returned when an optional external tool is absent.
	ErrToolMissing = errors.New("external tool not available")
	// ErrNoAudioStream signals a movie container without an audio
	// sub-stream; audio extraction skips it with a warning.
	ErrNoAudioStream = errors.New("no audio stream")
)
