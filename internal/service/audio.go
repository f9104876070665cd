package service

import (
	"context"
	"errors"
	"os"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/port"
	"github.com/bnema/anyconv/internal/registry"
)

// ToAudio converts the batch's audio entries to the target format and
// extracts or converts the audio of its movie entries. Both loops share
// one worker pool.
func (c *Converter) ToAudio(ctx context.Context, env runEnv, batch *domain.Batch, target, encoder string) {
	opts := port.AudioOptions{
		Encoder: encoder,
		Bitrate: registry.AudioBitrate(target, env.req.Quality),
	}

	var tasks []task
	for _, src := range batch.Files(domain.CategoryAudio) {
		if src.Ext == target {
			logger.Info.Printf("[=] %s.%s already %s, skipping", logger.Sanitize(src.Stem), src.Ext, target)
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryAudio,
			format:   target,
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, target)
				if err != nil {
					return "", err
				}
				if err := c.transcodeAudioWithRetry(ctx, jobID, src.Join(), outPath, opts); err != nil {
					os.Remove(outPath)
					return "", err
				}
				return outPath, nil
			},
		})
	}

	for _, src := range batch.Files(domain.CategoryMovie) {
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryMovie,
			format:   target,
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, target)
				if err != nil {
					return "", err
				}

				visuals, err := c.media.HasVisuals(ctx, src.Join())
				if err != nil {
					return "", err
				}
				if visuals {
					err = c.media.ExtractAudio(ctx, jobID, src.Join(), outPath, opts)
					if errors.Is(err, domain.ErrNoAudioStream) {
						logger.Warn.Printf("[!] %s.%s has no audio stream, skipping",
							logger.Sanitize(src.Stem), src.Ext)
						os.Remove(outPath)
						return "", nil
					}
				} else {
					// no visuals: the whole container is audio
					err = c.transcodeAudioWithRetry(ctx, jobID, src.Join(), outPath, opts)
				}
				if err != nil {
					os.Remove(outPath)
					return "", err
				}
				return outPath, nil
			},
		})
	}

	c.runPool(ctx, env, tasks)
}

// transcodeAudioWithRetry retries a rejected encode once with the sample
// rate forced to 48 kHz.
func (c *Converter) transcodeAudioWithRetry(ctx context.Context, jobID, input, output string, opts port.AudioOptions) error {
	err := c.media.TranscodeAudio(ctx, jobID, input, output, opts)
	if errors.Is(err, domain.ErrRateIncompatible) {
		logger.Warn.Printf("[!] retrying %s at 48000 Hz", logger.Sanitize(input))
		opts.SampleRate = 48000
		err = c.media.TranscodeAudio(ctx, jobID, input, output, opts)
	}
	return err
}
