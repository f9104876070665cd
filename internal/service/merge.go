package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/registry"
)

// Merge muxes an audio partner into each movie, writing
// "<stem>_merged.<container>". Partners come from the batch first (same
// stem, same directory unless across), then from the movie's directory.
func (c *Converter) Merge(ctx context.Context, env runEnv, batch *domain.Batch) {
	var tasks []task
	for _, movie := range batch.Files(domain.CategoryMovie) {
		movie := movie
		audio := findAudioPartner(env, batch, movie)
		if audio == nil {
			logger.Warn.Printf("[!] no audio partner for %s.%s, skipping",
				logger.Sanitize(movie.Stem), movie.Ext)
			continue
		}

		partner := *audio
		fromBatch := batch.Contains(domain.CategoryAudio, partner)
		tasks = append(tasks, task{
			src:      movie,
			category: domain.CategoryMovie,
			format:   movie.Ext,
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(movie), movie.Stem+"_merged", movie.Ext)
				if err != nil {
					return "", err
				}
				if err := c.media.MergeAudioVideo(ctx, jobID, movie.Join(), partner.Join(), outPath); err != nil {
					os.Remove(outPath)
					return "", err
				}

				// the movie source is handled by the pool's post-process;
				// the audio partner only goes when it was part of the batch
				if env.req.DeleteSource && fromBatch {
					if err := os.Remove(partner.Join()); err != nil {
						logger.Warn.Printf("[!] could not remove source %q: %v",
							logger.Sanitize(partner.Join()), err)
					}
				}
				return outPath, nil
			},
		})
	}
	c.runPool(ctx, env, tasks)
}

// findAudioPartner pairs a movie with its same-stem audio track, batch
// entries first, then any known-audio sibling on disk.
func findAudioPartner(env runEnv, batch *domain.Batch, movie domain.FilePathSet) *domain.FilePathSet {
	for _, audio := range batch.Files(domain.CategoryAudio) {
		if audio.Stem != movie.Stem {
			continue
		}
		if audio.Dir == movie.Dir || env.req.Across {
			a := audio
			return &a
		}
	}

	for _, ext := range registry.AudioExtensions() {
		candidate := filepath.Join(movie.Dir, fmt.Sprintf("%s.%s", movie.Stem, ext))
		if _, err := os.Stat(candidate); err == nil {
			fps := domain.NewFilePathSet(candidate)
			return &fps
		}
	}
	return nil
}
