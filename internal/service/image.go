package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/fileops"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/port"
	"github.com/bnema/anyconv/internal/registry"
)

// ToFrames re-encodes the batch into the target still format: single
// stills directly, gifs and PDFs expanded into per-frame folders, movies
// written as image sequences at the source frame rate.
func (c *Converter) ToFrames(ctx context.Context, env runEnv, batch *domain.Batch, target string) {
	var tasks []task

	for _, src := range batch.Files(domain.CategoryImage) {
		if src.Ext == target {
			logger.Info.Printf("[=] %s.%s already %s, skipping", logger.Sanitize(src.Stem), src.Ext, target)
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryImage,
			format:   target,
			run: func(ctx context.Context, jobID string) (string, error) {
				outDir := env.outDirFor(src)
				if src.Ext == "gif" {
					frameDir := filepath.Join(outDir, src.Stem)
					if _, err := c.images.GIFFrames(src.Join(), frameDir, src.Stem, target); err != nil {
						return "", err
					}
					return frameDir, nil
				}

				outPath, err := prepareOutput(outDir, src.Stem, target)
				if err != nil {
					return "", err
				}
				if err := c.reencodeStill(ctx, jobID, src.Join(), outPath); err != nil {
					return "", err
				}
				return outPath, nil
			},
		})
	}

	for _, src := range batch.Files(domain.CategoryDocument) {
		if src.Ext != "pdf" {
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryDocument,
			format:   target,
			run: func(ctx context.Context, jobID string) (string, error) {
				frameDir := filepath.Join(env.outDirFor(src), src.Stem)
				if _, err := c.docs.RenderPages(src.Join(), frameDir, src.Stem, target); err != nil {
					return "", err
				}
				return frameDir, nil
			},
		})
	}

	for _, src := range batch.Files(domain.CategoryMovie) {
		if !registry.IsMovieExt(src.Ext) {
			logger.Warn.Printf("[!] %s.%s is not a recognized movie container, skipping",
				logger.Sanitize(src.Stem), src.Ext)
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryMovie,
			format:   target,
			run: func(ctx context.Context, jobID string) (string, error) {
				return c.movieToFrames(ctx, jobID, env, src, target)
			},
		})
	}

	c.runPool(ctx, env, tasks)
}

// movieToFrames writes every frame of a movie into "<out>/<stem>/" with
// indices zero-padded to the expected frame count.
func (c *Converter) movieToFrames(ctx context.Context, jobID string, env runEnv, src domain.FilePathSet, target string) (string, error) {
	probe, err := c.media.Probe(ctx, src.Join())
	if err != nil {
		return "", err
	}

	pad := 4
	if total := int(probe.DurationSeconds() * probe.FPS()); total > 0 {
		pad = len(fmt.Sprintf("%d", total))
	}

	frameDir := filepath.Join(env.outDirFor(src), src.Stem)
	if err := fileops.EnsureDir(frameDir); err != nil {
		return "", err
	}
	pattern := filepath.Join(frameDir, fmt.Sprintf("%s_%%0%dd.%s", src.Stem, pad, target))
	if err := c.media.VideoToFrames(ctx, jobID, src.Join(), pattern, 0); err != nil {
		return "", err
	}
	return frameDir, nil
}

// reencodeStill prefers the in-process image codecs and falls back to the
// external transcoder for formats they cannot write (webp and friends).
func (c *Converter) reencodeStill(ctx context.Context, jobID, input, output string) error {
	if err := c.images.Reencode(input, output); err == nil {
		return nil
	}
	logger.Debug.Printf("falling back to external encoder for %s", logger.Sanitize(output))
	return c.media.TranscodeVideo(ctx, jobID, input, output, port.VideoOptions{})
}

// ToGIF merges every non-gif still into one animated gif in discovery
// order, and converts each movie to its own gif at a third of its source
// frame rate.
func (c *Converter) ToGIF(ctx context.Context, env runEnv, batch *domain.Batch) {
	var stills []domain.FilePathSet
	for _, src := range batch.Files(domain.CategoryImage) {
		if src.Ext != "gif" {
			stills = append(stills, src)
		}
	}

	var tasks []task
	if len(stills) > 0 {
		first := stills[0]
		tasks = append(tasks, task{
			src:      first,
			category: domain.CategoryImage,
			format:   "gif",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(first), "merged", "gif")
				if err != nil {
					return "", err
				}
				delay := 10
				if env.req.Framerate > 0 {
					delay = 100 / env.req.Framerate
				}
				frames := make([]string, len(stills))
				for i, s := range stills {
					frames[i] = s.Join()
				}
				if err := c.images.AssembleGIF(frames, outPath, delay); err != nil {
					return "", err
				}
				if env.req.DeleteSource {
					// the pool's post-process removes the first source;
					// the remaining merged stills go here
					for _, s := range stills[1:] {
						if err := os.Remove(s.Join()); err != nil {
							logger.Warn.Printf("[!] could not remove source %q: %v", logger.Sanitize(s.Join()), err)
						}
					}
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
			format:   "gif",
			run: func(ctx context.Context, jobID string) (string, error) {
				probe, err := c.media.Probe(ctx, src.Join())
				if err != nil {
					return "", err
				}
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, "gif")
				if err != nil {
					return "", err
				}
				if err := c.media.VideoToGIF(ctx, jobID, src.Join(), outPath, probe.FPS()/3); err != nil {
					return "", err
				}
				return outPath, nil
			},
		})
	}

	c.runPool(ctx, env, tasks)
}
