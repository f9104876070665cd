package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/port"
)

// stillExtensions accumulate into per-extension merged movies in ToMovie.
var stillExtensions = []string{"png", "jpeg", "jpg", "bmp"}

// ToMovie fans many categories into the target container: gifs one movie
// each, accumulated stills per extension into "merged.<container>", movies
// transcoded (audio-only ones wrapped in a placeholder track), docx and
// pdf staged as image slideshows.
func (c *Converter) ToMovie(ctx context.Context, env runEnv, batch *domain.Batch, container, encoder string) {
	var tasks []task
	opts := port.VideoOptions{Encoder: encoder, Framerate: env.req.Framerate}

	stills := make(map[string][]domain.FilePathSet)
	for _, src := range batch.Files(domain.CategoryImage) {
		if src.Ext == "gif" {
			src := src
			tasks = append(tasks, task{
				src:      src,
				category: domain.CategoryImage,
				format:   container,
				run: func(ctx context.Context, jobID string) (string, error) {
					outPath, err := prepareOutput(env.outDirFor(src), src.Stem, container)
					if err != nil {
						return "", err
					}
					if err := c.media.TranscodeVideo(ctx, jobID, src.Join(), outPath, opts); err != nil {
						os.Remove(outPath)
						return "", err
					}
					return outPath, nil
				},
			})
			continue
		}
		for _, ext := range stillExtensions {
			if src.Ext == ext {
				stills[ext] = append(stills[ext], src)
				break
			}
		}
	}

	for _, ext := range stillExtensions {
		group := stills[ext]
		if len(group) == 0 {
			continue
		}
		first := group[0]
		tasks = append(tasks, task{
			src:      first,
			category: domain.CategoryImage,
			format:   container,
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(first), "merged", container)
				if err != nil {
					return "", err
				}
				paths := make([]string, len(group))
				for i, s := range group {
					paths[i] = s.Join()
				}
				if err := c.media.StillsToVideo(ctx, jobID, paths, outPath, env.req.Framerate); err != nil {
					os.Remove(outPath)
					return "", err
				}
				if env.req.DeleteSource {
					for _, s := range group[1:] {
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
		if src.Ext == container {
			logger.Info.Printf("[=] %s.%s already %s, skipping", logger.Sanitize(src.Stem), src.Ext, container)
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryMovie,
			format:   container,
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, container)
				if err != nil {
					return "", err
				}

				visuals, err := c.media.HasVisuals(ctx, src.Join())
				if err != nil {
					return "", err
				}
				if visuals {
					err = c.media.TranscodeVideo(ctx, jobID, src.Join(), outPath, opts)
				} else {
					err = c.media.AudioToPlaceholderVideo(ctx, jobID, src.Join(), outPath, opts)
				}
				if err != nil {
					os.Remove(outPath)
					return "", err
				}
				return outPath, nil
			},
		})
	}

	for _, src := range batch.Files(domain.CategoryDocument) {
		src := src
		switch src.Ext {
		case "docx", "pptx":
			tasks = append(tasks, task{
				src:      src,
				category: domain.CategoryDocument,
				format:   container,
				run: func(ctx context.Context, jobID string) (string, error) {
					return c.stagedSlideshow(ctx, jobID, env, src, container, func(stagingDir string) ([]string, error) {
						return c.office.ExtractMedia(src.Join(), stagingDir)
					})
				},
			})
		case "pdf":
			tasks = append(tasks, task{
				src:      src,
				category: domain.CategoryDocument,
				format:   container,
				run: func(ctx context.Context, jobID string) (string, error) {
					return c.stagedSlideshow(ctx, jobID, env, src, container, func(stagingDir string) ([]string, error) {
						return c.docs.RenderPages(src.Join(), stagingDir, src.Stem, "jpg")
					})
				},
			})
		}
	}

	c.runPool(ctx, env, tasks)
}

// stagedSlideshow extracts or renders images into a staging directory,
// concatenates them into a movie, and removes the staging on success.
func (c *Converter) stagedSlideshow(ctx context.Context, jobID string, env runEnv, src domain.FilePathSet, container string, stage func(dir string) ([]string, error)) (string, error) {
	stagingDir, err := os.MkdirTemp("", "anyconv-stage-*")
	if err != nil {
		return "", err
	}

	images, err := stage(stagingDir)
	if err != nil {
		os.RemoveAll(stagingDir)
		return "", err
	}
	if len(images) == 0 {
		os.RemoveAll(stagingDir)
		logger.Warn.Printf("[!] %s.%s holds no images, skipping", logger.Sanitize(src.Stem), src.Ext)
		return "", nil
	}

	outPath, err := prepareOutput(env.outDirFor(src), src.Stem, container)
	if err != nil {
		os.RemoveAll(stagingDir)
		return "", err
	}
	if err := c.media.StillsToVideo(ctx, jobID, images, outPath, env.req.Framerate); err != nil {
		os.Remove(outPath)
		return "", err
	}
	os.RemoveAll(stagingDir)
	return outPath, nil
}

// ToCodec transcodes each movie with the codec's encoder, keeping the
// source container; on a container rejection the residue is deleted and
// the encode retried in the codec's fallback container.
func (c *Converter) ToCodec(ctx context.Context, env runEnv, batch *domain.Batch, codecName string, desc domain.Descriptor) {
	var tasks []task
	for _, src := range batch.Files(domain.CategoryMovie) {
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryMovie,
			format:   codecName,
			run: func(ctx context.Context, jobID string) (string, error) {
				visuals, err := c.media.HasVisuals(ctx, src.Join())
				if err != nil {
					return "", err
				}

				opts := port.VideoOptions{Encoder: desc.Encoder, Framerate: env.req.Framerate}
				encode := c.media.TranscodeVideo
				if !visuals {
					encode = c.media.AudioToPlaceholderVideo
				}

				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, src.Ext)
				if err != nil {
					return "", err
				}
				err = encode(ctx, jobID, src.Join(), outPath, opts)
				if errors.Is(err, domain.ErrCodecContainer) && desc.Fallback != "" && desc.Fallback != src.Ext {
					logger.Warn.Printf("[!] %s rejected %s container, retrying as %s",
						codecName, src.Ext, desc.Fallback)
					os.Remove(outPath)
					outPath, err = prepareOutput(env.outDirFor(src), src.Stem, desc.Fallback)
					if err != nil {
						return "", err
					}
					err = encode(ctx, jobID, src.Join(), outPath, opts)
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

// ToProtocol packages each movie for adaptive streaming into
// "<out>/<stem>_<protocol>/".
func (c *Converter) ToProtocol(ctx context.Context, env runEnv, batch *domain.Batch, protocol string) error {
	if err := c.media.Available(); err != nil {
		return fmt.Errorf("adaptive streaming needs the external transcoder: %w", err)
	}

	var tasks []task
	for _, src := range batch.Files(domain.CategoryMovie) {
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryMovie,
			format:   protocol,
			run: func(ctx context.Context, jobID string) (string, error) {
				outDir := filepath.Join(env.outDirFor(src), fmt.Sprintf("%s_%s", src.Stem, protocol))
				var err error
				switch protocol {
				case "hls":
					err = c.media.HLS(ctx, jobID, src.Join(), outDir, domain.HLSLadder)
				case "dash":
					err = c.media.DASH(ctx, jobID, src.Join(), outDir)
				default:
					err = fmt.Errorf("%w: protocol %q", domain.ErrUnknownFormat, protocol)
				}
				if err != nil {
					return "", err
				}
				return outDir, nil
			},
		})
	}
	c.runPool(ctx, env, tasks)
	return nil
}
