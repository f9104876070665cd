package service

import (
	"context"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/port"
	"github.com/bnema/anyconv/internal/registry"
)

// Concat joins the batch per category, each producing a single output in
// the resolved output directory: audio and movies back to back, images as
// a one-frame grid gif, PDFs stitched stem-sorted, subtitles appended
// textually.
func (c *Converter) Concat(ctx context.Context, env runEnv, batch *domain.Batch) {
	var tasks []task

	if audio := batch.Files(domain.CategoryAudio); len(audio) > 1 {
		first := audio[0]
		tasks = append(tasks, task{
			src:      first,
			category: domain.CategoryAudio,
			format:   "mp3",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.out, "concatenated_audio", "mp3")
				if err != nil {
					return "", err
				}
				encoder, _ := registry.AudioEncoder("mp3")
				opts := port.AudioOptions{
					Encoder: encoder,
					Bitrate: registry.AudioBitrate("mp3", env.req.Quality),
				}
				if err := c.media.ConcatAudio(ctx, jobID, joinAll(audio), outPath, opts); err != nil {
					os.Remove(outPath)
					return "", err
				}
				c.removeConcatSources(env, audio[1:])
				return outPath, nil
			},
		})
	}

	if movies := batch.Files(domain.CategoryMovie); len(movies) > 1 {
		first := movies[0]
		tasks = append(tasks, task{
			src:      first,
			category: domain.CategoryMovie,
			format:   "mp4",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.out, "concatenated_video", "mp4")
				if err != nil {
					return "", err
				}
				if err := c.media.ConcatVideo(ctx, jobID, joinAll(movies), outPath); err != nil {
					os.Remove(outPath)
					return "", err
				}
				c.removeConcatSources(env, movies[1:])
				return outPath, nil
			},
		})
	}

	if images := batch.Files(domain.CategoryImage); len(images) > 1 {
		first := images[0]
		tasks = append(tasks, task{
			src:      first,
			category: domain.CategoryImage,
			format:   "gif",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.out, "concatenated_image", "gif")
				if err != nil {
					return "", err
				}
				if err := c.images.GridGIF(gridRows(joinAll(images)), outPath); err != nil {
					os.Remove(outPath)
					return "", err
				}
				c.removeConcatSources(env, images[1:])
				return outPath, nil
			},
		})
	}

	docs := batch.Files(domain.CategoryDocument)
	var pdfs, srts []domain.FilePathSet
	for _, d := range docs {
		switch d.Ext {
		case "pdf":
			pdfs = append(pdfs, d)
		case "srt":
			srts = append(srts, d)
		}
	}

	if len(pdfs) > 1 {
		sortByStem(pdfs)
		first := pdfs[0]
		tasks = append(tasks, task{
			src:      first,
			category: domain.CategoryDocument,
			format:   "pdf",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.out, "concatenated", "pdf")
				if err != nil {
					return "", err
				}
				if err := c.docs.MergePDFs(joinAll(pdfs), outPath); err != nil {
					os.Remove(outPath)
					return "", err
				}
				c.removeConcatSources(env, pdfs[1:])
				return outPath, nil
			},
		})
	}

	if len(srts) > 1 {
		sortByStem(srts)
		first := srts[0]
		tasks = append(tasks, task{
			src:      first,
			category: domain.CategoryDocument,
			format:   "srt",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.out, "concatenated_subtitles", "srt")
				if err != nil {
					return "", err
				}

				var b strings.Builder
				for i, srt := range srts {
					data, err := os.ReadFile(srt.Join())
					if err != nil {
						return "", err
					}
					if i > 0 {
						b.WriteString("\n")
					}
					b.Write(data)
				}
				if err := os.WriteFile(outPath, []byte(b.String()), 0644); err != nil {
					return "", err
				}
				c.removeConcatSources(env, srts[1:])
				return outPath, nil
			},
		})
	}

	c.runPool(ctx, env, tasks)
}

func (c *Converter) removeConcatSources(env runEnv, rest []domain.FilePathSet) {
	if !env.req.DeleteSource {
		return
	}
	for _, s := range rest {
		os.Remove(s.Join())
	}
}

// gridRows arranges paths into a near-square grid.
func gridRows(paths []string) [][]string {
	cols := int(math.Ceil(math.Sqrt(float64(len(paths)))))
	var rows [][]string
	for start := 0; start < len(paths); start += cols {
		end := start + cols
		if end > len(paths) {
			end = len(paths)
		}
		rows = append(rows, paths[start:end])
	}
	return rows
}

func joinAll(files []domain.FilePathSet) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Join()
	}
	return out
}

func sortByStem(files []domain.FilePathSet) {
	sort.Slice(files, func(i, j int) bool { return files[i].Stem < files[j].Stem })
}
