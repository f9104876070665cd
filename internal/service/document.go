package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/port"
)

// ToMarkdown converts docx inputs to markdown. Embedded images land in a
// sibling "<stem>_images/" directory and are referenced by absolute path.
func (c *Converter) ToMarkdown(ctx context.Context, env runEnv, batch *domain.Batch) {
	converter := md.NewConverter("", true, nil)

	var tasks []task
	for _, src := range batch.Files(domain.CategoryDocument) {
		if src.Ext != "docx" {
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryDocument,
			format:   "md",
			run: func(ctx context.Context, jobID string) (string, error) {
				outDir := env.outDirFor(src)
				imagesDir := filepath.Join(outDir, src.Stem+"_images")
				if _, err := c.office.ExtractMedia(src.Join(), imagesDir); err != nil {
					return "", err
				}

				html, err := c.office.DocxToHTML(src.Join(), imagesDir)
				if err != nil {
					return "", err
				}
				markdown, err := converter.ConvertString(html)
				if err != nil {
					return "", fmt.Errorf("markdown conversion: %w", err)
				}

				outPath, err := prepareOutput(outDir, src.Stem, "md")
				if err != nil {
					return "", err
				}
				if err := os.WriteFile(outPath, []byte(markdown), 0644); err != nil {
					return "", err
				}
				return outPath, nil
			},
		})
	}
	c.runPool(ctx, env, tasks)
}

// ToPDF embeds stills one per page, expands gifs and rasterizes movies
// into multi-page PDFs, and typesets subtitles as plain text.
func (c *Converter) ToPDF(ctx context.Context, env runEnv, batch *domain.Batch) {
	var tasks []task

	for _, src := range batch.Files(domain.CategoryImage) {
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryImage,
			format:   "pdf",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, "pdf")
				if err != nil {
					return "", err
				}

				if src.Ext == "gif" {
					stagingDir, err := os.MkdirTemp("", "anyconv-gif-*")
					if err != nil {
						return "", err
					}
					defer os.RemoveAll(stagingDir)
					frames, err := c.images.GIFFrames(src.Join(), stagingDir, src.Stem, "png")
					if err != nil {
						return "", err
					}
					if err := c.docs.ImagesToPDF(frames, outPath); err != nil {
						return "", err
					}
					return outPath, nil
				}

				if err := c.docs.ImagesToPDF([]string{src.Join()}, outPath); err != nil {
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
			format:   "pdf",
			run: func(ctx context.Context, jobID string) (string, error) {
				stagingDir, err := os.MkdirTemp("", "anyconv-frames-*")
				if err != nil {
					return "", err
				}
				defer os.RemoveAll(stagingDir)

				pattern := filepath.Join(stagingDir, src.Stem+"_%06d.png")
				if err := c.media.VideoToFrames(ctx, jobID, src.Join(), pattern, 0); err != nil {
					return "", err
				}
				frames, err := sortedFiles(stagingDir)
				if err != nil {
					return "", err
				}
				if len(frames) == 0 {
					return "", fmt.Errorf("%s produced no frames", src.Join())
				}

				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, "pdf")
				if err != nil {
					return "", err
				}
				if err := c.docs.ImagesToPDF(frames, outPath); err != nil {
					return "", err
				}
				return outPath, nil
			},
		})
	}

	for _, src := range batch.Files(domain.CategoryDocument) {
		if src.Ext != "srt" {
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryDocument,
			format:   "pdf",
			run: func(ctx context.Context, jobID string) (string, error) {
				text, err := os.ReadFile(src.Join())
				if err != nil {
					return "", err
				}
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, "pdf")
				if err != nil {
					return "", err
				}
				if err := c.docs.TextToPDF(string(text), outPath); err != nil {
					return "", err
				}
				return outPath, nil
			},
		})
	}

	c.runPool(ctx, env, tasks)
}

// ToOffice writes docx or pptx: stills become single-page documents,
// movies per-frame slideshows, pptx decks convert to docx with slide text
// preserved, and PDFs to docx page by page.
func (c *Converter) ToOffice(ctx context.Context, env runEnv, batch *domain.Batch, target string) {
	var tasks []task

	for _, src := range batch.Files(domain.CategoryImage) {
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryImage,
			format:   target,
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, target)
				if err != nil {
					return "", err
				}
				if err := c.writeOffice(target, outPath, []string{src.Join()}, nil); err != nil {
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
				stagingDir, err := os.MkdirTemp("", "anyconv-frames-*")
				if err != nil {
					return "", err
				}
				defer os.RemoveAll(stagingDir)

				pattern := filepath.Join(stagingDir, src.Stem+"_%06d.png")
				if err := c.media.VideoToFrames(ctx, jobID, src.Join(), pattern, 0); err != nil {
					return "", err
				}
				frames, err := sortedFiles(stagingDir)
				if err != nil {
					return "", err
				}

				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, target)
				if err != nil {
					return "", err
				}
				if err := c.writeOffice(target, outPath, frames, nil); err != nil {
					return "", err
				}
				return outPath, nil
			},
		})
	}

	for _, src := range batch.Files(domain.CategoryDocument) {
		src := src
		switch {
		case src.Ext == "pptx" && target == "docx":
			tasks = append(tasks, task{
				src:      src,
				category: domain.CategoryDocument,
				format:   target,
				run: func(ctx context.Context, jobID string) (string, error) {
					return c.pptxToDocx(env, src)
				},
			})
		case src.Ext == "pdf" && target == "docx":
			tasks = append(tasks, task{
				src:      src,
				category: domain.CategoryDocument,
				format:   target,
				run: func(ctx context.Context, jobID string) (string, error) {
					return c.pdfToDocx(env, src)
				},
			})
		case src.Ext == target:
			logger.Info.Printf("[=] %s.%s already %s, skipping", logger.Sanitize(src.Stem), src.Ext, target)
		}
	}

	c.runPool(ctx, env, tasks)
}

func (c *Converter) writeOffice(target, outPath string, images []string, texts []string) error {
	if target == "pptx" {
		slides := make([]port.Slide, 0, len(images)+len(texts))
		for _, img := range images {
			slides = append(slides, port.Slide{Image: img})
		}
		for _, text := range texts {
			slides = append(slides, port.Slide{Body: []string{text}})
		}
		return c.office.WritePptx(outPath, slides)
	}

	blocks := make([]port.DocBlock, 0, len(images)+len(texts))
	for _, text := range texts {
		blocks = append(blocks, port.DocBlock{Text: text})
	}
	for _, img := range images {
		blocks = append(blocks, port.DocBlock{Image: img})
	}
	return c.office.WriteDocx(outPath, blocks)
}

// pptxToDocx keeps slide titles and body text, inlining each slide's
// picture after its text.
func (c *Converter) pptxToDocx(env runEnv, src domain.FilePathSet) (string, error) {
	slides, err := c.office.SlideContents(src.Join())
	if err != nil {
		return "", err
	}

	stagingDir, err := os.MkdirTemp("", "anyconv-pptx-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stagingDir)
	media, err := c.office.ExtractMedia(src.Join(), stagingDir)
	if err != nil {
		return "", err
	}
	byBase := make(map[string]string, len(media))
	for _, m := range media {
		byBase[filepath.Base(m)] = m
	}

	var blocks []port.DocBlock
	for _, slide := range slides {
		if slide.Title != "" {
			blocks = append(blocks, port.DocBlock{Text: slide.Title})
		}
		for _, line := range slide.Body {
			blocks = append(blocks, port.DocBlock{Text: line})
		}
		if path, ok := byBase[slide.Image]; ok && slide.Image != "" {
			blocks = append(blocks, port.DocBlock{Image: path})
		}
	}

	outPath, err := prepareOutput(env.outDirFor(src), src.Stem, "docx")
	if err != nil {
		return "", err
	}
	if err := c.office.WriteDocx(outPath, blocks); err != nil {
		return "", err
	}
	return outPath, nil
}

// pdfToDocx carries page text over paragraph by paragraph, then appends
// the document's embedded images.
func (c *Converter) pdfToDocx(env runEnv, src domain.FilePathSet) (string, error) {
	pages, err := c.docs.PageText(src.Join())
	if err != nil {
		return "", err
	}

	stagingDir, err := os.MkdirTemp("", "anyconv-pdf-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stagingDir)
	images, err := c.docs.ExtractImages(src.Join(), stagingDir)
	if err != nil {
		logger.Warn.Printf("[!] image extraction from %s.pdf: %v", logger.Sanitize(src.Stem), err)
		images = nil
	}

	var blocks []port.DocBlock
	for _, page := range pages {
		for _, para := range strings.Split(page, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				blocks = append(blocks, port.DocBlock{Text: para})
			}
		}
	}
	for _, img := range images {
		blocks = append(blocks, port.DocBlock{Image: img})
	}

	outPath, err := prepareOutput(env.outDirFor(src), src.Stem, "docx")
	if err != nil {
		return "", err
	}
	if err := c.office.WriteDocx(outPath, blocks); err != nil {
		return "", err
	}
	return outPath, nil
}

// ToSubtitles extracts the first subtitle stream of each movie as SRT. An
// empty output triggers one retry with the generic codec selector. A
// missing transcoder aborts the operation for the whole batch.
func (c *Converter) ToSubtitles(ctx context.Context, env runEnv, batch *domain.Batch) error {
	if err := c.media.Available(); err != nil {
		return fmt.Errorf("subtitle extraction needs the external transcoder: %w", err)
	}

	var tasks []task
	for _, src := range batch.Files(domain.CategoryMovie) {
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryMovie,
			format:   "srt",
			run: func(ctx context.Context, jobID string) (string, error) {
				outPath, err := prepareOutput(env.outDirFor(src), src.Stem, "srt")
				if err != nil {
					return "", err
				}

				if err := c.media.ExtractSubtitles(ctx, jobID, src.Join(), outPath, false); err != nil {
					os.Remove(outPath)
					return "", err
				}
				if info, err := os.Stat(outPath); err != nil || info.Size() == 0 {
					logger.Warn.Printf("[!] empty subtitle output for %s.%s, retrying with generic selector",
						logger.Sanitize(src.Stem), src.Ext)
					if err := c.media.ExtractSubtitles(ctx, jobID, src.Join(), outPath, true); err != nil {
						os.Remove(outPath)
						return "", err
					}
				}
				return outPath, nil
			},
		})
	}
	c.runPool(ctx, env, tasks)
	return nil
}

// SplitPDF splits each PDF in the batch along the parsed page ranges,
// writing "<stem>_split_<i>_<a-b>.pdf" siblings.
func (c *Converter) SplitPDF(ctx context.Context, env runEnv, batch *domain.Batch, expr string) {
	var tasks []task
	for _, src := range batch.Files(domain.CategoryDocument) {
		if src.Ext != "pdf" {
			continue
		}
		src := src
		tasks = append(tasks, task{
			src:      src,
			category: domain.CategoryDocument,
			format:   "pdf",
			run: func(ctx context.Context, jobID string) (string, error) {
				total, err := c.docs.PageCount(src.Join())
				if err != nil {
					return "", err
				}
				spans, err := domain.ParsePageRanges(expr, total)
				if err != nil {
					return "", err
				}
				if spans == nil {
					return "", nil
				}

				outDir := env.outDirFor(src)
				if _, err := c.docs.SplitPDF(src.Join(), outDir, src.Stem, spans); err != nil {
					return "", err
				}
				return outDir, nil
			},
		})
	}
	c.runPool(ctx, env, tasks)
}

func sortedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
