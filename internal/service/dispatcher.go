package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/fileops"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/registry"
)

// Dispatcher routes one run request to the converter pipelines.
type Dispatcher struct {
	conv *Converter
}

func NewDispatcher(conv *Converter) *Dispatcher {
	return &Dispatcher{conv: conv}
}

// Run executes the full request sequence: worker export, input
// reconstruction, output normalization, discovery and dispatch (or the
// dropzone hand-off).
func (d *Dispatcher) Run(ctx context.Context, req *domain.RunRequest) error {
	if req.Workers > 0 {
		os.Setenv("MAX_WORKERS", strconv.Itoa(req.Workers))
	}

	inputs := fileops.ReconstructPaths(req.Inputs)
	if len(inputs) == 0 {
		return fmt.Errorf("%w: at least one input is required", domain.ErrConfig)
	}

	output, err := normalizeOutput(req, inputs)
	if err != nil {
		return err
	}

	if req.Dropzone {
		return d.watch(ctx, req, inputs[0], output)
	}

	started := time.Now().UTC()

	if req.Across {
		combined := domain.NewBatch()
		root := rootDir(inputs[0])
		for _, input := range inputs {
			if err := d.scanRoot(input, combined, req, len(inputs) == 1); err != nil {
				return err
			}
		}
		if combined.IsEmpty() {
			return d.noMedia(inputs[0], len(inputs) == 1)
		}
		if err := d.dispatch(ctx, runEnv{req: req, root: root, out: output}, combined); err != nil {
			return err
		}
	} else {
		for _, input := range inputs {
			batch := domain.NewBatch()
			if err := d.scanRoot(input, batch, req, len(inputs) == 1); err != nil {
				return err
			}
			if batch.IsEmpty() {
				if err := d.noMedia(input, len(inputs) == 1); err != nil {
					return err
				}
				continue
			}
			root := rootDir(input)
			if err := d.dispatch(ctx, runEnv{req: req, root: root, out: output}, batch); err != nil {
				return err
			}
		}
	}

	d.conv.logRunSummary(started)
	logger.Info.Printf("[✓] job finished")
	return nil
}

func (d *Dispatcher) scanRoot(input string, batch *domain.Batch, req *domain.RunRequest, single bool) error {
	err := fileops.Discover(input, batch, req.Recursive)
	if errors.Is(err, domain.ErrNotFound) && !single {
		logger.Warn.Printf("[!] %v, skipping", err)
		return nil
	}
	return err
}

func (d *Dispatcher) noMedia(input string, single bool) error {
	if single {
		return fmt.Errorf("%w in %s", domain.ErrNoMedia, input)
	}
	logger.Warn.Printf("[!] no convertible media files in %s, continuing", logger.Sanitize(input))
	return nil
}

// dispatch routes one scanned batch: explicit target formats first (a
// comma list runs one pass per format), then the merge, concat and split
// pipelines.
func (d *Dispatcher) dispatch(ctx context.Context, env runEnv, batch *domain.Batch) error {
	req := env.req

	if formats := req.Formats(); len(formats) > 0 {
		for i, format := range formats {
			passReq := *req
			// sources survive until the last pass has consumed them
			if i < len(formats)-1 {
				passReq.DeleteSource = false
			}
			passEnv := runEnv{req: &passReq, root: env.root, out: env.out}
			if err := d.dispatchFormat(ctx, passEnv, batch, format); err != nil {
				return err
			}
		}
		return nil
	}

	switch {
	case req.Merge:
		d.conv.Merge(ctx, env, batch)
	case req.Concat:
		d.conv.Concat(ctx, env, batch)
	case req.SplitRanges != "":
		d.conv.SplitPDF(ctx, env, batch, req.SplitRanges)
	default:
		return fmt.Errorf("%w: output must be one of %s",
			domain.ErrConfig, strings.Join(registry.SupportedFormats(), ", "))
	}
	return nil
}

func (d *Dispatcher) dispatchFormat(ctx context.Context, env runEnv, batch *domain.Batch, format string) error {
	category, desc, err := registry.ResolveTarget(format)
	if err != nil {
		return fmt.Errorf("%v; output must be one of %s", err, strings.Join(registry.SupportedFormats(), ", "))
	}

	switch category {
	case domain.CategoryAudio:
		d.conv.ToAudio(ctx, env, batch, format, desc.Encoder)
	case domain.CategoryMovie:
		d.conv.ToMovie(ctx, env, batch, format, desc.Encoder)
	case domain.CategoryMovieCodec:
		d.conv.ToCodec(ctx, env, batch, format, desc)
	case domain.CategoryProtocol:
		// aborted passes must not starve the remaining formats and roots
		if err := d.conv.ToProtocol(ctx, env, batch, desc.Encoder); err != nil {
			logger.Error.Printf("[✗] %s: %v", format, err)
		}
	case domain.CategoryImage:
		switch desc.Handler {
		case domain.HandlerGIF:
			d.conv.ToGIF(ctx, env, batch)
		default:
			d.conv.ToFrames(ctx, env, batch, format)
		}
	case domain.CategoryDocument:
		switch desc.Handler {
		case domain.HandlerMarkdown:
			d.conv.ToMarkdown(ctx, env, batch)
		case domain.HandlerPDF:
			d.conv.ToPDF(ctx, env, batch)
		case domain.HandlerOffice:
			d.conv.ToOffice(ctx, env, batch, format)
		case domain.HandlerSubtitles:
			if err := d.conv.ToSubtitles(ctx, env, batch); err != nil {
				logger.Error.Printf("[✗] %s: %v", format, err)
			}
		}
	}
	return nil
}

// normalizeOutput resolves the output directory: explicit flag wins, a
// single input defaults to its own directory, multiple inputs in across
// mode default to the parent of the working directory.
func normalizeOutput(req *domain.RunRequest, inputs []string) (string, error) {
	if req.Output != "" {
		return req.Output, nil
	}
	if len(inputs) == 1 {
		return rootDir(inputs[0]), nil
	}
	if req.Across {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Dir(cwd), nil
	}
	return "", fmt.Errorf("%w: --output is required with multiple inputs", domain.ErrConfig)
}

// rootDir maps an input path to its batch root: files resolve to their
// directory.
func rootDir(input string) string {
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		return filepath.Dir(input)
	}
	return input
}
