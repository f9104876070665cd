package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
)

// watch runs the dropzone loop: every file created or modified under dir
// is dispatched as its own single-file request. The loop survives handler
// failures and stops cleanly on context cancellation.
func (d *Dispatcher) watch(ctx context.Context, req *domain.RunRequest, dir, output string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: dropzone %s is not a directory", domain.ErrConfig, dir)
	}
	if isParentOf(dir, output) {
		return fmt.Errorf("%w: dropzone %s contains the output %s (feedback loop)",
			domain.ErrConfig, dir, output)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info.Printf("[>] dropzone active on %s", logger.Sanitize(dir))

	for {
		select {
		case <-ctx.Done():
			logger.Info.Printf("[✓] dropzone stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			d.handleDrop(ctx, req, event.Name, output)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error.Printf("[!] watcher: %v", err)
		}
	}
}

// handleDrop dispatches one dropped file with the outer request's
// parameters. A panic in the pipeline must not stop the watcher.
func (d *Dispatcher) handleDrop(ctx context.Context, outer *domain.RunRequest, path, output string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error.Printf("[!] dropzone handler panicked on %s: %v", logger.Sanitize(path), r)
		}
	}()

	sub := *outer
	sub.Inputs = []string{path}
	sub.Output = output
	sub.DeleteSource = true
	sub.Recursive = true
	sub.Dropzone = false

	if err := d.Run(ctx, &sub); err != nil {
		logger.Error.Printf("[!] dropzone conversion of %s: %v", logger.Sanitize(path), err)
	}
}

// isParentOf reports whether dir is child's ancestor (or the same path).
func isParentOf(dir, child string) bool {
	rel, err := filepath.Rel(dir, child)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
