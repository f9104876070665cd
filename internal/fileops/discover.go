// Package fileops implements path handling around conversions: input
// discovery, reconstruction of space-split shell arguments, output-name
// conflict resolution and post-process bookkeeping.
package fileops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/registry"
)

// ReconstructPaths rejoins input arguments that a shell split on spaces.
// Arguments are scanned left to right; each starts a new path, but when an
// argument's own path does not exist, it tentatively extends the previous
// path (with a space) and the cumulative concatenation is retested, so a
// path split into three or more pieces still reassembles. Args that never
// complete an existing path fall back to their own entries. Best effort:
// when several reconstructions exist, the first accepted extension wins.
func ReconstructPaths(args []string) []string {
	var paths []string
	var pending []string // args tentatively extending paths[len(paths)-1]
	flush := func() {
		paths = append(paths, pending...)
		pending = nil
	}
	for _, arg := range args {
		if len(paths) > 0 {
			if _, err := os.Stat(arg); err != nil {
				joined := paths[len(paths)-1]
				for _, p := range pending {
					joined += " " + p
				}
				joined += " " + arg
				if _, err := os.Stat(joined); err == nil {
					paths[len(paths)-1] = joined
					pending = nil
				} else {
					pending = append(pending, arg)
				}
				continue
			}
		}
		flush()
		paths = append(paths, arg)
	}
	flush()
	return paths
}

// Discover classifies path (a file or directory) into batch. Unknown
// extensions are logged and skipped; a missing directory is ErrNotFound.
func Discover(path string, batch *domain.Batch, recursive bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}

	logger.Info.Printf("[>] scanning: %s", logger.Sanitize(path))

	if !info.IsDir() {
		schedule(path, batch)
		return nil
	}

	if recursive {
		return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				schedule(p, batch)
			}
			return nil
		})
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", path, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		schedule(filepath.Join(path, entry.Name()), batch)
	}
	return nil
}

func schedule(path string, batch *domain.Batch) {
	fps := domain.NewFilePathSet(path)
	cat, ok := registry.Classify(fps.Ext)
	if !ok {
		logger.Warn.Printf("[!] skipping %s.%s - unsupported format",
			logger.Sanitize(fps.Stem), logger.Sanitize(fps.Ext))
		return
	}
	batch.Append(cat, fps)
	logger.Info.Printf("[+] scheduling: %s.%s", logger.Sanitize(fps.Stem), fps.Ext)
}
