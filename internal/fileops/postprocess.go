package fileops

import (
	"fmt"
	"os"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
)

// PostProcess runs after a converter claims success for one file: verify
// the output is in place, optionally unlink the source, and emit the
// converted-arrow log line. The source is never removed before the output
// has been confirmed.
func PostProcess(src domain.FilePathSet, outPath string, deleteSource, showStatus bool) error {
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("output missing after conversion: %s: %w", outPath, err)
	}

	if showStatus {
		logger.Info.Printf("[+] converted %q -> %q", logger.Sanitize(src.Join()), logger.Sanitize(outPath))
	}

	if deleteSource {
		srcPath := src.Join()
		if _, err := os.Stat(srcPath); err == nil {
			if err := os.Remove(srcPath); err != nil {
				logger.Warn.Printf("[!] could not remove source %q: %v", logger.Sanitize(srcPath), err)
			} else {
				logger.Info.Printf("[-] removed %q", logger.Sanitize(srcPath))
			}
		}
	}
	return nil
}

// EnsureDir creates dir (and parents) when missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
