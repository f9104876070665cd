// Package office reads and writes OOXML containers (docx, pptx) directly
// through archive/zip. Only the document structure the converters need is
// modeled: paragraphs, run text, embedded media and slide placeholders.
package office

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/anyconv/internal/port"
)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ExtractMedia copies every file under the container's media folder
// (word/media or ppt/media) into outDir, returning the paths sorted by
// archive name so embed order is stable.
func (e *Engine) ExtractMedia(src, outDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer r.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var names []string
	byName := make(map[string]*zip.File)
	for _, f := range r.File {
		if isMediaEntry(f.Name) {
			names = append(names, f.Name)
			byName[f.Name] = f
		}
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		dst := filepath.Join(outDir, path.Base(name))
		if err := extractEntry(byName[name], dst); err != nil {
			return nil, err
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func isMediaEntry(name string) bool {
	return strings.HasPrefix(name, "word/media/") || strings.HasPrefix(name, "ppt/media/")
}

func extractEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// readEntry returns the raw bytes of one archive member, nil when absent.
func readEntry(r *zip.ReadCloser, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

var _ port.OfficeEngine = (*Engine)(nil)
