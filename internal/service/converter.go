// Package service holds the conversion pipelines: the per-category
// converters, the dispatcher that routes a run request to them, the batch
// worker pool and the dropzone watcher.
package service

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/fileops"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
	"github.com/bnema/anyconv/internal/metadata"
	"github.com/bnema/anyconv/internal/port"
)

// Converter drives one category conversion at a time against the external
// engines. It is reused across dispatches; all per-run state travels in
// runEnv.
type Converter struct {
	media   port.MediaEngine
	images  port.ImageEngine
	docs    port.DocumentEngine
	office  port.OfficeEngine
	sink    port.ProgressSink
	history port.History // nil disables persistence
}

func NewConverter(
	media port.MediaEngine,
	images port.ImageEngine,
	docs port.DocumentEngine,
	office port.OfficeEngine,
	sink port.ProgressSink,
	history port.History,
) *Converter {
	return &Converter{
		media:   media,
		images:  images,
		docs:    docs,
		office:  office,
		sink:    sink,
		history: history,
	}
}

// runEnv is the per-dispatch context: the originating request, the input
// root being processed and the resolved output directory.
type runEnv struct {
	req  *domain.RunRequest
	root string
	out  string
}

// outDirFor picks the output directory for one source file: recursive runs
// whose output equals the input root write beside the source, everything
// else goes to the configured output.
func (env runEnv) outDirFor(src domain.FilePathSet) string {
	if env.req.Recursive && filepath.Clean(env.out) == filepath.Clean(env.root) {
		return src.Dir
	}
	return env.out
}

func newJobID() string {
	return uuid.NewString()
}

// poolSize reads MAX_WORKERS from the environment, clamped to
// [1, NumCPU-1]. Empty or malformed values fall back to 1.
func poolSize() int {
	w := 1
	if raw := os.Getenv("MAX_WORKERS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			w = parsed
		}
	}
	if max := runtime.NumCPU() - 1; max >= 1 && w > max {
		w = max
	}
	return w
}

// finish runs after a task claims success: extract source metadata, verify
// the output, delete the source if asked, write the sidecar and record
// history. Extraction happens before PostProcess so the file tags survive
// a --delete run. Failures past the output check only warn; the conversion
// already succeeded.
func (c *Converter) finish(env runEnv, src domain.FilePathSet, category domain.Category, outPath, format string) error {
	sc := metadata.Extract(src, category)
	if len(env.req.CustomTags) > 0 {
		sc.CustomTags = env.req.CustomTags
	}
	if category == domain.CategoryDocument {
		if pages, err := c.docs.PageCount(src.Join()); err == nil {
			metadata.DocumentTags(sc, pages)
		}
	}

	if err := fileops.PostProcess(src, outPath, env.req.DeleteSource, true); err != nil {
		return err
	}

	outStem := domain.NewFilePathSet(outPath).Stem
	if _, err := metadata.Write(filepath.Dir(outPath), outStem, sc); err != nil {
		logger.Warn.Printf("[!] metadata sidecar: %v", err)
	}
	if err := metadata.ApplyID3(outPath, sc.Tags); err != nil {
		logger.Warn.Printf("[!] id3 tags: %v", err)
	}

	c.record(src, outPath, format, domain.JobStatusDone, "")
	return nil
}

func (c *Converter) record(src domain.FilePathSet, outPath, format string, status domain.JobStatus, errMsg string) {
	if c.history == nil {
		return
	}
	err := c.history.Record(&domain.Conversion{
		Source:    src.Join(),
		Output:    outPath,
		Format:    format,
		Status:    status,
		Error:     errMsg,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Warn.Printf("[!] history: %v", err)
	}
}

// logRunSummary digests the conversions recorded since the run started
// into one closing log line.
func (c *Converter) logRunSummary(since time.Time) {
	if c.history == nil {
		return
	}
	rows, err := c.history.Recent(100)
	if err != nil {
		return
	}
	done, failed := 0, 0
	for _, r := range rows {
		if r.CreatedAt.Before(since) {
			continue
		}
		if r.Status == domain.JobStatusError {
			failed++
		} else {
			done++
		}
	}
	if done+failed > 0 {
		logger.Info.Printf("[✓] %d converted, %d failed", done, failed)
	}
}

// prepareOutput resolves name conflicts and makes sure the directory
// exists before the encoder writes.
func prepareOutput(dir, stem, ext string) (string, error) {
	if err := fileops.EnsureDir(dir); err != nil {
		return "", err
	}
	return fileops.ResolveConflict(filepath.Join(dir, stem+"."+ext)), nil
}
