package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/port"
)

// fakeMedia stands in for the external transcoder. Each operation appends
// its name to calls and writes a placeholder output file unless an error
// is scripted for it.
type fakeMedia struct {
	mu    sync.Mutex
	calls []string

	availErr   error
	probe      *domain.ProbeResult
	probeErr   error
	visuals    map[string]bool
	visErr     error
	audioErrs  []error // consumed per TranscodeAudio call
	extractErr error
	videoErrs  []error // consumed per TranscodeVideo call
	subsEmpty  bool    // first-pass subtitle extraction yields an empty file

	audioOpts []port.AudioOptions
	lastMerge [3]string // video, audio, output
	lastPaths []string  // stills or concat inputs
}

func (f *fakeMedia) logCall(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeMedia) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return countOps(f.calls, op)
}

func countOps(calls []string, op string) int {
	n := 0
	for _, c := range calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeMedia) popErr(queue *[]error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func placeholder(path string) error {
	return os.WriteFile(path, []byte("out"), 0644)
}

func (f *fakeMedia) Available() error { return f.availErr }

func (f *fakeMedia) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	f.logCall("probe")
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	if f.probe != nil {
		return f.probe, nil
	}
	return &domain.ProbeResult{}, nil
}

func (f *fakeMedia) HasVisuals(ctx context.Context, path string) (bool, error) {
	f.logCall("visuals")
	if f.visErr != nil {
		return false, f.visErr
	}
	return f.visuals[path], nil
}

func (f *fakeMedia) TranscodeAudio(ctx context.Context, jobID, input, output string, opts port.AudioOptions) error {
	f.logCall("transcodeAudio")
	f.mu.Lock()
	f.audioOpts = append(f.audioOpts, opts)
	f.mu.Unlock()
	if err := f.popErr(&f.audioErrs); err != nil {
		return err
	}
	return placeholder(output)
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, jobID, input, output string, opts port.AudioOptions) error {
	f.logCall("extractAudio")
	if f.extractErr != nil {
		return f.extractErr
	}
	return placeholder(output)
}

func (f *fakeMedia) TranscodeVideo(ctx context.Context, jobID, input, output string, opts port.VideoOptions) error {
	f.logCall("transcodeVideo")
	if err := f.popErr(&f.videoErrs); err != nil {
		return err
	}
	return placeholder(output)
}

func (f *fakeMedia) AudioToPlaceholderVideo(ctx context.Context, jobID, input, output string, opts port.VideoOptions) error {
	f.logCall("placeholderVideo")
	return placeholder(output)
}

func (f *fakeMedia) StillsToVideo(ctx context.Context, jobID string, stills []string, output string, framerate int) error {
	f.logCall("stillsToVideo")
	f.mu.Lock()
	f.lastPaths = append([]string(nil), stills...)
	f.mu.Unlock()
	return placeholder(output)
}

func (f *fakeMedia) VideoToFrames(ctx context.Context, jobID, input, outPattern string, fps float64) error {
	f.logCall("videoToFrames")
	return nil
}

func (f *fakeMedia) VideoToGIF(ctx context.Context, jobID, input, output string, fps float64) error {
	f.logCall("videoToGIF")
	return placeholder(output)
}

func (f *fakeMedia) ExtractSubtitles(ctx context.Context, jobID, input, output string, generic bool) error {
	f.logCall("extractSubtitles")
	if f.subsEmpty && !generic {
		return os.WriteFile(output, nil, 0644)
	}
	return placeholder(output)
}

func (f *fakeMedia) HLS(ctx context.Context, jobID, input, outDir string, ladder []domain.Rendition) error {
	f.logCall("hls")
	return os.MkdirAll(outDir, 0755)
}

func (f *fakeMedia) DASH(ctx context.Context, jobID, input, outDir string) error {
	f.logCall("dash")
	return os.MkdirAll(outDir, 0755)
}

func (f *fakeMedia) ConcatAudio(ctx context.Context, jobID string, inputs []string, output string, opts port.AudioOptions) error {
	f.logCall("concatAudio")
	f.mu.Lock()
	f.lastPaths = append([]string(nil), inputs...)
	f.mu.Unlock()
	return placeholder(output)
}

func (f *fakeMedia) ConcatVideo(ctx context.Context, jobID string, inputs []string, output string) error {
	f.logCall("concatVideo")
	f.mu.Lock()
	f.lastPaths = append([]string(nil), inputs...)
	f.mu.Unlock()
	return placeholder(output)
}

func (f *fakeMedia) MergeAudioVideo(ctx context.Context, jobID, video, audio, output string) error {
	f.logCall("merge")
	f.mu.Lock()
	f.lastMerge = [3]string{video, audio, output}
	f.mu.Unlock()
	return placeholder(output)
}

type fakeImages struct {
	mu        sync.Mutex
	calls     []string
	gifDelay  int
	gifFrames []string
	reencErr  error
}

func (f *fakeImages) logCall(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeImages) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return countOps(f.calls, op)
}

func (f *fakeImages) Reencode(input, output string) error {
	f.logCall("reencode")
	if f.reencErr != nil {
		return f.reencErr
	}
	return placeholder(output)
}

func (f *fakeImages) Dimensions(path string) (int, int, error) {
	return 2, 2, nil
}

func (f *fakeImages) GIFFrames(input, outDir, stem, ext string) ([]string, error) {
	f.logCall("gifFrames")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	frame := filepath.Join(outDir, stem+"_1."+ext)
	return []string{frame}, placeholder(frame)
}

func (f *fakeImages) AssembleGIF(frames []string, output string, delay int) error {
	f.logCall("assembleGIF")
	f.mu.Lock()
	f.gifFrames = append([]string(nil), frames...)
	f.gifDelay = delay
	f.mu.Unlock()
	return placeholder(output)
}

func (f *fakeImages) GridGIF(rows [][]string, output string) error {
	f.logCall("gridGIF")
	return placeholder(output)
}

type fakeDocs struct {
	mu        sync.Mutex
	calls     []string
	pages     int
	mergedIn  []string
	renderErr error
}

func (f *fakeDocs) logCall(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeDocs) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return countOps(f.calls, op)
}

func (f *fakeDocs) PageCount(path string) (int, error) { return f.pages, nil }

func (f *fakeDocs) RenderPages(path, outDir, stem, imageExt string) ([]string, error) {
	f.logCall("renderPages")
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	page := filepath.Join(outDir, stem+"_1."+imageExt)
	return []string{page}, placeholder(page)
}

func (f *fakeDocs) PageText(path string) ([]string, error) { return []string{"text"}, nil }

func (f *fakeDocs) ExtractImages(path, outDir string) ([]string, error) { return nil, nil }

func (f *fakeDocs) ImagesToPDF(images []string, output string) error {
	f.logCall("imagesToPDF")
	return placeholder(output)
}

func (f *fakeDocs) TextToPDF(text, output string) error {
	f.logCall("textToPDF")
	return placeholder(output)
}

func (f *fakeDocs) MergePDFs(inputs []string, output string) error {
	f.logCall("mergePDFs")
	f.mu.Lock()
	f.mergedIn = append([]string(nil), inputs...)
	f.mu.Unlock()
	return placeholder(output)
}

func (f *fakeDocs) SplitPDF(path, outDir, stem string, spans []domain.PageSpan) ([]string, error) {
	f.logCall("splitPDF")
	return nil, nil
}

type fakeOffice struct {
	mu    sync.Mutex
	calls []string
	html  string
	media []string
}

func (f *fakeOffice) logCall(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeOffice) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return countOps(f.calls, op)
}

func (f *fakeOffice) DocxToHTML(path, imagesDir string) (string, error) {
	f.logCall("docxToHTML")
	return f.html, nil
}

func (f *fakeOffice) ExtractMedia(path, outDir string) ([]string, error) {
	f.logCall("extractMedia")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	var out []string
	for _, name := range f.media {
		p := filepath.Join(outDir, name)
		if err := placeholder(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeOffice) SlideContents(path string) ([]port.Slide, error) { return nil, nil }

func (f *fakeOffice) WriteDocx(output string, blocks []port.DocBlock) error {
	f.logCall("writeDocx")
	return placeholder(output)
}

func (f *fakeOffice) WritePptx(output string, slides []port.Slide) error {
	f.logCall("writePptx")
	return placeholder(output)
}

// memHistory records conversions in memory.
type memHistory struct {
	mu   sync.Mutex
	rows []domain.Conversion
}

func (h *memHistory) Record(c *domain.Conversion) error {
	h.mu.Lock()
	h.rows = append(h.rows, *c)
	h.mu.Unlock()
	return nil
}

func (h *memHistory) Recent(n int) ([]domain.Conversion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.rows) {
		n = len(h.rows)
	}
	out := make([]domain.Conversion, 0, n)
	for i := len(h.rows) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.rows[i])
	}
	return out, nil
}

func (h *memHistory) Close() error { return nil }

// nopSink satisfies the progress port without side effects.
type nopSink struct{}

func (nopSink) Start(jobID, description string, total int64) {}
func (nopSink) Set(jobID string, current, total int64)       {}
func (nopSink) Done(jobID string)                            {}
func (nopSink) Error(jobID string, err error)                {}

// fixture wires a converter over fakes, with a fresh history.
type fixture struct {
	media   *fakeMedia
	images  *fakeImages
	docs    *fakeDocs
	office  *fakeOffice
	history *memHistory
	conv    *Converter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("MAX_WORKERS", "1")
	f := &fixture{
		media:   &fakeMedia{visuals: map[string]bool{}},
		images:  &fakeImages{},
		docs:    &fakeDocs{pages: 1},
		office:  &fakeOffice{},
		history: &memHistory{},
	}
	f.conv = NewConverter(f.media, f.images, f.docs, f.office, nopSink{}, f.history)
	return f
}

func writeSource(t *testing.T, dir, name string) domain.FilePathSet {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("src"), 0644))
	return domain.NewFilePathSet(path)
}

func batchWith(cat domain.Category, files ...domain.FilePathSet) *domain.Batch {
	b := domain.NewBatch()
	for _, f := range files {
		b.Append(cat, f)
	}
	return b
}

func envFor(req *domain.RunRequest, root, out string) runEnv {
	return runEnv{req: req, root: root, out: out}
}
