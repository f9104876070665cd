package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/anyconv/internal/domain"
)

func TestToMarkdownConvertsDocx(t *testing.T) {
	f := newFixture(t)
	f.office.html = "<h1>Title</h1><p>Body <strong>bold</strong></p>"
	dir := t.TempDir()
	doc := writeSource(t, dir, "report.docx")

	req := &domain.RunRequest{TargetFormat: "md"}
	f.conv.ToMarkdown(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, doc))

	outPath := filepath.Join(dir, "report.md")
	require.FileExists(t, outPath)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Title")
	assert.Contains(t, string(data), "**bold**")
	assert.DirExists(t, filepath.Join(dir, "report_images"))
}

func TestToMarkdownIgnoresNonDocx(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	pdf := writeSource(t, dir, "paper.pdf")

	req := &domain.RunRequest{TargetFormat: "md"}
	f.conv.ToMarkdown(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, pdf))

	assert.Equal(t, 0, f.office.callCount("docxToHTML"))
}

func TestToPDFEmbedsStill(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	img := writeSource(t, dir, "photo.png")

	req := &domain.RunRequest{TargetFormat: "pdf"}
	f.conv.ToPDF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, img))

	assert.Equal(t, 1, f.docs.callCount("imagesToPDF"))
	assert.FileExists(t, filepath.Join(dir, "photo.pdf"))
}

func TestToPDFExpandsGIFFrames(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	gif := writeSource(t, dir, "anim.gif")

	req := &domain.RunRequest{TargetFormat: "pdf"}
	f.conv.ToPDF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, gif))

	assert.Equal(t, 1, f.images.callCount("gifFrames"))
	assert.Equal(t, 1, f.docs.callCount("imagesToPDF"))
	assert.FileExists(t, filepath.Join(dir, "anim.pdf"))
}

func TestToPDFTypesetsSubtitles(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	srt := writeSource(t, dir, "movie.srt")

	req := &domain.RunRequest{TargetFormat: "pdf"}
	f.conv.ToPDF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, srt))

	assert.Equal(t, 1, f.docs.callCount("textToPDF"))
	assert.FileExists(t, filepath.Join(dir, "movie.pdf"))
}

func TestToOfficeWritesStillAsDocx(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	img := writeSource(t, dir, "photo.png")

	req := &domain.RunRequest{TargetFormat: "docx"}
	f.conv.ToOffice(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, img), "docx")

	assert.Equal(t, 1, f.office.callCount("writeDocx"))
	assert.FileExists(t, filepath.Join(dir, "photo.docx"))
}

func TestToOfficeWritesStillAsPptx(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	img := writeSource(t, dir, "photo.png")

	req := &domain.RunRequest{TargetFormat: "pptx"}
	f.conv.ToOffice(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, img), "pptx")

	assert.Equal(t, 1, f.office.callCount("writePptx"))
	assert.FileExists(t, filepath.Join(dir, "photo.pptx"))
}

func TestToOfficeSkipsAlreadyTargetExt(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	doc := writeSource(t, dir, "draft.docx")

	req := &domain.RunRequest{TargetFormat: "docx"}
	f.conv.ToOffice(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, doc), "docx")

	assert.Equal(t, 0, f.office.callCount("writeDocx"))
}

func TestToSubtitlesRetriesGenericSelector(t *testing.T) {
	f := newFixture(t)
	f.media.subsEmpty = true
	dir := t.TempDir()
	movie := writeSource(t, dir, "film.mkv")

	req := &domain.RunRequest{TargetFormat: "srt"}
	err := f.conv.ToSubtitles(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryMovie, movie))
	require.NoError(t, err)

	assert.Equal(t, 2, f.media.callCount("extractSubtitles"))
	data, err := os.ReadFile(filepath.Join(dir, "film.srt"))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestToSubtitlesAbortsWithoutTranscoder(t *testing.T) {
	f := newFixture(t)
	f.media.availErr = domain.ErrToolMissing
	dir := t.TempDir()
	movie := writeSource(t, dir, "film.mkv")

	req := &domain.RunRequest{TargetFormat: "srt"}
	err := f.conv.ToSubtitles(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryMovie, movie))
	require.ErrorIs(t, err, domain.ErrToolMissing)
}

func TestSplitPDFParsesAndDelegates(t *testing.T) {
	f := newFixture(t)
	f.docs.pages = 10
	dir := t.TempDir()
	pdf := writeSource(t, dir, "book.pdf")

	req := &domain.RunRequest{SplitRanges: "1-3,7"}
	f.conv.SplitPDF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, pdf), "1-3,7")

	assert.Equal(t, 1, f.docs.callCount("splitPDF"))
}

func TestSplitPDFOutOfRangeIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.docs.pages = 3
	dir := t.TempDir()
	pdf := writeSource(t, dir, "short.pdf")

	req := &domain.RunRequest{SplitRanges: "1-9"}
	f.conv.SplitPDF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, pdf), "1-9")

	assert.Equal(t, 0, f.docs.callCount("splitPDF"))
	rows, _ := f.history.Recent(1)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, domain.JobStatusError, rows[0].Status)
		assert.NotEmpty(t, rows[0].Error)
	}
}
