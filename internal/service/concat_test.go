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

func TestConcatAudioToSingleMP3(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "01.wav")
	b := writeSource(t, dir, "02.wav")

	req := &domain.RunRequest{Concat: true}
	f.conv.Concat(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryAudio, a, b))

	require.Equal(t, 1, f.media.callCount("concatAudio"))
	assert.Equal(t, []string{a.Join(), b.Join()}, f.media.lastPaths)
	assert.FileExists(t, filepath.Join(dir, "concatenated_audio.mp3"))
}

func TestConcatMoviesToSingleMP4(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "part1.mkv")
	b := writeSource(t, dir, "part2.avi")

	req := &domain.RunRequest{Concat: true}
	f.conv.Concat(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryMovie, a, b))

	assert.Equal(t, 1, f.media.callCount("concatVideo"))
	assert.FileExists(t, filepath.Join(dir, "concatenated_video.mp4"))
}

func TestConcatImagesToGridGIF(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "a.png")
	b := writeSource(t, dir, "b.png")

	req := &domain.RunRequest{Concat: true}
	f.conv.Concat(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, a, b))

	assert.Equal(t, 1, f.images.callCount("gridGIF"))
	assert.FileExists(t, filepath.Join(dir, "concatenated_image.gif"))
}

func TestConcatPDFsStemSorted(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	// appended out of order; concat must sort by stem
	z := writeSource(t, dir, "zeta.pdf")
	a := writeSource(t, dir, "alpha.pdf")

	req := &domain.RunRequest{Concat: true}
	f.conv.Concat(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, z, a))

	require.Equal(t, 1, f.docs.callCount("mergePDFs"))
	assert.Equal(t, []string{a.Join(), z.Join()}, f.docs.mergedIn)
	assert.FileExists(t, filepath.Join(dir, "concatenated.pdf"))
}

func TestConcatSubtitlesAppendsText(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.srt")
	b := filepath.Join(dir, "b.srt")
	require.NoError(t, os.WriteFile(a, []byte("1\nfirst"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("2\nsecond"), 0644))

	req := &domain.RunRequest{Concat: true}
	f.conv.Concat(context.Background(), envFor(req, dir, dir),
		batchWith(domain.CategoryDocument, domain.NewFilePathSet(a), domain.NewFilePathSet(b)))

	data, err := os.ReadFile(filepath.Join(dir, "concatenated_subtitles.srt"))
	require.NoError(t, err)
	assert.Equal(t, "1\nfirst\n2\nsecond", string(data))
}

func TestConcatIgnoresSingletons(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	solo := writeSource(t, dir, "solo.wav")

	req := &domain.RunRequest{Concat: true}
	f.conv.Concat(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryAudio, solo))

	assert.Equal(t, 0, f.media.callCount("concatAudio"))
}

func TestConcatDeleteKeepsOnlyOutput(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "01.wav")
	b := writeSource(t, dir, "02.wav")

	req := &domain.RunRequest{Concat: true, DeleteSource: true}
	f.conv.Concat(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryAudio, a, b))

	_, err := os.Stat(a.Join())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(b.Join())
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(dir, "concatenated_audio.mp3"))
}

func TestGridRowsNearSquare(t *testing.T) {
	tests := []struct {
		name  string
		count int
		rows  []int
	}{
		{"single", 1, []int{1}},
		{"two across", 2, []int{2}},
		{"four as 2x2", 4, []int{2, 2}},
		{"five as 3+2", 5, []int{3, 2}},
		{"nine as 3x3", 9, []int{3, 3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := make([]string, tt.count)
			for i := range paths {
				paths[i] = "p"
			}
			rows := gridRows(paths)
			require.Len(t, rows, len(tt.rows))
			for i, want := range tt.rows {
				assert.Len(t, rows[i], want)
			}
		})
	}
}
