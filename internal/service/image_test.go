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

func TestToFramesReencodesStill(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "photo.png")
	req := &domain.RunRequest{TargetFormat: "jpg"}

	f.conv.ToFrames(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, src), "jpg")

	assert.Equal(t, 1, f.images.callCount("reencode"))
	assert.FileExists(t, filepath.Join(dir, "photo.jpg"))
}

func TestToFramesFallsBackToTranscoderForUnsupportedTarget(t *testing.T) {
	f := newFixture(t)
	f.images.reencErr = assert.AnError
	dir := t.TempDir()
	src := writeSource(t, dir, "photo.png")
	req := &domain.RunRequest{TargetFormat: "webp"}

	f.conv.ToFrames(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, src), "webp")

	assert.Equal(t, 1, f.images.callCount("reencode"))
	assert.Equal(t, 1, f.media.callCount("transcodeVideo"))
	assert.FileExists(t, filepath.Join(dir, "photo.webp"))
}

func TestToFramesExpandsGIFIntoFolder(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "anim.gif")
	req := &domain.RunRequest{TargetFormat: "png"}

	f.conv.ToFrames(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, src), "png")

	assert.Equal(t, 1, f.images.callCount("gifFrames"))
	assert.DirExists(t, filepath.Join(dir, "anim"))
	assert.FileExists(t, filepath.Join(dir, "anim", "anim_1.png"))
}

func TestToFramesSkipsSameExtension(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "photo.png")
	req := &domain.RunRequest{TargetFormat: "png"}

	f.conv.ToFrames(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, src), "png")

	assert.Equal(t, 0, f.images.callCount("reencode"))
}

func TestToFramesRendersPDFPages(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "paper.pdf")
	req := &domain.RunRequest{TargetFormat: "png"}

	f.conv.ToFrames(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryDocument, src), "png")

	assert.Equal(t, 1, f.docs.callCount("renderPages"))
	assert.DirExists(t, filepath.Join(dir, "paper"))
}

func TestToGIFMergesStillsWithFramerateDelay(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "a.png")
	b := writeSource(t, dir, "b.jpg")
	req := &domain.RunRequest{TargetFormat: "gif", Framerate: 5}

	f.conv.ToGIF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, a, b))

	require.Equal(t, 1, f.images.callCount("assembleGIF"))
	assert.Equal(t, []string{a.Join(), b.Join()}, f.images.gifFrames)
	assert.Equal(t, 20, f.images.gifDelay, "100/framerate hundredths per frame")
	assert.FileExists(t, filepath.Join(dir, "merged.gif"))
}

func TestToGIFDefaultDelayWithoutFramerate(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "a.png")
	b := writeSource(t, dir, "b.png")
	req := &domain.RunRequest{TargetFormat: "gif"}

	f.conv.ToGIF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, a, b))

	assert.Equal(t, 10, f.images.gifDelay)
}

func TestToGIFDeletesMergedSources(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "a.png")
	b := writeSource(t, dir, "b.png")
	req := &domain.RunRequest{TargetFormat: "gif", DeleteSource: true}

	f.conv.ToGIF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryImage, a, b))

	_, err := os.Stat(a.Join())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(b.Join())
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(dir, "merged.gif"))
}

func TestToGIFConvertsMovieAtThirdOfSourceRate(t *testing.T) {
	f := newFixture(t)
	f.media.probe = &domain.ProbeResult{Streams: []domain.ProbeStream{
		{CodecType: "video", AvgFrameRate: "30/1", Width: 640, Height: 480},
	}}
	dir := t.TempDir()
	movie := writeSource(t, dir, "clip.mp4")
	req := &domain.RunRequest{TargetFormat: "gif"}

	f.conv.ToGIF(context.Background(), envFor(req, dir, dir), batchWith(domain.CategoryMovie, movie))

	assert.Equal(t, 1, f.media.callCount("videoToGIF"))
	assert.FileExists(t, filepath.Join(dir, "clip.gif"))
}
