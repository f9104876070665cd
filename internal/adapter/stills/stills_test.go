package stills

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := imaging.New(w, h, c)
	require.NoError(t, imaging.Save(img, path))
}

func writeAnimatedGIF(t *testing.T, path string, frames int) {
	t.Helper()
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		p := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
		for x := 0; x < 8; x++ {
			p.Set(x, i%8, color.NRGBA{R: uint8(i * 20), A: 255})
		}
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, 5)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, anim))
	require.NoError(t, f.Close())
}

func TestReencode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, 10, 10, color.NRGBA{R: 200, A: 255})

	out := filepath.Join(dir, "out.bmp")
	e := NewEngine()
	require.NoError(t, e.Reencode(src, out))

	w, h, err := e.Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
}

func TestReencodeUnknownTargetFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, 4, 4, color.White)

	err := NewEngine().Reencode(src, filepath.Join(dir, "out.webp"))
	assert.Error(t, err)
}

func TestGIFFrames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anim.gif")
	writeAnimatedGIF(t, src, 12)

	framesDir := filepath.Join(dir, "frames")
	paths, err := NewEngine().GIFFrames(src, framesDir, "anim", "png")
	require.NoError(t, err)
	require.Len(t, paths, 12)

	// zero padding sized to the frame count
	assert.Equal(t, filepath.Join(framesDir, "anim_01.png"), paths[0])
	assert.Equal(t, filepath.Join(framesDir, "anim_12.png"), paths[11])
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestAssembleGIF(t *testing.T) {
	dir := t.TempDir()
	var frames []string
	for i, c := range []color.NRGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}} {
		p := filepath.Join(dir, "frame"+string(rune('a'+i))+".png")
		writePNG(t, p, 16, 12, c)
		frames = append(frames, p)
	}
	// mismatched size gets fitted to the first frame
	odd := filepath.Join(dir, "odd.png")
	writePNG(t, odd, 32, 8, color.Black)
	frames = append(frames, odd)

	out := filepath.Join(dir, "out.gif")
	require.NoError(t, NewEngine().AssembleGIF(frames, out, 8))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, anim.Image, 4)
	assert.Equal(t, 16, anim.Image[3].Bounds().Dx())
	assert.Equal(t, []int{8, 8, 8, 8}, anim.Delay)
}

func TestGridGIF(t *testing.T) {
	dir := t.TempDir()
	rows := [][]string{}
	for r := 0; r < 2; r++ {
		var row []string
		for c := 0; c < 3; c++ {
			p := filepath.Join(dir, "cell", string(rune('a'+r))+string(rune('0'+c))+".png")
			require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
			writePNG(t, p, 10, 10, color.NRGBA{R: uint8(r * 100), G: uint8(c * 80), A: 255})
			row = append(row, p)
		}
		rows = append(rows, row)
	}

	out := filepath.Join(dir, "grid.gif")
	require.NoError(t, NewEngine().GridGIF(rows, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := gif.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestAssembleGIFEmpty(t *testing.T) {
	err := NewEngine().AssembleGIF(nil, filepath.Join(t.TempDir(), "out.gif"), 10)
	assert.Error(t, err)
}
