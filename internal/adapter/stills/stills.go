// Package stills handles image work that never needs the external
// transcoder: still re-encoding, animated gif expansion and assembly.
package stills

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/bnema/anyconv/internal/port"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Reencode decodes input and writes it in the format implied by output's
// extension. Unsupported target extensions return an error; callers route
// those through the transcoder instead.
func (e *Engine) Reencode(input, output string) error {
	img, err := imaging.Open(input, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	if err := imaging.Save(img, output); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}
	return nil
}

func (e *Engine) Dimensions(path string) (int, int, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// GIFFrames expands an animated gif into per-frame stills. Frames are
// composed over the previous canvas so partial-update gifs come out whole;
// filenames are zero-padded to the width of the frame count.
func (e *Engine) GIFFrames(input, outDir, stem, ext string) ([]string, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", input, err)
	}
	defer f.Close()

	anim, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode gif %s: %w", input, err)
	}
	if len(anim.Image) == 0 {
		return nil, fmt.Errorf("gif %s has no frames", input)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, anim.Config.Width, anim.Config.Height)
	if bounds.Empty() {
		bounds = anim.Image[0].Bounds()
	}
	canvas := image.NewNRGBA(bounds)

	pad := len(fmt.Sprintf("%d", len(anim.Image)))
	paths := make([]string, 0, len(anim.Image))
	for i, frame := range anim.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		out := filepath.Join(outDir, fmt.Sprintf("%s_%0*d.%s", stem, pad, i+1, strings.TrimPrefix(ext, ".")))
		if err := imaging.Save(imaging.Clone(canvas), out); err != nil {
			return nil, fmt.Errorf("save frame %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

// AssembleGIF builds one animated gif from stills in the given order. All
// frames are fitted to the first frame's dimensions; delay is in
// hundredths of a second per frame.
func (e *Engine) AssembleGIF(frames []string, output string, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to assemble")
	}
	if delay <= 0 {
		delay = 10
	}

	anim := &gif.GIF{}
	var bounds image.Rectangle
	for i, path := range frames {
		img, err := imaging.Open(path)
		if err != nil {
			return fmt.Errorf("open frame %s: %w", path, err)
		}
		if i == 0 {
			bounds = img.Bounds()
		} else if !img.Bounds().Eq(bounds) {
			fitted := imaging.Fit(img, bounds.Dx(), bounds.Dy(), imaging.Lanczos)
			img = imaging.PasteCenter(imaging.New(bounds.Dx(), bounds.Dy(), white), fitted)
		}
		anim.Image = append(anim.Image, quantize(img, bounds))
		anim.Delay = append(anim.Delay, delay)
	}

	return writeGIF(output, anim)
}

// GridGIF lays rows of images out as one single-frame grid gif; every cell
// is sized to the largest image.
func (e *Engine) GridGIF(rows [][]string, output string) error {
	var cellW, cellH, cols int
	images := make([][]image.Image, len(rows))
	for r, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
		for _, path := range row {
			img, err := imaging.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			images[r] = append(images[r], img)
			if w := img.Bounds().Dx(); w > cellW {
				cellW = w
			}
			if h := img.Bounds().Dy(); h > cellH {
				cellH = h
			}
		}
	}
	if cols == 0 || cellW == 0 {
		return fmt.Errorf("no images to lay out")
	}

	grid := imaging.New(cellW*cols, cellH*len(rows), white)
	for r, row := range images {
		for c, img := range row {
			grid = imaging.Paste(grid, img, image.Pt(c*cellW, r*cellH))
		}
	}

	bounds := grid.Bounds()
	anim := &gif.GIF{
		Image: []*image.Paletted{quantize(grid, bounds)},
		Delay: []int{0},
	}
	return writeGIF(output, anim)
}

func quantize(img image.Image, bounds image.Rectangle) *image.Paletted {
	p := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(p, bounds, img, img.Bounds().Min)
	return p
}

func writeGIF(output string, anim *gif.GIF) error {
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		os.Remove(output)
		return fmt.Errorf("encode gif: %w", err)
	}
	return f.Close()
}

var _ port.ImageEngine = (*Engine)(nil)
