// Package pdf implements PDF reading, writing and page surgery on top of
// pdfcpu (structure-level work) and MuPDF via go-fitz (rasterization and
// text extraction).
package pdf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/port"

	"github.com/disintegration/imaging"
)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count %s: %w", path, err)
	}
	return n, nil
}

// RenderPages rasterizes every page into outDir as zero-padded
// "<stem>_<page>.<imageExt>" files, page order preserved.
func (e *Engine) RenderPages(path, outDir, stem, imageExt string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer doc.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	total := doc.NumPage()
	pad := len(fmt.Sprintf("%d", total))
	paths := make([]string, 0, total)
	for i := 0; i < total; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("render page %d of %s: %w", i+1, path, err)
		}
		out := filepath.Join(outDir, fmt.Sprintf("%s_%0*d.%s", stem, pad, i+1, strings.TrimPrefix(imageExt, ".")))
		if err := imaging.Save(img, out); err != nil {
			return nil, fmt.Errorf("save page %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func (e *Engine) PageText(path string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer doc.Close()

	texts := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("text of page %d: %w", i+1, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// ExtractImages pulls embedded images out of a PDF into outDir, returning
// the written paths sorted by name (pdfcpu names them by page and object).
func (e *Engine) ExtractImages(path, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	if err := api.ExtractImagesFile(path, outDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract images %s: %w", path, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			paths = append(paths, filepath.Join(outDir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ImagesToPDF embeds one image per page; each page is sized to its image's
// pixel dimensions.
func (e *Engine) ImagesToPDF(images []string, output string) error {
	if len(images) == 0 {
		return fmt.Errorf("no images to embed")
	}

	tmpDir, err := os.MkdirTemp("", "anyconv-pdf-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	pages := make([]string, 0, len(images))
	for i, img := range images {
		w, h, err := dimensions(img)
		if err != nil {
			return err
		}
		imp, err := api.Import(fmt.Sprintf("dim:%d %d, pos:full, scalefactor:1.0 abs", w, h), types.POINTS)
		if err != nil {
			return fmt.Errorf("import description: %w", err)
		}
		page := filepath.Join(tmpDir, fmt.Sprintf("page_%06d.pdf", i))
		if err := api.ImportImagesFile([]string{img}, page, imp, nil); err != nil {
			return fmt.Errorf("embed %s: %w", img, err)
		}
		pages = append(pages, page)
	}

	if len(pages) == 1 {
		return copyFile(pages[0], output)
	}
	if err := api.MergeCreateFile(pages, output, false, nil); err != nil {
		return fmt.Errorf("merge pages: %w", err)
	}
	return nil
}

// TextToPDF typesets plain text at 12pt, paginating by line count.
func (e *Engine) TextToPDF(text, output string) error {
	const linesPerPage = 54

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	type textBox struct {
		Value    string         `json:"value"`
		Anchor   string         `json:"anchor"`
		Dx       int            `json:"dx"`
		Dy       int            `json:"dy"`
		Font     map[string]any `json:"font"`
		Position []int          `json:"position,omitempty"`
	}
	type content struct {
		Text []textBox `json:"text"`
	}
	type page struct {
		Content content `json:"content"`
	}

	pages := map[string]page{}
	for i := 0; i*linesPerPage < len(lines); i++ {
		chunk := lines[i*linesPerPage:]
		if len(chunk) > linesPerPage {
			chunk = chunk[:linesPerPage]
		}
		pages[fmt.Sprintf("%d", i+1)] = page{Content: content{Text: []textBox{{
			Value:  strings.Join(chunk, "\n"),
			Anchor: "tl",
			Dx:     36,
			Dy:     36,
			Font:   map[string]any{"name": "Courier", "size": 12},
		}}}}
	}

	doc := map[string]any{"pages": pages}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "anyconv-text-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	if err := api.CreateFile("", tmp.Name(), output, nil); err != nil {
		return fmt.Errorf("typeset pdf: %w", err)
	}
	return nil
}

func (e *Engine) MergePDFs(inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no pdfs to merge")
	}
	if len(inputs) == 1 {
		return copyFile(inputs[0], output)
	}
	if err := api.MergeCreateFile(inputs, output, false, nil); err != nil {
		return fmt.Errorf("merge pdfs: %w", err)
	}
	return nil
}

// SplitPDF writes one PDF per span named "<stem>_split_<i>_<a-b>.pdf".
func (e *Engine) SplitPDF(path, outDir, stem string, spans []domain.PageSpan) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	outputs := make([]string, 0, len(spans))
	for i, span := range spans {
		out := filepath.Join(outDir, fmt.Sprintf("%s_split_%d_%d-%d.pdf", stem, i+1, span.First, span.Last))
		selector := []string{fmt.Sprintf("%d-%d", span.First, span.Last)}
		if err := api.TrimFile(path, out, selector, nil); err != nil {
			return nil, fmt.Errorf("split pages %d-%d: %w", span.First, span.Last, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func dimensions(path string) (int, int, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

var _ port.DocumentEngine = (*Engine)(nil)
