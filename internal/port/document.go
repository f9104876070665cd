package port

import "github.com/bnema/anyconv/internal/domain"

// DocumentEngine covers PDF reading, writing and page surgery.
type DocumentEngine interface {
	PageCount(path string) (int, error)
	// RenderPages rasterizes every page into outDir as
	// "<stem>_<page>.<imageExt>" with zero-padded page numbers, returning
	// the written paths in page order.
	RenderPages(path, outDir, stem, imageExt string) ([]string, error)
	PageText(path string) ([]string, error)
	ExtractImages(path, outDir string) ([]string, error)
	ImagesToPDF(images []string, output string) error
	TextToPDF(text, output string) error
	MergePDFs(inputs []string, output string) error
	SplitPDF(path, outDir, stem string, spans []domain.PageSpan) ([]string, error)
}

// DocBlock is one flow element of a word-processing document: either a
// paragraph of text or an inline image, never both.
type DocBlock struct {
	Text  string
	Image string
}

// Slide is one presentation slide.
type Slide struct {
	Title string
	Body  []string
	Image string
}

// OfficeEngine reads and writes OOXML containers (docx, pptx).
type OfficeEngine interface {
	DocxToHTML(path, imagesDir string) (string, error)
	ExtractMedia(path, outDir string) ([]string, error)
	SlideContents(path string) ([]Slide, error)
	WriteDocx(output string, blocks []DocBlock) error
	WritePptx(output string, slides []Slide) error
}
