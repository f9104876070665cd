package office

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/anyconv/internal/port"
)

// EMU per inch; OOXML measures drawings in English Metric Units.
const emuPerInch = 914400

// inline images in generated documents are laid out 7 inches tall,
// width following the source aspect ratio.
const docxImageHeightEMU = 7 * emuPerInch

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Default Extension="jpg" ContentType="image/jpeg"/>
<Default Extension="jpeg" ContentType="image/jpeg"/>
<Default Extension="gif" ContentType="image/gif"/>
<Default Extension="bmp" ContentType="image/bmp"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// WriteDocx produces a minimal but valid docx: one paragraph per block,
// text blocks as plain runs and image blocks as inline drawings.
func (e *Engine) WriteDocx(output string, blocks []port.DocBlock) error {
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	w := zip.NewWriter(f)

	fail := func(err error) error {
		w.Close()
		f.Close()
		os.Remove(output)
		return err
	}

	if err := addEntry(w, "[Content_Types].xml", docxContentTypes); err != nil {
		return fail(err)
	}
	if err := addEntry(w, "_rels/.rels", docxRootRels); err != nil {
		return fail(err)
	}

	var body strings.Builder
	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + "\n")

	imageIdx := 0
	for _, block := range blocks {
		switch {
		case block.Image != "":
			imageIdx++
			relID := fmt.Sprintf("rId%d", imageIdx)
			mediaName := fmt.Sprintf("media/image%d%s", imageIdx, strings.ToLower(filepath.Ext(block.Image)))

			if err := addFileEntry(w, "word/"+mediaName, block.Image); err != nil {
				return fail(err)
			}
			fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`+"\n", relID, mediaName)

			widthEMU, heightEMU := scaleToHeight(block.Image, docxImageHeightEMU)
			body.WriteString(docxImageParagraph(relID, imageIdx, widthEMU, heightEMU))
		case block.Text != "":
			fmt.Fprintf(&body, "<w:p><w:r><w:t xml:space=\"preserve\">%s</w:t></w:r></w:p>\n", xmlEscape(block.Text))
		}
	}
	rels.WriteString("</Relationships>\n")

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
 xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
 xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
 xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
 xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">
<w:body>
` + body.String() + `</w:body>
</w:document>`

	if err := addEntry(w, "word/document.xml", document); err != nil {
		return fail(err)
	}
	if err := addEntry(w, "word/_rels/document.xml.rels", rels.String()); err != nil {
		return fail(err)
	}

	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(output)
		return fmt.Errorf("finalize %s: %w", output, err)
	}
	return f.Close()
}

func docxImageParagraph(relID string, idx, widthEMU, heightEMU int) string {
	return fmt.Sprintf(`<w:p><w:r><w:drawing>
<wp:inline><wp:extent cx="%d" cy="%d"/>
<wp:docPr id="%d" name="image%d"/>
<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">
<pic:pic>
<pic:nvPicPr><pic:cNvPr id="%d" name="image%d"/><pic:cNvPicPr/></pic:nvPicPr>
<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>
<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>
<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>
</pic:pic>
</a:graphicData></a:graphic></wp:inline>
</w:drawing></w:r></w:p>
`, widthEMU, heightEMU, idx, idx, idx, idx, relID, widthEMU, heightEMU)
}

// scaleToHeight returns EMU dimensions at the given height, keeping the
// source aspect ratio. Undecodable images fall back to 4:3.
func scaleToHeight(imgPath string, heightEMU int) (int, int) {
	ratio := 4.0 / 3.0
	if f, err := os.Open(imgPath); err == nil {
		if cfg, _, err := image.DecodeConfig(f); err == nil && cfg.Height > 0 {
			ratio = float64(cfg.Width) / float64(cfg.Height)
		}
		f.Close()
	}
	return int(float64(heightEMU) * ratio), heightEMU
}

func addEntry(w *zip.Writer, name, content string) error {
	entry, err := w.Create(name)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := entry.Write([]byte(content)); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func addFileEntry(w *zip.Writer, name, src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	entry, err := w.Create(name)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
