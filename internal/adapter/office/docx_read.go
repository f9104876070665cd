package office

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"html"
	"path"
	"path/filepath"
	"strings"
)

// docx XML subset: paragraphs of runs, each run carrying text, plus
// drawing blips referencing media through the relationship table.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Props struct {
		Bold   *struct{} `xml:"b"`
		Italic *struct{} `xml:"i"`
	} `xml:"rPr"`
	Texts []string   `xml:"t"`
	Blips []docxBlip `xml:"drawing>inline>graphic>graphicData>pic>blipFill>blip"`
}

type docxBlip struct {
	Embed string `xml:"embed,attr"`
}

type relationships struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// DocxToHTML reads a docx body and renders it as simple HTML: headings,
// paragraphs, bold/italic runs, and <img> tags pointing at the already
// extracted media files in imagesDir (absolute paths).
func (e *Engine) DocxToHTML(src, imagesDir string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src, err)
	}
	defer r.Close()

	raw, err := readEntry(r, "word/document.xml")
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("%s: no word/document.xml, not a docx", src)
	}

	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	rels, err := parseRelationships(r, "word/_rels/document.xml.rels")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, p := range doc.Body.Paragraphs {
		tag := "p"
		if level, ok := headingLevel(p.Props.Style.Val); ok {
			tag = fmt.Sprintf("h%d", level)
		}

		var inner strings.Builder
		for _, run := range p.Runs {
			text := html.EscapeString(strings.Join(run.Texts, ""))
			switch {
			case run.Props.Bold != nil:
				text = "<strong>" + text + "</strong>"
			case run.Props.Italic != nil:
				text = "<em>" + text + "</em>"
			}
			inner.WriteString(text)

			for _, blip := range run.Blips {
				if target, ok := rels[blip.Embed]; ok {
					img := filepath.Join(imagesDir, path.Base(target))
					fmt.Fprintf(&inner, `<img src="%s">`, html.EscapeString(img))
				}
			}
		}
		if inner.Len() == 0 {
			continue
		}
		fmt.Fprintf(&b, "<%s>%s</%s>\n", tag, inner.String(), tag)
	}
	b.WriteString("</body></html>\n")
	return b.String(), nil
}

func parseRelationships(r *zip.ReadCloser, name string) (map[string]string, error) {
	raw, err := readEntry(r, name)
	if err != nil {
		return nil, err
	}
	rels := make(map[string]string)
	if raw == nil {
		return rels, nil
	}
	var parsed relationships
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	for _, rel := range parsed.Rels {
		rels[rel.ID] = rel.Target
	}
	return rels, nil
}

func headingLevel(style string) (int, bool) {
	rest, ok := strings.CutPrefix(style, "Heading")
	if !ok || len(rest) != 1 || rest[0] < '1' || rest[0] > '6' {
		return 0, false
	}
	return int(rest[0] - '0'), true
}
