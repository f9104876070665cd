package office

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/anyconv/internal/port"
)

var slideEntryRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// pptx slide XML subset: shapes with a placeholder kind and paragraphs of
// run text, plus picture blips.
type pptxSlide struct {
	CSld struct {
		SpTree struct {
			Shapes []pptxShape `xml:"sp"`
			Pics   []pptxPic   `xml:"pic"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type pptxShape struct {
	NvSpPr struct {
		NvPr struct {
			Ph struct {
				Type string `xml:"type,attr"`
			} `xml:"ph"`
		} `xml:"nvPr"`
	} `xml:"nvSpPr"`
	TxBody struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"txBody"`
}

type pptxPic struct {
	BlipFill struct {
		Blip struct {
			Embed string `xml:"embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
}

// SlideContents reads every slide in deck order, returning its title
// (title/ctrTitle placeholder), body paragraphs and first picture. Media
// paths are the archive-internal names; callers pair them with
// ExtractMedia output by base name.
func (e *Engine) SlideContents(src string) ([]port.Slide, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer r.Close()

	type entry struct {
		num  int
		name string
	}
	var entries []entry
	for _, f := range r.File {
		if m := slideEntryRe.FindStringSubmatch(f.Name); m != nil {
			num, _ := strconv.Atoi(m[1])
			entries = append(entries, entry{num: num, name: f.Name})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].num < entries[j].num })

	slides := make([]port.Slide, 0, len(entries))
	for _, ent := range entries {
		raw, err := readEntry(r, ent.name)
		if err != nil {
			return nil, err
		}
		var parsed pptxSlide
		if err := xml.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ent.name, err)
		}

		var slide port.Slide
		for _, shape := range parsed.CSld.SpTree.Shapes {
			var lines []string
			for _, p := range shape.TxBody.Paragraphs {
				var line strings.Builder
				for _, run := range p.Runs {
					line.WriteString(run.Text)
				}
				if line.Len() > 0 {
					lines = append(lines, line.String())
				}
			}
			if len(lines) == 0 {
				continue
			}
			switch shape.NvSpPr.NvPr.Ph.Type {
			case "title", "ctrTitle":
				slide.Title = strings.Join(lines, " ")
			default:
				slide.Body = append(slide.Body, lines...)
			}
		}

		if len(parsed.CSld.SpTree.Pics) > 0 {
			relName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", ent.num)
			rels, err := parseRelationships(r, relName)
			if err != nil {
				return nil, err
			}
			if target, ok := rels[parsed.CSld.SpTree.Pics[0].BlipFill.Blip.Embed]; ok {
				slide.Image = path.Base(target)
			}
		}

		slides = append(slides, slide)
	}
	return slides, nil
}
