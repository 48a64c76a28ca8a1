// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader turns a PDF on disk into the ordered sequence of structural
// elements the rest of the pipeline works on. Parser types never leave this
// package: everything past Load sees only types.StructuralElement.
package loader

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// Loader parses one PDF.
type Loader interface {
	Load(ctx context.Context, path string) (*Document, error)
}

// Document is the parsed form of one PDF.
type Document struct {
	Path     string
	Title    string
	Pages    int
	Elements []types.StructuralElement
}

// Count returns how many elements of kind the document holds.
func (d *Document) Count(kind types.ElementKind) int {
	n := 0
	for _, e := range d.Elements {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// region is an axis-aligned box in PDF space (origin bottom-left).
type region struct {
	left, bottom, right, top float64
}

func (r region) contains(x, y float64) bool {
	return x >= r.left && x <= r.right && y >= r.bottom && y <= r.top
}

func (r region) center() (float64, float64) {
	return (r.left + r.right) / 2, (r.bottom + r.top) / 2
}

// block is a positioned text-bearing element of one page.
type block struct {
	kind  types.ElementKind
	text  string
	level int
	rows  [][]string
	box   region

	// list marks paragraph blocks rendered from a detected list; other
	// paragraphs inside its region are dropped.
	list bool
}

// pageContent is everything extracted from one page before ordering.
type pageContent struct {
	number int
	blocks []block
	images []types.ImageData
}

var captionRe = regexp.MustCompile(`(?i)^(figure|fig\.)\s*\d+`)

// buildElements orders each page's blocks top to bottom, removes the
// duplicate text layout analysis produces around headings, lists and tables,
// attaches figure captions to images and numbers the result.
func buildElements(pages []pageContent) []types.StructuralElement {
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].number < pages[j].number })

	var out []types.StructuralElement
	for _, pg := range pages {
		out = append(out, types.NewPageBreak(pg.number))

		blocks := dedupe(pg.blocks)
		sort.SliceStable(blocks, func(i, j int) bool {
			if blocks[i].box.top != blocks[j].box.top {
				return blocks[i].box.top > blocks[j].box.top
			}
			return blocks[i].box.left < blocks[j].box.left
		})

		var captions []string
		for _, b := range blocks {
			switch b.kind {
			case types.KindHeading:
				out = append(out, types.NewHeading(pg.number, b.text, min(max(b.level, 1), 6)))
			case types.KindTable:
				out = append(out, types.NewTable(pg.number, b.rows))
			default:
				if captionRe.MatchString(b.text) {
					captions = append(captions, b.text)
				}
				out = append(out, types.NewParagraph(pg.number, b.text))
			}
		}

		imgs := append([]types.ImageData(nil), pg.images...)
		sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Name < imgs[j].Name })
		for i, img := range imgs {
			if img.Caption == "" && i < len(captions) {
				img.Caption = captions[i]
			}
			out = append(out, types.NewImage(pg.number, img))
		}
	}
	return types.Sequence(out...)
}

// dedupe drops empty blocks, paragraphs repeating a heading, and paragraphs
// whose center lies inside a table or list region. A paragraph that starts
// with a heading's text keeps only the remainder.
func dedupe(in []block) []block {
	var headings []string
	var covers []region
	for _, b := range in {
		switch {
		case b.kind == types.KindHeading:
			headings = append(headings, strings.TrimSpace(b.text))
		case b.kind == types.KindTable, b.list:
			covers = append(covers, b.box)
		}
	}

	out := make([]block, 0, len(in))
	for _, b := range in {
		b.text = strings.TrimSpace(b.text)
		if b.kind != types.KindParagraph || b.list {
			if b.kind == types.KindTable || b.text != "" {
				out = append(out, b)
			}
			continue
		}
		if covered(b.box, covers) {
			continue
		}
		for _, h := range headings {
			if h == "" {
				continue
			}
			if b.text == h {
				b.text = ""
				break
			}
			if rest, ok := strings.CutPrefix(b.text, h); ok && startsNewLine(rest) {
				b.text = strings.TrimSpace(rest)
			}
		}
		if b.text != "" {
			out = append(out, b)
		}
	}
	return out
}

func covered(box region, covers []region) bool {
	x, y := box.center()
	for _, c := range covers {
		if c.contains(x, y) {
			return true
		}
	}
	return false
}

func startsNewLine(rest string) bool {
	return rest == "" || rest[0] == '\n' || rest[0] == ' '
}

// listText renders list items as Markdown list lines.
func listText(items []listItem, ordered bool) string {
	var sb strings.Builder
	n := 0
	for _, it := range items {
		t := strings.TrimSpace(it.text)
		if t == "" {
			continue
		}
		n++
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Repeat("  ", max(it.level, 0)))
		if ordered {
			sb.WriteString(strconv.Itoa(n))
			sb.WriteString(". ")
		} else {
			sb.WriteString("- ")
		}
		sb.WriteString(stripBullet(t, it.bullet))
	}
	return sb.String()
}

type listItem struct {
	text   string
	bullet string
	level  int
}

func stripBullet(text, bullet string) string {
	if bullet == "" {
		return text
	}
	if rest, ok := strings.CutPrefix(text, bullet); ok {
		return strings.TrimSpace(rest)
	}
	return text
}
