// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble renders an ordered sequence of structural elements into a
// single Markdown document using configurable templates. Rendering is pure:
// the same elements, descriptors, and configuration always produce the same
// bytes.
package assemble

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// mdHeading matches text that already carries an ATX heading marker.
var mdHeading = regexp.MustCompile(`^#{1,6}\s`)

// Assemble walks elems in order and renders each one with cfg. Every image
// element must have a descriptor in descs whose Order matches the element's.
// opts selects inline or trailing placement and whether page markers appear.
func Assemble(elems []types.StructuralElement, descs []types.ImageDescriptor, cfg types.FormattingConfig, opts types.OutputOptions) (string, error) {
	byOrder := make(map[int]types.ImageDescriptor, len(descs))
	for _, d := range descs {
		byOrder[d.Order] = d
	}

	var (
		parts     []string
		images    []types.ImageDescriptor
		tables    []*types.TableData
		imageNum  int
		tableNum  int
		prevOrder int
		prevPage  int
		havePrev  bool
	)

	for _, e := range elems {
		if havePrev && e.Order <= prevOrder {
			return "", &types.AssemblyError{Order: e.Order, Reason: fmt.Sprintf("order %d does not follow %d", e.Order, prevOrder)}
		}
		if havePrev && e.Page < prevPage {
			return "", &types.AssemblyError{Order: e.Order, Reason: fmt.Sprintf("page %d follows page %d", e.Page, prevPage)}
		}
		prevOrder, prevPage, havePrev = e.Order, e.Page, true

		switch e.Kind {
		case types.KindHeading:
			h, err := renderHeading(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, h)

		case types.KindParagraph:
			parts = append(parts, e.Text)

		case types.KindTable:
			if e.Table == nil {
				return "", &types.AssemblyError{Order: e.Order, Reason: "table element without cells"}
			}
			tableNum++
			if opts.IncludeTablesSection {
				tables = append(tables, e.Table)
				continue
			}
			parts = append(parts, renderTable(*e.Table, tableNum, cfg))

		case types.KindImage:
			d, ok := byOrder[e.Order]
			if !ok {
				return "", &types.AssemblyError{Order: e.Order, Reason: "image element without descriptor"}
			}
			imageNum++
			if !opts.ImagesInline {
				d.Index = imageNum
				images = append(images, d)
				continue
			}
			parts = append(parts, renderInlineImage(d, imageNum, cfg))

		case types.KindPageBreak:
			if opts.IncludePageNumbers {
				parts = append(parts, substitute(cfg.PageMarkerTemplate, "page_num", strconv.Itoa(e.Page)))
			}

		default:
			return "", &types.AssemblyError{Order: e.Order, Reason: fmt.Sprintf("unknown element kind %q", e.Kind)}
		}
	}

	if len(images) > 0 && opts.IncludeImagesSection {
		parts = append(parts, renderImagesSection(images, cfg))
	}
	if len(tables) > 0 {
		parts = append(parts, renderTablesSection(tables, cfg))
	}

	return join(parts), nil
}

// renderHeading passes through text that is already a Markdown heading and
// prefixes the rest according to level.
func renderHeading(e types.StructuralElement) (string, error) {
	if mdHeading.MatchString(e.Text) {
		return e.Text, nil
	}
	if e.Level < 1 || e.Level > 6 {
		return "", &types.AssemblyError{Order: e.Order, Reason: fmt.Sprintf("heading level %d out of range", e.Level)}
	}
	return strings.Repeat("#", e.Level) + " " + e.Text, nil
}

func renderTable(t types.TableData, num int, cfg types.FormattingConfig) string {
	t = t.Normalize()
	header := substitute(cfg.TableHeaderTemplate, "table_num", strconv.Itoa(num))
	size := substitute(cfg.TableSizeTemplate,
		"rows", strconv.Itoa(t.RowCount()),
		"cols", strconv.Itoa(t.ColCount()))
	return join([]string{header, size, grid(t)})
}

// grid renders a normalized table as a Markdown pipe table. The first row is
// the header row.
func grid(t types.TableData) string {
	if t.RowCount() == 0 || t.ColCount() == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(escapeCell(c))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(t.Rows[0])
	sep := make([]string, t.ColCount())
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func escapeCell(s string) string {
	return strings.TrimSpace(cellEscaper.Replace(s))
}

func renderInlineImage(d types.ImageDescriptor, num int, cfg types.FormattingConfig) string {
	title := substitute(cfg.ImageTitleTemplate, "image_num", strconv.Itoa(num))
	return join([]string{title, wrap(d.Description, cfg)})
}

func renderImagesSection(images []types.ImageDescriptor, cfg types.FormattingConfig) string {
	parts := []string{cfg.ImagesSectionHeader}
	for _, d := range images {
		header := substitute(cfg.ImageHeaderTemplate, "image_num", strconv.Itoa(d.Index))
		caption := ""
		if d.Caption != "" {
			caption = "*" + d.Caption + "*"
		}
		parts = append(parts, join([]string{header, caption, wrap(d.Description, cfg)}))
	}
	return join(parts)
}

func renderTablesSection(tables []*types.TableData, cfg types.FormattingConfig) string {
	parts := []string{cfg.TablesSectionHeader}
	for i, t := range tables {
		parts = append(parts, renderTable(*t, i+1, cfg))
	}
	return join(parts)
}

// wrap encloses a description in the image wrapper tags. Each tag is dropped
// on its own when its template is empty.
func wrap(desc string, cfg types.FormattingConfig) string {
	var lines []string
	if cfg.ImageWrapperStart != "" {
		lines = append(lines, cfg.ImageWrapperStart)
	}
	lines = append(lines, desc)
	if cfg.ImageWrapperEnd != "" {
		lines = append(lines, cfg.ImageWrapperEnd)
	}
	return strings.Join(lines, "\n")
}

// substitute replaces {name} placeholders in tmpl. kv alternates names and
// values. Unknown placeholders are left as written.
func substitute(tmpl string, kv ...string) string {
	if tmpl == "" {
		return ""
	}
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// join separates non-empty fragments with one blank line.
func join(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
