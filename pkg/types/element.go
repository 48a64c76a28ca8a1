// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ElementKind tags the variant held by a StructuralElement.
type ElementKind string

const (
	KindHeading   ElementKind = "heading"
	KindParagraph ElementKind = "paragraph"
	KindTable     ElementKind = "table"
	KindImage     ElementKind = "image"
	KindPageBreak ElementKind = "page_break"
)

// StructuralElement is one document unit in reading order. The loader builds
// the sequence once; later stages only read it.
type StructuralElement struct {
	Kind ElementKind `json:"kind" yaml:"kind"`

	// Page is the 1-based page the element belongs to. For a page break it is
	// the number of the page that starts.
	Page int `json:"page" yaml:"page"`

	// Order is the position in the document sequence; strictly increasing.
	Order int `json:"order" yaml:"order"`

	// Text holds heading or paragraph content.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Level is the heading level, 1 through 6.
	Level int `json:"level,omitempty" yaml:"level,omitempty"`

	Table *TableData `json:"table,omitempty" yaml:"table,omitempty"`
	Image *ImageData `json:"image,omitempty" yaml:"image,omitempty"`
}

// TableData is the cell matrix of a table; the first row is the header.
type TableData struct {
	Rows [][]string `json:"rows" yaml:"rows"`
}

// RowCount returns the number of rows.
func (t TableData) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the width of the widest row.
func (t TableData) ColCount() int {
	cols := 0
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// Normalize returns a copy in which every row is padded with empty cells to
// the width of the widest row. Ragged input never loses cells.
func (t TableData) Normalize() TableData {
	cols := t.ColCount()
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		padded := make([]string, cols)
		copy(padded, row)
		rows[i] = padded
	}
	return TableData{Rows: rows}
}

// ImageData is an image extracted from the document.
type ImageData struct {
	// Name is the resource name inside the PDF, when known.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Format is the encoded file type (e.g. "png", "jpg").
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Caption is nearby caption text, when the loader found one.
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`

	Data []byte `json:"-" yaml:"-"`
}

// Area returns the pixel area.
func (d ImageData) Area() int {
	return d.Width * d.Height
}

// NewHeading returns a heading element on page.
func NewHeading(page int, text string, level int) StructuralElement {
	return StructuralElement{Kind: KindHeading, Page: page, Text: text, Level: level}
}

// NewParagraph returns a paragraph element on page.
func NewParagraph(page int, text string) StructuralElement {
	return StructuralElement{Kind: KindParagraph, Page: page, Text: text}
}

// NewTable returns a table element on page.
func NewTable(page int, rows [][]string) StructuralElement {
	return StructuralElement{Kind: KindTable, Page: page, Table: &TableData{Rows: rows}}
}

// NewImage returns an image element on page.
func NewImage(page int, img ImageData) StructuralElement {
	return StructuralElement{Kind: KindImage, Page: page, Image: &img}
}

// NewPageBreak returns the boundary that starts page.
func NewPageBreak(page int) StructuralElement {
	return StructuralElement{Kind: KindPageBreak, Page: page}
}

// Sequence assigns consecutive order indexes to elems in the given order.
func Sequence(elems ...StructuralElement) []StructuralElement {
	out := make([]StructuralElement, len(elems))
	for i, e := range elems {
		e.Order = i
		out[i] = e
	}
	return out
}
