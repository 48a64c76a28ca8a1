// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmd/internal/pdftest"
	"github.com/pdiddy/pdfmd/pkg/types"
)

func kinds(elems []types.StructuralElement) []types.ElementKind {
	out := make([]types.ElementKind, len(elems))
	for i, e := range elems {
		out[i] = e.Kind
	}
	return out
}

func box(top float64) region {
	return region{left: 72, right: 540, bottom: top - 12, top: top}
}

func TestBuildElementsOrdersTopToBottom(t *testing.T) {
	pages := []pageContent{
		{number: 2, blocks: []block{
			{kind: types.KindParagraph, text: "second page", box: box(700)},
		}},
		{number: 1, blocks: []block{
			{kind: types.KindParagraph, text: "body", box: box(600)},
			{kind: types.KindHeading, text: "Title", level: 1, box: box(720)},
		}},
	}

	elems := buildElements(pages)

	assert.Equal(t, []types.ElementKind{
		types.KindPageBreak, types.KindHeading, types.KindParagraph,
		types.KindPageBreak, types.KindParagraph,
	}, kinds(elems))
	assert.Equal(t, 1, elems[0].Page)
	assert.Equal(t, "Title", elems[1].Text)
	assert.Equal(t, "body", elems[2].Text)
	assert.Equal(t, 2, elems[3].Page)
	for i, e := range elems {
		assert.Equal(t, i, e.Order)
	}
}

func TestBuildElementsDedupe(t *testing.T) {
	tests := []struct {
		name   string
		blocks []block
		want   []string
	}{
		{
			name: "paragraph equal to heading dropped",
			blocks: []block{
				{kind: types.KindHeading, text: "Introduction", level: 2, box: box(700)},
				{kind: types.KindParagraph, text: "Introduction", box: box(700)},
			},
			want: []string{"Introduction"},
		},
		{
			name: "heading prefix stripped from paragraph",
			blocks: []block{
				{kind: types.KindHeading, text: "Results", level: 2, box: box(700)},
				{kind: types.KindParagraph, text: "Results\nThe model converged.", box: box(690)},
			},
			want: []string{"Results", "The model converged."},
		},
		{
			name: "paragraph inside table dropped",
			blocks: []block{
				{kind: types.KindTable, rows: [][]string{{"a", "b"}, {"1", "2"}}, box: region{left: 50, right: 500, bottom: 400, top: 500}},
				{kind: types.KindParagraph, text: "a b 1 2", box: region{left: 60, right: 400, bottom: 420, top: 480}},
				{kind: types.KindParagraph, text: "after", box: box(300)},
			},
			want: []string{"", "after"},
		},
		{
			name: "paragraph inside list dropped",
			blocks: []block{
				{kind: types.KindParagraph, text: "- one\n- two", list: true, box: region{left: 50, right: 500, bottom: 600, top: 650}},
				{kind: types.KindParagraph, text: "• one • two", box: region{left: 60, right: 400, bottom: 610, top: 640}},
			},
			want: []string{"- one\n- two"},
		},
		{
			name: "blank paragraph dropped",
			blocks: []block{
				{kind: types.KindParagraph, text: "   ", box: box(700)},
			},
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			elems := buildElements([]pageContent{{number: 1, blocks: tc.blocks}})
			var got []string
			for _, e := range elems[1:] {
				got = append(got, e.Text)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildElementsHeadingLevelClamped(t *testing.T) {
	elems := buildElements([]pageContent{{number: 1, blocks: []block{
		{kind: types.KindHeading, text: "Deep", level: 9, box: box(700)},
		{kind: types.KindHeading, text: "Flat", level: 0, box: box(600)},
	}}})
	require.Len(t, elems, 3)
	assert.Equal(t, 6, elems[1].Level)
	assert.Equal(t, 1, elems[2].Level)
}

func TestBuildElementsImagesAndCaptions(t *testing.T) {
	pages := []pageContent{{
		number: 1,
		blocks: []block{
			{kind: types.KindParagraph, text: "Figure 1: Revenue by quarter", box: box(500)},
			{kind: types.KindParagraph, text: "Some text", box: box(700)},
		},
		images: []types.ImageData{
			{Name: "Im2", Width: 10, Height: 10},
			{Name: "Im1", Width: 300, Height: 200, Caption: "kept"},
		},
	}}

	elems := buildElements(pages)

	assert.Equal(t, []types.ElementKind{
		types.KindPageBreak, types.KindParagraph, types.KindParagraph, types.KindImage, types.KindImage,
	}, kinds(elems))
	require.NotNil(t, elems[3].Image)
	assert.Equal(t, "Im1", elems[3].Image.Name)
	assert.Equal(t, "kept", elems[3].Image.Caption)
	assert.Equal(t, "Im2", elems[4].Image.Name)
	assert.Empty(t, elems[4].Image.Caption)
}

func TestBuildElementsEmptyPageStillBreaks(t *testing.T) {
	elems := buildElements([]pageContent{{number: 1}, {number: 2}})
	assert.Equal(t, []types.ElementKind{types.KindPageBreak, types.KindPageBreak}, kinds(elems))
	assert.Equal(t, 2, elems[1].Page)
}

func TestListText(t *testing.T) {
	items := []listItem{
		{text: "• apples", bullet: "•"},
		{text: "pears", level: 1},
		{text: "  "},
	}
	assert.Equal(t, "- apples\n  - pears", listText(items, false))
	assert.Equal(t, "1. apples\n  2. pears", listText(items, true))
}

func TestDocumentCount(t *testing.T) {
	d := &Document{Elements: types.Sequence(
		types.NewPageBreak(1),
		types.NewTable(1, [][]string{{"a"}}),
		types.NewImage(1, types.ImageData{}),
		types.NewImage(1, types.ImageData{}),
	)}
	assert.Equal(t, 2, d.Count(types.KindImage))
	assert.Equal(t, 1, d.Count(types.KindTable))
	assert.Equal(t, 0, d.Count(types.KindHeading))
}

func TestTabulaLoaderLoad(t *testing.T) {
	path := pdftest.WriteFile(t, "doc.pdf", "Hello from page one", "Second page text")
	logger, _ := test.NewNullLogger()
	l := NewTabulaLoader(types.DefaultConfig().Loader, logger)

	doc, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Pages)
	assert.Equal(t, 2, doc.Count(types.KindPageBreak))

	var text []string
	for _, e := range doc.Elements {
		text = append(text, e.Text)
	}
	joined := strings.Join(text, "\n")
	assert.Contains(t, joined, "Hello from page one")
	assert.Contains(t, joined, "Second page text")
}

func TestTabulaLoaderMissingFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	l := NewTabulaLoader(types.LoaderConfig{}, logger)

	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	var le *types.LoaderError
	assert.True(t, errors.As(err, &le))
}

func TestTabulaLoaderCancelled(t *testing.T) {
	path := pdftest.WriteFile(t, "doc.pdf", "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTabulaLoader(types.LoaderConfig{}, nil).Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
