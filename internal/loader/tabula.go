// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// TabulaLoader reads page layout with tabula, detects tables geometrically
// from raw text fragments and pulls embedded images with pdfcpu.
type TabulaLoader struct {
	cfg    types.LoaderConfig
	logger *logrus.Logger
}

// NewTabulaLoader returns the default loader.
func NewTabulaLoader(cfg types.LoaderConfig, logger *logrus.Logger) *TabulaLoader {
	if logger == nil {
		logger = logrus.New()
	}
	return &TabulaLoader{cfg: cfg, logger: logger}
}

// Load parses path. Layout failures are fatal; table and image extraction
// failures are logged and the document is returned without them.
func (l *TabulaLoader) Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := l.logger.WithField("path", path)

	ex := tabula.Open(path)
	if l.cfg.ExcludeHeadersFooters {
		ex = ex.ExcludeHeadersAndFooters()
	}
	doc, warnings, err := ex.Document()
	if err != nil {
		return nil, &types.LoaderError{Path: path, Err: err}
	}
	for _, w := range warnings {
		log.WithField("warning", w.Message).Debug("parser warning")
	}

	pages := make([]pageContent, len(doc.Pages))
	for i, p := range doc.Pages {
		pages[i] = pageContent{number: i + 1, blocks: layoutBlocks(p)}
	}

	if l.cfg.ExtractTables {
		found, err := l.detectTables(ctx, path)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			log.WithError(err).Warn("table detection failed, continuing without tables")
		}
		for i := range pages {
			pages[i].blocks = append(pages[i].blocks, found[pages[i].number]...)
		}
	}

	if l.cfg.ExtractImages {
		imgs, err := extractImages(ctx, path)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			log.WithError(err).Warn("image extraction failed, continuing without images")
		}
		for i := range pages {
			pages[i].images = imgs[pages[i].number]
		}
	}

	d := &Document{
		Path:     path,
		Title:    strings.TrimSpace(doc.Metadata.Title),
		Pages:    len(doc.Pages),
		Elements: buildElements(pages),
	}
	log.WithFields(logrus.Fields{
		"pages":  d.Pages,
		"tables": d.Count(types.KindTable),
		"images": d.Count(types.KindImage),
	}).Debug("document loaded")
	return d, nil
}

// layoutBlocks converts the text elements tabula found on p.
func layoutBlocks(p *model.Page) []block {
	var out []block
	for _, el := range p.Elements {
		switch e := el.(type) {
		case *model.Heading:
			out = append(out, block{kind: types.KindHeading, text: e.Text, level: e.Level, box: toRegion(e.BBox)})
		case *model.Paragraph:
			out = append(out, block{kind: types.KindParagraph, text: e.Text, box: toRegion(e.BBox)})
		case *model.List:
			items := make([]listItem, len(e.Items))
			for i, it := range e.Items {
				items[i] = listItem{text: it.Text, bullet: it.Bullet, level: it.Level}
			}
			out = append(out, block{kind: types.KindParagraph, text: listText(items, e.Ordered), box: toRegion(e.BBox), list: true})
		}
	}
	return out
}

// detectTables runs the geometric detector over every page and returns the
// tables keyed by 1-based page number.
func (l *TabulaLoader) detectTables(ctx context.Context, path string) (map[int][]block, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	det := tables.NewGeometricDetector()
	cfg := tables.DefaultConfig()
	if l.cfg.TableMinConfidence > 0 {
		cfg.MinConfidence = l.cfg.TableMinConfidence
	}
	if err := det.Configure(cfg); err != nil {
		return nil, fmt.Errorf("configuring table detector: %w", err)
	}

	out := make(map[int][]block)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		mp, err := pageModel(r, i)
		if err != nil {
			return out, fmt.Errorf("page %d: %w", i+1, err)
		}
		found, err := det.Detect(mp)
		if err != nil {
			return out, fmt.Errorf("page %d: detecting tables: %w", i+1, err)
		}
		for _, t := range found {
			if t == nil || t.Confidence < cfg.MinConfidence {
				continue
			}
			rows := tableRows(t)
			if len(rows) == 0 {
				continue
			}
			out[i+1] = append(out[i+1], block{kind: types.KindTable, rows: rows, box: toRegion(t.BBox)})
		}
	}
	return out, nil
}

// pageModel builds the minimal model page the table detector reads: its
// size and raw positioned text.
func pageModel(r *reader.Reader, index int) (*model.Page, error) {
	pg, err := r.GetPage(index)
	if err != nil {
		return nil, err
	}
	w, err := pg.Width()
	if err != nil {
		return nil, err
	}
	h, err := pg.Height()
	if err != nil {
		return nil, err
	}
	frags, err := r.ExtractTextFragments(pg)
	if err != nil {
		return nil, err
	}

	mp := model.NewPage(w, h)
	mp.Number = index + 1
	for _, f := range frags {
		mp.RawText = append(mp.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.NewBBox(f.X, f.Y, f.Width, f.Height),
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}
	return mp, nil
}

func tableRows(t *model.Table) [][]string {
	var rows [][]string
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		empty := true
		for j, c := range row {
			cells[j] = strings.TrimSpace(c.Text)
			if cells[j] != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, cells)
		}
	}
	return rows
}

func toRegion(b model.BBox) region {
	return region{left: b.X, bottom: b.Y, right: b.X + b.Width, top: b.Y + b.Height}
}
