// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the PDF-to-Markdown pipeline: validate, load,
// annotate images, assemble and clean up. It is the single entry point the
// CLI and the HTTP API share.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/pdfmd/internal/annotate"
	"github.com/pdiddy/pdfmd/internal/assemble"
	"github.com/pdiddy/pdfmd/internal/cleanup"
	"github.com/pdiddy/pdfmd/internal/loader"
	"github.com/pdiddy/pdfmd/internal/validate"
	"github.com/pdiddy/pdfmd/pkg/types"
)

// Converter transforms one PDF into Markdown. Service is the production
// implementation; batch helpers and the HTTP API accept any Converter.
type Converter interface {
	Convert(ctx context.Context, path string, opts types.OutputOptions) types.ConversionResult
}

// Service wires the pipeline stages together. It holds only read-only state
// and may serve concurrent runs.
type Service struct {
	loader    loader.Loader
	annotator *annotate.Annotator
	cfg       types.Config
	logger    *logrus.Logger
}

// New returns a Service. cfg is copied; later changes by the caller are not
// seen.
func New(l loader.Loader, a *annotate.Annotator, cfg types.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{loader: l, annotator: a, cfg: cfg, logger: logger}
}

// NewFromConfig builds the default loader and annotator for cfg. A provider
// without credentials is not an error: analysis is disabled with a warning.
func NewFromConfig(ctx context.Context, cfg types.Config, logger *logrus.Logger) (*Service, error) {
	if logger == nil {
		logger = logrus.New()
	}
	backend, err := annotate.NewBackend(ctx, cfg.AI)
	switch {
	case errors.Is(err, annotate.ErrNoBackend):
		if cfg.AI.Provider != types.ProviderNone && cfg.AI.Provider != "" {
			logger.WithError(err).Warn("image analysis disabled")
		}
		backend = nil
	case err != nil:
		return nil, fmt.Errorf("creating annotation backend: %w", err)
	}

	a, err := annotate.New(backend, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	return New(loader.NewTabulaLoader(cfg.Loader, logger), a, cfg, logger), nil
}

// Defaults returns the configured default output options.
func (s *Service) Defaults() types.OutputOptions {
	return s.cfg.Processing.Defaults
}

// AnalysisAvailable reports whether a model backend is configured.
func (s *Service) AnalysisAvailable() bool {
	return s.annotator.Enabled()
}

// Convert runs the pipeline on the PDF at path. Failures are reported in the
// result with Success false; Convert never panics across its boundary.
func (s *Service) Convert(ctx context.Context, path string, opts types.OutputOptions) (res types.ConversionResult) {
	name := filepath.Base(path)
	log := s.logger.WithField("file", name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("internal error: %v", r)
			log.WithError(err).Error("conversion panicked")
			res = types.Failed(name, err)
		}
	}()

	res, err := s.run(ctx, path, opts)
	if err != nil {
		log.WithError(err).Error("conversion failed")
		return types.Failed(name, err)
	}
	res.Filename = name

	log.WithFields(logrus.Fields{
		"pages":           res.PagesProcessed,
		"images":          res.ImagesProcessed,
		"images_analyzed": res.ImagesAnalyzed,
		"images_fallback": res.ImagesFallback,
		"tables":          res.TablesProcessed,
		"chars":           res.TextLength,
		"elapsed":         time.Since(start).Round(time.Millisecond),
	}).Info("conversion complete")
	return res
}

func (s *Service) run(ctx context.Context, path string, opts types.OutputOptions) (types.ConversionResult, error) {
	if err := validate.File(path, s.cfg.Processing.MaxPDFSize); err != nil {
		return types.ConversionResult{}, err
	}

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		var le *types.LoaderError
		if !errors.As(err, &le) && ctx.Err() == nil {
			err = &types.LoaderError{Path: path, Err: err}
		}
		return types.ConversionResult{}, err
	}

	analyze := opts.AIAnalysis && s.annotator.Enabled()
	descs, err := s.annotator.Annotate(ctx, doc.Elements, analyze)
	if err != nil {
		return types.ConversionResult{}, fmt.Errorf("annotating images: %w", err)
	}

	md, err := assemble.Assemble(doc.Elements, descs, s.cfg.Formatting, opts)
	if err != nil {
		return types.ConversionResult{}, err
	}
	if opts.CleanupMarkdown {
		md = cleanup.Clean(md, s.cfg.Cleanup, s.cfg.Formatting.PageMarkerTemplate)
	}

	res := types.ConversionResult{
		Success:         true,
		Markdown:        md,
		PagesProcessed:  doc.Pages,
		ImagesProcessed: len(descs),
		TablesProcessed: doc.Count(types.KindTable),
		TextLength:      len([]rune(md)),
		AIAnalysis:      analyze,
	}
	for _, d := range descs {
		if d.Analyzed {
			res.ImagesAnalyzed++
		}
		if d.Fallback {
			res.ImagesFallback++
		}
	}
	return res, nil
}

// ConvertBytes converts an in-memory PDF. The data is checked first, then
// spooled to a temp file that is removed before returning. filename is
// reported in the result.
func (s *Service) ConvertBytes(ctx context.Context, data []byte, filename string, opts types.OutputOptions) types.ConversionResult {
	if err := validate.Bytes(data, s.cfg.Processing.MaxPDFSize); err != nil {
		return types.Failed(filename, err)
	}

	f, err := os.CreateTemp("", "pdfmd-*.pdf")
	if err != nil {
		return types.Failed(filename, fmt.Errorf("creating temp file: %w", err))
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	_, werr := f.Write(data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return types.Failed(filename, fmt.Errorf("writing temp file: %w", werr))
	}

	res := s.Convert(ctx, tmp, opts)
	res.Filename = filename
	return res
}
