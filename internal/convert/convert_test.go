// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmd/internal/annotate"
	"github.com/pdiddy/pdfmd/internal/loader"
	"github.com/pdiddy/pdfmd/internal/pdftest"
	"github.com/pdiddy/pdfmd/internal/retry"
	"github.com/pdiddy/pdfmd/pkg/types"
)

func TestMain(m *testing.M) {
	retry.BaseDelay = 0
	os.Exit(m.Run())
}

type fakeLoader struct {
	doc *loader.Document
	err error
	got string
}

func (f *fakeLoader) Load(_ context.Context, path string) (*loader.Document, error) {
	f.got = path
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeBackend struct {
	text string
	err  error
}

func (b *fakeBackend) Describe(context.Context, annotate.Request) (string, error) {
	return b.text, b.err
}

// bigImage is large enough to pass the decorative thresholds without
// decoding.
func bigImage() types.ImageData {
	return types.ImageData{Name: "Im1", Width: 400, Height: 300, Data: make([]byte, 4096)}
}

func sampleDoc() *loader.Document {
	return &loader.Document{
		Pages: 2,
		Elements: types.Sequence(
			types.NewPageBreak(1),
			types.NewHeading(1, "Quarterly Report", 1),
			types.NewParagraph(1, "Revenue grew.   "),
			types.NewImage(1, bigImage()),
			types.NewPageBreak(2),
			types.NewTable(2, [][]string{{"Q", "Revenue"}, {"Q1", "10"}, {"Q2"}}),
		),
	}
}

func newService(t *testing.T, l loader.Loader, b annotate.Backend, cfg types.Config) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a, err := annotate.New(b, cfg, logger)
	require.NoError(t, err)
	return New(l, a, cfg, logger)
}

func TestServiceConvert(t *testing.T) {
	path := pdftest.WriteFile(t, "report.pdf", "x")
	cfg := types.DefaultConfig()
	fl := &fakeLoader{doc: sampleDoc()}
	s := newService(t, fl, &fakeBackend{text: "A bar chart of revenue."}, cfg)

	opts := cfg.Processing.Defaults
	opts.IncludePageNumbers = true
	res := s.Convert(context.Background(), path, opts)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, path, fl.got)
	assert.Equal(t, "report.pdf", res.Filename)
	assert.Equal(t, 2, res.PagesProcessed)
	assert.Equal(t, 1, res.ImagesProcessed)
	assert.Equal(t, 1, res.ImagesAnalyzed)
	assert.Equal(t, 1, res.TablesProcessed)
	assert.True(t, res.AIAnalysis)
	assert.Equal(t, len([]rune(res.Markdown)), res.TextLength)

	md := res.Markdown
	assert.Contains(t, md, "--- Page 1 ---")
	assert.Contains(t, md, "# Quarterly Report")
	assert.Contains(t, md, "Revenue grew.\n")
	assert.Contains(t, md, "<image>\nA bar chart of revenue.\n</image>")
	assert.Contains(t, md, "| Q2 |  |")
	assert.NotContains(t, md, "\n\n\n\n")
}

func TestServiceConvertFallbackNeverFails(t *testing.T) {
	path := pdftest.WriteFile(t, "report.pdf", "x")
	cfg := types.DefaultConfig()
	s := newService(t, &fakeLoader{doc: sampleDoc()}, &fakeBackend{err: errors.New("503")}, cfg)

	res := s.Convert(context.Background(), path, cfg.Processing.Defaults)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.ImagesFallback)
	assert.Equal(t, 0, res.ImagesAnalyzed)
	assert.Contains(t, res.Markdown, "[Image analysis unavailable]")
}

func TestServiceConvertAnalysisDisabled(t *testing.T) {
	path := pdftest.WriteFile(t, "report.pdf", "x")
	cfg := types.DefaultConfig()

	tests := []struct {
		name    string
		backend annotate.Backend
		ai      bool
	}{
		{name: "caller opted out", backend: &fakeBackend{text: "should not appear"}, ai: false},
		{name: "no backend configured", backend: nil, ai: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newService(t, &fakeLoader{doc: sampleDoc()}, tc.backend, cfg)
			opts := cfg.Processing.Defaults
			opts.AIAnalysis = tc.ai

			res := s.Convert(context.Background(), path, opts)
			require.True(t, res.Success)
			assert.False(t, res.AIAnalysis)
			assert.Contains(t, res.Markdown, "Image 1 on page 1")
			assert.NotContains(t, res.Markdown, "should not appear")
		})
	}
}

func TestServiceConvertFailures(t *testing.T) {
	cfg := types.DefaultConfig()

	tests := []struct {
		name   string
		path   func(t *testing.T) string
		loader *fakeLoader
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing file",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.pdf") },
			loader: &fakeLoader{doc: sampleDoc()},
			check: func(t *testing.T, err error) {
				var ve *types.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.ErrorIs(t, err, types.ErrFileNotFound)
			},
		},
		{
			name: "not a pdf",
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "notes.pdf")
				require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))
				return p
			},
			loader: &fakeLoader{doc: sampleDoc()},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, types.ErrNotPDF)
			},
		},
		{
			name:   "loader failure wrapped",
			path:   func(t *testing.T) string { return pdftest.WriteFile(t, "a.pdf", "x") },
			loader: &fakeLoader{err: errors.New("broken xref")},
			check: func(t *testing.T, err error) {
				var le *types.LoaderError
				require.ErrorAs(t, err, &le)
				assert.Contains(t, le.Error(), "broken xref")
			},
		},
		{
			name: "assembly failure",
			path: func(t *testing.T) string { return pdftest.WriteFile(t, "a.pdf", "x") },
			loader: &fakeLoader{doc: &loader.Document{Pages: 1, Elements: types.Sequence(
				types.NewHeading(1, "Too deep", 9),
			)}},
			check: func(t *testing.T, err error) {
				var ae *types.AssemblyError
				assert.ErrorAs(t, err, &ae)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newService(t, tc.loader, nil, cfg)
			res := s.Convert(context.Background(), tc.path(t), cfg.Processing.Defaults)
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Error)
			assert.Empty(t, res.Markdown)
			tc.check(t, res.Err)
		})
	}
}

func TestServiceConvertCancelled(t *testing.T) {
	path := pdftest.WriteFile(t, "report.pdf", "x")
	cfg := types.DefaultConfig()
	s := newService(t, &fakeLoader{doc: sampleDoc()}, &fakeBackend{text: "x"}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.Convert(ctx, path, cfg.Processing.Defaults)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

type panicLoader struct{}

func (panicLoader) Load(context.Context, string) (*loader.Document, error) {
	panic("nil dereference in parser")
}

func TestServiceConvertRecoversPanic(t *testing.T) {
	path := pdftest.WriteFile(t, "report.pdf", "x")
	cfg := types.DefaultConfig()
	s := newService(t, panicLoader{}, nil, cfg)

	res := s.Convert(context.Background(), path, cfg.Processing.Defaults)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "nil dereference in parser")
}

func TestServiceConvertBytes(t *testing.T) {
	cfg := types.DefaultConfig()
	fl := &fakeLoader{doc: sampleDoc()}
	s := newService(t, fl, nil, cfg)

	res := s.ConvertBytes(context.Background(), pdftest.Build("x"), "upload.pdf", cfg.Processing.Defaults)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "upload.pdf", res.Filename)

	_, err := os.Stat(fl.got)
	assert.True(t, os.IsNotExist(err), "temp file should be removed")

	bad := s.ConvertBytes(context.Background(), []byte("GIF89a"), "upload.pdf", cfg.Processing.Defaults)
	assert.False(t, bad.Success)
	assert.ErrorIs(t, bad.Err, types.ErrNotPDF)
}

func TestServiceConvertRealPDF(t *testing.T) {
	path := pdftest.WriteFile(t, "real.pdf", "First page body", "Second page body")
	cfg := types.DefaultConfig()
	cfg.AI.Provider = types.ProviderNone
	logger, _ := test.NewNullLogger()

	s, err := NewFromConfig(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.False(t, s.AnalysisAvailable())

	opts := s.Defaults()
	opts.IncludePageNumbers = true
	res := s.Convert(context.Background(), path, opts)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.PagesProcessed)
	assert.Contains(t, res.Markdown, "First page body")
	assert.Contains(t, res.Markdown, "--- Page 2 ---")
}
