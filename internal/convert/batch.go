// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// ConversionNone is a local alias for "skip" status (markdown already exists).
const ConversionNone = types.ConversionNone

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// OutputPath returns the default Markdown path for a PDF: the same
// directory and stem with a .md extension.
func OutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".md"
}

// ConvertFile converts in and writes the Markdown to out (OutputPath(in)
// when empty), prefixed with YAML frontmatter when frontmatter is set. The
// returned error is the conversion or write failure.
func ConvertFile(ctx context.Context, c Converter, in, out string, opts types.OutputOptions, frontmatter bool) (types.ConversionResult, error) {
	if out == "" {
		out = OutputPath(in)
	}

	res := c.Convert(ctx, in, opts)
	if !res.Success {
		if res.Err != nil {
			return res, res.Err
		}
		return res, errors.New(res.Error)
	}

	content := res.Markdown
	if frontmatter {
		fm, err := addFrontmatter(in, res, content)
		if err != nil {
			return res, err
		}
		content = fm
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return res, fmt.Errorf("writing %s: %w", out, err)
	}
	return res, nil
}

// convertOne converts a single PDF of a batch into outDir. It returns the
// status of the conversion. If the Markdown output already exists, it skips
// conversion and returns ConversionNone.
func convertOne(ctx context.Context, c Converter, pdfPath, outDir string, opts types.OutputOptions, frontmatter bool, w io.Writer) types.ConversionStatus {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	mdPath := filepath.Join(outDir, base+".md")

	if _, err := os.Stat(mdPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
		return ConversionNone
	}

	if _, err := ConvertFile(ctx, c, pdfPath, mdPath, opts, frontmatter); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	fmt.Fprintf(w, "converted: %s\n", base)
	return types.ConversionDone
}

// ConvertBatch converts every .pdf in dir, writing Markdown next to it (or
// into outDir when set), printing per-file status to w and returning a
// summary. Files are processed in name order; a cancelled context stops the
// batch after the current file.
func ConvertBatch(ctx context.Context, c Converter, dir, outDir string, opts types.OutputOptions, frontmatter bool, w io.Writer) (BatchResult, error) {
	pdfs, err := listPDFs(dir)
	if err != nil {
		return BatchResult{}, err
	}
	if outDir == "" {
		outDir = dir
	}

	var result BatchResult
	for _, p := range pdfs {
		if ctx.Err() != nil {
			break
		}
		switch convertOne(ctx, c, p, outDir, opts, frontmatter, w) {
		case types.ConversionDone:
			result.Converted++
		case ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, ctx.Err()
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// frontmatter is the YAML header written above converted Markdown.
type frontmatter struct {
	SourcePDF   string `yaml:"source_pdf"`
	ConvertedAt string `yaml:"converted_at"`
	Pages       int    `yaml:"pages"`
	Images      int    `yaml:"images"`
	Tables      int    `yaml:"tables"`
	AIAnalysis  bool   `yaml:"ai_analysis"`
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(pdfPath string, res types.ConversionResult, body string) (string, error) {
	fm, err := yaml.Marshal(frontmatter{
		SourcePDF:   pdfPath,
		ConvertedAt: time.Now().UTC().Format(time.RFC3339),
		Pages:       res.PagesProcessed,
		Images:      res.ImagesProcessed,
		Tables:      res.TablesProcessed,
		AIAnalysis:  res.AIAnalysis,
	})
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String(), nil
}
