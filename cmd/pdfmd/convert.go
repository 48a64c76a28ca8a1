package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdiddy/pdfmd/internal/convert"
	"github.com/pdiddy/pdfmd/internal/fetch"
	"github.com/pdiddy/pdfmd/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> [output]",
	Short: "Convert a PDF file to Markdown",
	Long: `Convert transforms a PDF into Markdown. Headings, paragraphs, lists and
tables keep their reading order; images are described by the configured
vision model (or by a placeholder when analysis is off or unavailable).

The output defaults to the input path with a .md extension. <input> may
also be an http(s) URL, an arXiv identifier or a DOI; the PDF is downloaded
first and the output defaults to <name>.md in the current directory.

With --batch, <input> is a directory: every .pdf in it is converted, files whose Markdown
already exists are skipped, and [output] names an optional output directory.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := outputOptions(cmd.Flags(), cfg.Processing.Defaults)
		if err != nil {
			return err
		}
		batch, _ := cmd.Flags().GetBool("batch")
		frontmatter, _ := cmd.Flags().GetBool("frontmatter")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := convert.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if opts.AIAnalysis && !svc.AnalysisAvailable() {
			logger.Info("no vision model configured, images get placeholder descriptions")
		}

		out := ""
		if len(args) > 1 {
			out = args[1]
		}

		if batch {
			result, err := convert.ConvertBatch(ctx, svc, args[0], out, opts, frontmatter, os.Stdout)
			if err != nil {
				return err
			}
			if result.HasFailures() {
				return fmt.Errorf("%d of %d conversions failed", result.Failed, result.Total())
			}
			return nil
		}

		in := args[0]
		if _, statErr := os.Stat(in); statErr != nil {
			if src, ok := fetch.Resolve(in); ok {
				tmpDir, err := os.MkdirTemp("", "pdfmd-fetch-*")
				if err != nil {
					return err
				}
				defer os.RemoveAll(tmpDir)

				logger.WithField("url", src.URL).Info("downloading")
				client := fetch.New(nil, "pdfmd/"+version, cfg.Processing.MaxPDFSize)
				if in, err = client.Download(ctx, src, tmpDir); err != nil {
					return err
				}
				if out == "" {
					out = src.Stem + ".md"
				}
			}
		}

		if out == "" {
			out = convert.OutputPath(in)
		}
		res, err := convert.ConvertFile(ctx, svc, in, out, opts, frontmatter)
		if err != nil {
			return fmt.Errorf("converting %s: %w", args[0], err)
		}
		fmt.Printf("converted: %s -> %s (%d pages, %d images, %d tables)\n",
			args[0], out, res.PagesProcessed, res.ImagesProcessed, res.TablesProcessed)
		return nil
	},
}

// outputOptions overlays the flags the user set on the configured defaults.
func outputOptions(flags *pflag.FlagSet, defaults types.OutputOptions) (types.OutputOptions, error) {
	opts := defaults
	set := []struct {
		flag   string
		dst    *bool
		invert bool
	}{
		{"no-ai", &opts.AIAnalysis, true},
		{"images-inline", &opts.ImagesInline, false},
		{"page-numbers", &opts.IncludePageNumbers, false},
		{"tables-section", &opts.IncludeTablesSection, false},
		{"images-section", &opts.IncludeImagesSection, false},
		{"no-cleanup", &opts.CleanupMarkdown, true},
	}
	for _, s := range set {
		if !flags.Changed(s.flag) {
			continue
		}
		val, err := flags.GetBool(s.flag)
		if err != nil {
			return opts, err
		}
		*s.dst = val != s.invert
	}
	return opts, nil
}

// addConvertFlags registers the convert flags on fs.
func addConvertFlags(fs *pflag.FlagSet) {
	fs.Bool("no-ai", false, "skip vision model analysis of images")
	fs.Bool("images-inline", true, "place image descriptions where the images appear")
	fs.Bool("page-numbers", false, "emit a marker at each page boundary")
	fs.Bool("tables-section", false, "collect tables into a trailing section")
	fs.Bool("images-section", true, "emit the images section when images are not inline")
	fs.Bool("no-cleanup", false, "skip the Markdown cleanup pass")
	fs.Bool("frontmatter", false, "prefix the output with YAML frontmatter")
	fs.Bool("batch", false, "treat <input> as a directory and convert every PDF in it")
}

func init() {
	addConvertFlags(convertCmd.Flags())

	rootCmd.AddCommand(convertCmd)
}
