package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmd/pkg/types"
)

func newConvertFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	addConvertFlags(fs)
	return fs
}

func TestOutputOptions(t *testing.T) {
	defaults := types.DefaultConfig().Processing.Defaults

	tests := []struct {
		name string
		args []string
		want func(o *types.OutputOptions)
	}{
		{name: "no flags keeps defaults", args: nil, want: func(*types.OutputOptions) {}},
		{name: "no-ai", args: []string{"--no-ai"}, want: func(o *types.OutputOptions) { o.AIAnalysis = false }},
		{name: "no-ai=false keeps analysis", args: []string{"--no-ai=false"}, want: func(*types.OutputOptions) {}},
		{name: "trailing images", args: []string{"--images-inline=false"}, want: func(o *types.OutputOptions) { o.ImagesInline = false }},
		{name: "page numbers", args: []string{"--page-numbers"}, want: func(o *types.OutputOptions) { o.IncludePageNumbers = true }},
		{name: "tables section", args: []string{"--tables-section"}, want: func(o *types.OutputOptions) { o.IncludeTablesSection = true }},
		{name: "no cleanup", args: []string{"--no-cleanup"}, want: func(o *types.OutputOptions) { o.CleanupMarkdown = false }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := newConvertFlags()
			require.NoError(t, fs.Parse(tc.args))

			got, err := outputOptions(fs, defaults)
			require.NoError(t, err)

			want := defaults
			tc.want(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestOutputOptionsUnsetFlagKeepsConfiguredValue(t *testing.T) {
	defaults := types.DefaultConfig().Processing.Defaults
	defaults.IncludePageNumbers = true
	defaults.ImagesInline = false

	got, err := outputOptions(newConvertFlags(), defaults)
	require.NoError(t, err)
	assert.True(t, got.IncludePageNumbers)
	assert.False(t, got.ImagesInline)
}
