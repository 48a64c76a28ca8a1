// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus indicates the outcome of converting one file in batch mode.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// ConversionResult is the outcome of one conversion run. Fatal pipeline
// errors are reported here with Success false; they never escape as raw errors.
type ConversionResult struct {
	Success  bool   `json:"success" yaml:"success"`
	Markdown string `json:"markdown" yaml:"markdown"`

	PagesProcessed  int `json:"pages_processed" yaml:"pages_processed"`
	ImagesProcessed int `json:"images_processed" yaml:"images_processed"`
	TablesProcessed int `json:"tables_processed" yaml:"tables_processed"`

	// ImagesAnalyzed counts images described by the model.
	ImagesAnalyzed int `json:"images_analyzed" yaml:"images_analyzed"`

	// ImagesFallback counts images that received the placeholder.
	ImagesFallback int `json:"images_fallback" yaml:"images_fallback"`

	TextLength int    `json:"text_length" yaml:"text_length"`
	AIAnalysis bool   `json:"ai_analysis" yaml:"ai_analysis"`
	Filename   string `json:"filename,omitempty" yaml:"filename,omitempty"`

	// Error is the failure reason when Success is false.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Err is the underlying error, kept for errors.As checks in-process.
	Err error `json:"-" yaml:"-"`
}

// Failed builds a result for a run that aborted with err.
func Failed(filename string, err error) ConversionResult {
	return ConversionResult{
		Success:  false,
		Filename: filename,
		Error:    err.Error(),
		Err:      err,
	}
}
