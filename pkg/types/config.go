package types

import "time"

// FormattingConfig maps each decorative fragment of the rendered Markdown to a
// template string. Placeholders use {name} syntax: {page_num}, {image_num},
// {table_num}, {rows}, {cols}. An empty template suppresses its fragment but
// never the content it decorates.
type FormattingConfig struct {
	// PageMarkerTemplate is emitted at each page boundary (e.g. "--- Page {page_num} ---").
	PageMarkerTemplate string `json:"page_marker_template" yaml:"page_marker_template" mapstructure:"page_marker_template"`

	// ImageWrapperStart and ImageWrapperEnd enclose each image description.
	ImageWrapperStart string `json:"image_wrapper_start" yaml:"image_wrapper_start" mapstructure:"image_wrapper_start"`
	ImageWrapperEnd   string `json:"image_wrapper_end" yaml:"image_wrapper_end" mapstructure:"image_wrapper_end"`

	// ImageTitleTemplate precedes an inline image (e.g. "**Image {image_num}:**").
	ImageTitleTemplate string `json:"image_title_template" yaml:"image_title_template" mapstructure:"image_title_template"`

	// ImageHeaderTemplate precedes an image in the trailing images section.
	ImageHeaderTemplate string `json:"image_header_template" yaml:"image_header_template" mapstructure:"image_header_template"`

	TableHeaderTemplate string `json:"table_header_template" yaml:"table_header_template" mapstructure:"table_header_template"`
	TableSizeTemplate   string `json:"table_size_template" yaml:"table_size_template" mapstructure:"table_size_template"`

	ImagesSectionHeader string `json:"images_section_header" yaml:"images_section_header" mapstructure:"images_section_header"`
	TablesSectionHeader string `json:"tables_section_header" yaml:"tables_section_header" mapstructure:"tables_section_header"`
}

// DefaultFormattingConfig returns the stock templates.
func DefaultFormattingConfig() FormattingConfig {
	return FormattingConfig{
		PageMarkerTemplate:  "--- Page {page_num} ---",
		ImageWrapperStart:   "<image>",
		ImageWrapperEnd:     "</image>",
		ImageTitleTemplate:  "**Image {image_num}:**",
		ImageHeaderTemplate: "### Image {image_num}",
		TableHeaderTemplate: "### Table {table_num}",
		TableSizeTemplate:   "**Size:** {rows} rows × {cols} columns",
		ImagesSectionHeader: "## Images and Figures",
		TablesSectionHeader: "## Tables",
	}
}

// CleanupConfig controls the post-assembly Markdown cleanup pass. Fenced code
// blocks are never touched by any of its operations.
type CleanupConfig struct {
	// MaxConsecutiveLinebreaks is the longest run of blank lines kept (default 2).
	// Zero disables collapsing.
	MaxConsecutiveLinebreaks int `json:"max_consecutive_linebreaks" yaml:"max_consecutive_linebreaks" mapstructure:"max_consecutive_linebreaks"`

	// NormalizeWhitespace strips trailing whitespace from every line.
	NormalizeWhitespace bool `json:"normalize_whitespace" yaml:"normalize_whitespace" mapstructure:"normalize_whitespace"`

	// FixHeadingSpacing enforces one blank line around headings and page markers.
	FixHeadingSpacing bool `json:"fix_heading_spacing" yaml:"fix_heading_spacing" mapstructure:"fix_heading_spacing"`
}

// OutputOptions are the per-run switches a caller may override (CLI flags or
// HTTP query parameters). Each run receives its own copy.
type OutputOptions struct {
	// AIAnalysis enables external model annotation of non-decorative images.
	AIAnalysis bool `json:"ai_analysis" yaml:"ai_analysis" mapstructure:"ai_analysis"`

	// ImagesInline places image descriptions at their document position; when
	// false they are collected into a trailing images section.
	ImagesInline bool `json:"images_inline" yaml:"images_inline" mapstructure:"images_inline"`

	IncludePageNumbers   bool `json:"include_page_numbers" yaml:"include_page_numbers" mapstructure:"include_page_numbers"`
	IncludeImagesSection bool `json:"include_images_section" yaml:"include_images_section" mapstructure:"include_images_section"`
	IncludeTablesSection bool `json:"include_tables_section" yaml:"include_tables_section" mapstructure:"include_tables_section"`

	// CleanupMarkdown runs the cleanup pass over the assembled text.
	CleanupMarkdown bool `json:"cleanup_markdown" yaml:"cleanup_markdown" mapstructure:"cleanup_markdown"`
}

// ProcessingConfig holds input limits and the default output options.
type ProcessingConfig struct {
	// MaxPDFSize is the largest accepted input in bytes (default 100MB).
	MaxPDFSize int64 `json:"max_pdf_size" yaml:"max_pdf_size" mapstructure:"max_pdf_size"`

	// MaxImageSize is the largest image sent for annotation in bytes (default 20MB).
	MaxImageSize int64 `json:"max_image_size" yaml:"max_image_size" mapstructure:"max_image_size"`

	Defaults OutputOptions `json:"defaults" yaml:"defaults" mapstructure:"defaults"`
}

// LoaderConfig controls what the document loader extracts.
type LoaderConfig struct {
	ExtractImages bool `json:"extract_images" yaml:"extract_images" mapstructure:"extract_images"`
	ExtractTables bool `json:"extract_tables" yaml:"extract_tables" mapstructure:"extract_tables"`

	// TableMinConfidence drops detected tables scored below it (0-1).
	TableMinConfidence float64 `json:"table_min_confidence" yaml:"table_min_confidence" mapstructure:"table_min_confidence"`

	// ExcludeHeadersFooters drops repeating page headers and footers.
	ExcludeHeadersFooters bool `json:"exclude_headers_footers" yaml:"exclude_headers_footers" mapstructure:"exclude_headers_footers"`
}

// ClassifierConfig holds the thresholds of the local image heuristic.
type ClassifierConfig struct {
	// MinPixelArea is the area below which an image is decorative.
	MinPixelArea int `json:"min_pixel_area" yaml:"min_pixel_area" mapstructure:"min_pixel_area"`

	// MinBytes is the encoded size below which an image is decorative.
	MinBytes int `json:"min_bytes" yaml:"min_bytes" mapstructure:"min_bytes"`

	// MaxAspectRatio flags rules and dividers as decorative.
	MaxAspectRatio float64 `json:"max_aspect_ratio" yaml:"max_aspect_ratio" mapstructure:"max_aspect_ratio"`

	// DataRichMinArea is the smallest area considered for a chart or diagram.
	DataRichMinArea int `json:"data_rich_min_area" yaml:"data_rich_min_area" mapstructure:"data_rich_min_area"`

	// BackgroundRatio is the share of near-white samples typical of charts.
	BackgroundRatio float64 `json:"background_ratio" yaml:"background_ratio" mapstructure:"background_ratio"`

	// MaxPalette is the largest quantized palette still typical of charts.
	MaxPalette int `json:"max_palette" yaml:"max_palette" mapstructure:"max_palette"`

	// MinPalette is the smallest palette of a content-bearing image. Scans
	// below it are uniform fills and count as decorative.
	MinPalette int `json:"min_palette" yaml:"min_palette" mapstructure:"min_palette"`

	// MaxScanPixels caps the decoded size of a pixel scan. Larger images,
	// by their header, are classified without decoding. Zero disables the cap.
	MaxScanPixels int `json:"max_scan_pixels" yaml:"max_scan_pixels" mapstructure:"max_scan_pixels"`

	// DecorativeDescription replaces the annotation of decorative images.
	DecorativeDescription string `json:"decorative_description" yaml:"decorative_description" mapstructure:"decorative_description"`
}

// AIProvider identifies the hosted multimodal model service.
type AIProvider string

const (
	ProviderNone      AIProvider = "none"
	ProviderAzure     AIProvider = "azure"
	ProviderOpenAI    AIProvider = "openai"
	ProviderGemini    AIProvider = "gemini"
	ProviderAnthropic AIProvider = "anthropic"
)

// AIConfig holds settings for the image annotation backend.
type AIConfig struct {
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model or Azure deployment name (e.g. "gpt-4.1").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Endpoint is the Azure resource endpoint or an OpenAI-compatible base URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// APIVersion is the Azure OpenAI API version.
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty" mapstructure:"api_version"`

	// MaxAttempts bounds calls per image, first call included (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxConcurrency bounds in-flight annotation calls per run.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" mapstructure:"max_concurrency"`

	// RequestsPerSecond paces calls to the provider. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Timeout bounds a single provider call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Prompt overrides. Empty values use the built-in prompts.
	SystemPrompt   string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty" mapstructure:"system_prompt"`
	SimplePrompt   string `json:"simple_prompt,omitempty" yaml:"simple_prompt,omitempty" mapstructure:"simple_prompt"`
	DataRichPrompt string `json:"data_rich_prompt,omitempty" yaml:"data_rich_prompt,omitempty" mapstructure:"data_rich_prompt"`

	// FallbackDescription is used when every attempt fails.
	FallbackDescription string `json:"fallback_description" yaml:"fallback_description" mapstructure:"fallback_description"`
}

// ServerConfig holds settings for the REST API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// APIKey is the bearer token clients must present.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RequestTimeout bounds one conversion request end to end.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Config is the complete, immutable configuration of one process. It is a
// plain value: callers copy it and never mutate a shared instance.
type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Formatting FormattingConfig `json:"formatting" yaml:"formatting" mapstructure:"formatting"`
	Cleanup    CleanupConfig    `json:"cleanup" yaml:"cleanup" mapstructure:"cleanup"`
	Processing ProcessingConfig `json:"processing" yaml:"processing" mapstructure:"processing"`
	Loader     LoaderConfig     `json:"loader" yaml:"loader" mapstructure:"loader"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:"ai"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		Formatting: DefaultFormattingConfig(),
		Cleanup: CleanupConfig{
			MaxConsecutiveLinebreaks: 2,
			NormalizeWhitespace:      true,
			FixHeadingSpacing:        true,
		},
		Processing: ProcessingConfig{
			MaxPDFSize:   100 * 1024 * 1024,
			MaxImageSize: 20 * 1024 * 1024,
			Defaults: OutputOptions{
				AIAnalysis:           true,
				ImagesInline:         true,
				IncludeImagesSection: true,
				CleanupMarkdown:      true,
			},
		},
		Loader: LoaderConfig{
			ExtractImages:      true,
			ExtractTables:      true,
			TableMinConfidence: 0.6,
		},
		Classifier: ClassifierConfig{
			MinPixelArea:          64 * 64,
			MinBytes:              1024,
			MaxAspectRatio:        12,
			DataRichMinArea:       200 * 200,
			BackgroundRatio:       0.5,
			MaxPalette:            48,
			MinPalette:            2,
			MaxScanPixels:         4096 * 4096,
			DecorativeDescription: "Decorative image",
		},
		AI: AIConfig{
			Provider:            ProviderAzure,
			Model:               "gpt-4.1",
			APIVersion:          "2024-10-01-preview",
			MaxAttempts:         3,
			MaxTokens:           1500,
			Temperature:         0.1,
			MaxConcurrency:      4,
			Timeout:             2 * time.Minute,
			FallbackDescription: "[Image analysis unavailable]",
		},
		Server: ServerConfig{
			Addr:           ":8000",
			RequestTimeout: 10 * time.Minute,
			AllowedOrigins: []string{"*"},
		},
	}
}
