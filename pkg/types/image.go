// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ContentClass is the estimated information content of an image.
type ContentClass string

const (
	ClassDecorative ContentClass = "decorative"
	ClassSimple     ContentClass = "simple"
	ClassDataRich   ContentClass = "data-rich"
)

// ImageDescriptor pairs an image element with its classification and
// description. It is built once per image and consumed by the assembler.
type ImageDescriptor struct {
	// Index is the 1-based image number in document order.
	Index int `json:"index" yaml:"index"`

	// Order is the order index of the image element it describes.
	Order int `json:"order" yaml:"order"`

	Page      int          `json:"page" yaml:"page"`
	SizeBytes int          `json:"size_bytes" yaml:"size_bytes"`
	Width     int          `json:"width" yaml:"width"`
	Height    int          `json:"height" yaml:"height"`
	Class     ContentClass `json:"class" yaml:"class"`

	// Description is the text placed inside the image wrapper.
	Description string `json:"description" yaml:"description"`

	// Caption is the caption carried over from the image element.
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`

	// Structured holds the parsed sections of a data-rich analysis.
	Structured *StructuredAnalysis `json:"structured,omitempty" yaml:"structured,omitempty"`

	// Analyzed is true when the description came from the model.
	Analyzed bool `json:"analyzed" yaml:"analyzed"`

	// Fallback is true when every attempt failed and the placeholder was used.
	Fallback bool `json:"fallback" yaml:"fallback"`
}

// StructuredAnalysis holds the sections of a data-rich image analysis.
type StructuredAnalysis struct {
	ContentType   string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Title         string `json:"title,omitempty" yaml:"title,omitempty"`
	ExtractedData string `json:"extracted_data,omitempty" yaml:"extracted_data,omitempty"`
	Insights      string `json:"insights,omitempty" yaml:"insights,omitempty"`
	QualityNotes  string `json:"quality_notes,omitempty" yaml:"quality_notes,omitempty"`
}
