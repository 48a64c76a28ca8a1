// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// defaultSystemPrompt frames every annotation request.
const defaultSystemPrompt = `You are an expert document analyst. You describe images taken from PDF documents so that the description can stand in for the image in a Markdown rendering used for search and retrieval. Report only what the image shows.`

// simplePromptTmpl asks for one descriptive paragraph.
var simplePromptTmpl = template.Must(template.New("simple").Parse(`Describe this image from page {{.Page}} of a document in one concise paragraph.
{{- if .Caption}}
The document captions it: "{{.Caption}}".
{{- end}}

State what the image depicts and transcribe any visible text, labels, or numbers exactly. Do not speculate about content that is not visible. Respond with the paragraph only, without headings or preamble.
`))

// dataRichPromptTmpl asks for a structured extraction of a chart, diagram,
// or tabular image. The section headings are parsed by parseStructured.
var dataRichPromptTmpl = template.Must(template.New("data-rich").Parse(`Analyze this image from page {{.Page}} of a document. It likely contains a chart, diagram, or table.
{{- if .Caption}}
The document captions it: "{{.Caption}}".
{{- end}}

Respond in Markdown using exactly these sections:

#### Content Type
One of: [TABLE], [CHART: type], [DIAGRAM: type], [MIXED].

#### Title/Caption
The main title and any subtitle shown in the image.

#### Extracted Data
For tables, a Markdown table with every row and column.
For charts, the chart type, axis labels with units, and every series with its data points and values.
For diagrams, every labeled node and how the nodes connect.

#### Key Insights
Notable trends, extremes, and relationships, as a short bullet list.

#### Data Quality Notes
Mark unclear values as [unclear], missing values as [missing], and approximations with ~.

Be precise and do not repeat yourself.
`))

// promptData is the template input for both prompt variants.
type promptData struct {
	Page    int
	Caption string
}

// prompts holds the parsed templates used by one Annotator.
type prompts struct {
	system   string
	simple   *template.Template
	dataRich *template.Template
}

// newPrompts builds the prompt set from cfg, using the built-in templates
// for any prompt left empty.
func newPrompts(cfg types.AIConfig) (prompts, error) {
	p := prompts{
		system:   defaultSystemPrompt,
		simple:   simplePromptTmpl,
		dataRich: dataRichPromptTmpl,
	}
	if cfg.SystemPrompt != "" {
		p.system = cfg.SystemPrompt
	}
	if cfg.SimplePrompt != "" {
		t, err := template.New("simple").Parse(cfg.SimplePrompt)
		if err != nil {
			return prompts{}, fmt.Errorf("parsing simple prompt: %w", err)
		}
		p.simple = t
	}
	if cfg.DataRichPrompt != "" {
		t, err := template.New("data-rich").Parse(cfg.DataRichPrompt)
		if err != nil {
			return prompts{}, fmt.Errorf("parsing data-rich prompt: %w", err)
		}
		p.dataRich = t
	}
	return p, nil
}

// render selects the variant for class and executes it.
func (p prompts) render(class types.ContentClass, data promptData) (string, error) {
	tmpl := p.simple
	if class == types.ClassDataRich {
		tmpl = p.dataRich
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
