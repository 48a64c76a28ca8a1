// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"regexp"
	"strings"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// sectionRe matches the section headings requested by the data-rich prompt,
// with or without numbering ("#### 3. Extracted Data").
var sectionRe = regexp.MustCompile(`(?im)^#{2,5}\s*(?:\d+\.\s*)?(content type|title/caption|extracted data|key insights|data quality notes)\s*$`)

// parseStructured splits a data-rich response into its sections. It returns
// nil when the response has none of the expected headings.
func parseStructured(text string) *types.StructuredAnalysis {
	locs := sectionRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var out types.StructuredAnalysis
	for i, loc := range locs {
		name := strings.ToLower(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[1]:end])

		switch name {
		case "content type":
			out.ContentType = body
		case "title/caption":
			out.Title = body
		case "extracted data":
			out.ExtractedData = body
		case "key insights":
			out.Insights = body
		case "data quality notes":
			out.QualityNotes = body
		}
	}
	return &out
}
