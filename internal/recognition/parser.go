// Package recognition turns the free-form text produced by the vision
// model into a structured result: marker-delimited field parsing, cloud
// name extraction and resolution against the catalog.
package recognition

import (
	"regexp"
	"strconv"
	"strings"
)

// Analysis carries the six free-text sections of one model response.
// Any field may be empty when the response lacked that section.
type Analysis struct {
	Family   string `json:"family"`
	Genus    string `json:"genus"`
	Species  string `json:"species"`
	Features string `json:"features"`
	Weather  string `json:"weather"`
	Know     string `json:"knowledge"`
}

// ParsedFields is the raw outcome of parsing one completion.
type ParsedFields struct {
	Analysis Analysis
	// Confidence is the model's self-reported certainty on a 1..10
	// scale, defaulting to 7 when the marker is missing.
	Confidence int
}

const defaultConfidence = 7

var (
	headingLineRe   = regexp.MustCompile(`(?m)^#{1,6}\s+.*$`)
	headingPrefixRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe      = regexp.MustCompile(`\*{1,2}`)
	blankRunsRe     = regexp.MustCompile(`\n{3,}`)

	familyRe     = fieldRe(`云族`, `云属`)
	genusRe      = fieldRe(`云属`, `云种[/／]变种`)
	speciesRe    = fieldRe(`云种[/／]变种`, `识别特征`)
	featuresRe   = fieldRe(`识别特征`, `天气预兆`)
	weatherRe    = fieldRe(`天气预兆`, `知识延伸`)
	knowledgeRe  = regexp.MustCompile(`(?s)\*{0,2}知识延伸\*{0,2}[：:]\s*(.*)$`)
	confidenceRe = regexp.MustCompile(`\*{0,2}识别置信度\*{0,2}[：:]\s*(\d+)`)
)

// fieldRe captures everything between a section marker and the next
// one, tolerating up to two emphasis stars around the marker and both
// colon widths.
func fieldRe(marker, next string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)\*{0,2}` + marker + `\*{0,2}[：:]\s*(.*?)(?:\*{0,2}` + next + `\*{0,2}[：:]|$)`)
}

// Parse extracts the six labeled sections and the confidence marker
// from one completion. It is total: any input yields a fully populated
// ParsedFields, with missing sections left empty.
func Parse(content string) ParsedFields {
	cleaned := strings.TrimSpace(headingLineRe.ReplaceAllString(content, ""))

	p := ParsedFields{Confidence: defaultConfidence}
	p.Analysis.Family = captureField(familyRe, cleaned)
	p.Analysis.Genus = captureField(genusRe, cleaned)
	p.Analysis.Species = captureField(speciesRe, cleaned)
	p.Analysis.Features = captureField(featuresRe, cleaned)
	p.Analysis.Weather = captureField(weatherRe, cleaned)
	p.Analysis.Know = captureField(knowledgeRe, cleaned)

	if m := confidenceRe.FindStringSubmatch(cleaned); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			p.Confidence = clampConfidence(v)
		}
	}
	return p
}

func captureField(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanField(m[1])
}

// cleanField strips residual markdown noise from one captured section.
func cleanField(text string) string {
	text = headingPrefixRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")
	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func clampConfidence(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
