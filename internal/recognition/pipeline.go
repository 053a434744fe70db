package recognition

import (
	"errors"

	"github.com/skydexapp/skydex/internal/catalog"
)

// ErrNoMatch reports that neither the species nor the genus field
// resolved to a catalog entry. It means "recognition inconclusive",
// not a transport failure; the caller should ask for a different
// photo.
var ErrNoMatch = errors.New("no catalog entry matched the response")

// Result is the structured outcome of one successful recognition.
type Result struct {
	CloudID     string         `json:"cloudId"`
	CloudName   string         `json:"cloudName"`
	LatinName   string         `json:"latinName"`
	Category    string         `json:"category"`
	Confidence  float64        `json:"confidence"`
	Score       int            `json:"score"`
	Rarity      catalog.Rarity `json:"rarity"`
	Description string         `json:"description"`
	Features    []string       `json:"features"`
	Analysis    Analysis       `json:"aiAnalysis"`
}

// Pipeline assembles Results from raw completions.
type Pipeline struct {
	catalog *catalog.Catalog
}

func NewPipeline(c *catalog.Catalog) *Pipeline {
	return &Pipeline{catalog: c}
}

// BuildResult parses the completion, resolves the species field and
// falls back to the genus field when the finer level is ambiguous.
func (p *Pipeline) BuildResult(completion string) (*Result, error) {
	parsed := Parse(completion)
	known := p.catalog.KnownNames()

	id := p.catalog.Resolve(ExtractName(parsed.Analysis.Species, known))
	if id == "" {
		id = p.catalog.Resolve(ExtractName(parsed.Analysis.Genus, known))
	}
	if id == "" {
		return nil, ErrNoMatch
	}

	entry := p.catalog.Get(id)
	return &Result{
		CloudID:     entry.ID,
		CloudName:   entry.Name,
		LatinName:   entry.Latin,
		Category:    entry.Category,
		Confidence:  float64(parsed.Confidence) / 10,
		Score:       entry.Score,
		Rarity:      entry.Rarity(),
		Description: entry.Description,
		Features:    entry.Features,
		Analysis:    parsed.Analysis,
	}, nil
}
