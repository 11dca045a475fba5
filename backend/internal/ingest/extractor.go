package ingest

import (
	"context"
	"strings"

	"continuum/backend/pkg/logger"
	"go.uber.org/zap"
)

// maxExtractionInput bounds the text sent to an LLM for extraction
const maxExtractionInput = 4000

// Where a TextExtractor's candidates came from
const (
	ExtractionSourceLLM       = "llm"
	ExtractionSourceHeuristic = "heuristic"
)

// Extractor proposes entities for a parsed page
type Extractor interface {
	Extract(ctx context.Context, doc *Document) ([]Candidate, error)
}

// HeuristicExtractor returns the candidates found while parsing the HTML
type HeuristicExtractor struct{}

// Extract implements Extractor
func (HeuristicExtractor) Extract(_ context.Context, doc *Document) ([]Candidate, error) {
	return doc.Entities, nil
}

// ConceptSource is anything that can list key concepts in a text, such as
// adapter.LLMAdapter
type ConceptSource interface {
	ExtractEntities(ctx context.Context, text string) ([]string, error)
}

// LLMExtractor asks a model for concepts and falls back to the heuristic
// candidates when the model fails or returns nothing
type LLMExtractor struct {
	source ConceptSource
	logger *zap.Logger
}

// NewLLMExtractor creates an extractor backed by source
func NewLLMExtractor(source ConceptSource) *LLMExtractor {
	return &LLMExtractor{
		source: source,
		logger: logger.Named("llm_extractor"),
	}
}

// Extract implements Extractor
func (e *LLMExtractor) Extract(ctx context.Context, doc *Document) ([]Candidate, error) {
	concepts, err := e.source.ExtractEntities(ctx, extractionText(doc))
	if err != nil || len(concepts) == 0 {
		e.logger.Warn("LLM extraction unavailable, using page heuristics",
			zap.String("url", doc.URL),
			zap.Error(err),
		)
		return doc.Entities, nil
	}

	candidates := make([]Candidate, 0, len(concepts))
	for _, c := range concepts {
		candidates = append(candidates, Candidate{Label: c, Type: EntityTypeConcept})
	}
	return candidates, nil
}

func extractionText(doc *Document) string {
	var b strings.Builder
	b.WriteString(doc.Title)
	for _, s := range doc.Snippets {
		if b.Len()+len(s) > maxExtractionInput {
			break
		}
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

// TextExtractor proposes entities for free text that did not come from a
// page, such as a note or a chat message
type TextExtractor struct {
	source ConceptSource
	logger *zap.Logger
}

// NewTextExtractor creates a text extractor. A nil source uses proper-noun
// and acronym heuristics only.
func NewTextExtractor(source ConceptSource) *TextExtractor {
	return &TextExtractor{
		source: source,
		logger: logger.Named("text_extractor"),
	}
}

// Extract lists candidates for text. Model failures fall back to the
// heuristics; the returned source is "llm" or "heuristic".
func (e *TextExtractor) Extract(ctx context.Context, text string) ([]Candidate, string) {
	if e.source != nil {
		input := text
		if len(input) > maxExtractionInput {
			input = input[:maxExtractionInput]
		}
		concepts, err := e.source.ExtractEntities(ctx, input)
		if err == nil && len(concepts) > 0 {
			candidates := make([]Candidate, 0, len(concepts))
			for _, c := range concepts {
				candidates = append(candidates, Candidate{Label: c, Type: EntityTypeConcept})
			}
			return candidates, ExtractionSourceLLM
		}
		e.logger.Warn("LLM extraction unavailable, using text heuristics", zap.Error(err))
	}
	return TextCandidates(text), ExtractionSourceHeuristic
}
