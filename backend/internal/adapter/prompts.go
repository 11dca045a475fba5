package adapter

import (
	"context"
	"fmt"
	"strings"

	"continuum/backend/internal/graph"
	"go.uber.org/zap"
)

// SessionDigest is what the summary prompt is built from
type SessionDigest struct {
	CurrentTask string
	Activities  []string
	Graph       graph.Summary
}

const summarySystemPrompt = "You summarize focused work sessions for the person who did the work. Be concise and concrete."

const extractionSystemPrompt = "You extract key concepts and named entities from text. Reply with a comma-separated list and nothing else."

// BuildSummaryPrompt renders the user message for SummarizeSession
func BuildSummaryPrompt(d SessionDigest) string {
	var b strings.Builder
	b.WriteString("Summarize this work session in 2-3 sentences. Focus on what was accomplished and key learnings:\n\n")

	if d.CurrentTask != "" {
		fmt.Fprintf(&b, "Task: %s\n", d.CurrentTask)
	}
	if len(d.Activities) > 0 {
		fmt.Fprintf(&b, "Activities: %s\n", strings.Join(d.Activities, ", "))
	}
	fmt.Fprintf(&b, "Pages visited: %d\n", d.Graph.PageCount)
	if len(d.Graph.TopEntities) > 0 {
		labels := make([]string, 0, len(d.Graph.TopEntities))
		for _, t := range d.Graph.TopEntities {
			labels = append(labels, t.Label)
		}
		fmt.Fprintf(&b, "Key concepts: %s\n", strings.Join(labels, ", "))
	}
	return b.String()
}

// SummarizeSession asks the model for a short session summary. It never
// fails; on error it logs and returns FallbackSummary.
func (a *LLMAdapter) SummarizeSession(ctx context.Context, d SessionDigest) string {
	summary, err := a.Generate(ctx, summarySystemPrompt, BuildSummaryPrompt(d))
	if err != nil || summary == "" {
		a.logger.Warn("Using fallback session summary", zap.Error(err))
		return FallbackSummary
	}
	return summary
}

// ExtractEntities asks the model for the key concepts in text
func (a *LLMAdapter) ExtractEntities(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract key concepts, entities, and important information from the following text. Return only a comma-separated list of the most important terms and concepts (maximum %d):

Text: %s

Return format: concept1, concept2, concept3`, maxExtractedEntities, text)

	reply, err := a.Generate(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return ParseConceptList(reply, maxExtractedEntities), nil
}

// ParseConceptList splits a comma-separated model reply into trimmed,
// non-empty terms, keeping at most limit
func ParseConceptList(reply string, limit int) []string {
	concepts := []string{}
	for _, part := range strings.Split(reply, ",") {
		term := strings.Trim(strings.TrimSpace(part), `"'.`)
		if term == "" {
			continue
		}
		concepts = append(concepts, term)
		if len(concepts) == limit {
			break
		}
	}
	return concepts
}
