package ingest

import (
	"context"
	"time"

	"continuum/backend/internal/graph"
	"continuum/backend/pkg/logger"
	"go.uber.org/zap"
)

// Pipeline turns parsed pages into graph facts
type Pipeline struct {
	extractor Extractor
	logger    *zap.Logger
}

// Result reports what ingesting one page added to the graph
type Result struct {
	PageID       string   `json:"page_id"`
	SnippetIDs   []string `json:"snippet_ids"`
	EntityIDs    []string `json:"entity_ids"`
	NewEntities  int      `json:"new_entities"`
	RelatedEdges int      `json:"related_edges"`
}

// NewPipeline creates a pipeline. A nil extractor uses HeuristicExtractor.
func NewPipeline(extractor Extractor) *Pipeline {
	if extractor == nil {
		extractor = HeuristicExtractor{}
	}
	return &Pipeline{
		extractor: extractor,
		logger:    logger.Named("ingest"),
	}
}

// Prepare runs entity extraction and stores the result on doc. It does not
// touch any graph, so it can run outside the session lock.
func (p *Pipeline) Prepare(ctx context.Context, doc *Document) error {
	candidates, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return err
	}
	doc.Entities = candidates
	return nil
}

// Apply writes doc into g: one page node, a snippet per text block linked
// with CONTAINS, an entity per candidate linked with MENTIONS, then the
// RELATED_TO edges derived from this page's mentions.
func (p *Pipeline) Apply(g *graph.KnowledgeGraph, doc *Document, visitedAt time.Time) Result {
	res := Result{
		PageID:     g.AddPage(doc.URL, doc.Title, visitedAt),
		SnippetIDs: []string{},
		EntityIDs:  []string{},
	}

	for _, text := range doc.Snippets {
		snippetID := g.AddSnippet(text, res.PageID)
		g.AddEdge(res.PageID, snippetID, graph.EdgeContains)
		res.SnippetIDs = append(res.SnippetIDs, snippetID)
	}

	for _, c := range doc.Entities {
		entityID, status := g.AddEntityWithStatus(c.Label, c.Type)
		if status == graph.StatusCreated {
			res.NewEntities++
		}
		g.AddEdge(res.PageID, entityID, graph.EdgeMentions)
		res.EntityIDs = append(res.EntityIDs, entityID)
	}

	res.RelatedEdges = g.LinkPageEntities(res.PageID)

	p.logger.Debug("Page ingested",
		zap.String("session_id", g.SessionID()),
		zap.String("url", doc.URL),
		zap.Int("snippets", len(res.SnippetIDs)),
		zap.Int("entities", len(res.EntityIDs)),
		zap.Int("related_edges", res.RelatedEdges),
	)
	return res
}
