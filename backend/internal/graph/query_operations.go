package graph

import (
	"sort"
	"strings"
)

// ============================================================================
// Topic Ranking
// ============================================================================

// MainTopics returns the topN entities with the highest degree. Entities
// with equal degree keep the order in which they first appeared as an edge
// endpoint. A non-positive topN returns no topics.
func (g *KnowledgeGraph) MainTopics(topN int) []Topic {
	if topN <= 0 {
		return []Topic{}
	}

	ranked := make([]Topic, 0, len(g.degreeFirstSeen))
	for _, id := range g.degreeFirstSeen {
		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		ranked = append(ranked, Topic{
			ID:         node.ID,
			Label:      node.Label,
			EntityType: node.EntityType(),
			Degree:     g.degree[id],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Degree > ranked[j].Degree
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Summary returns node counts and the top entities for prediction prompts
func (g *KnowledgeGraph) Summary() Summary {
	return Summary{
		PageCount:   g.countByType(NodeTypePage),
		EntityCount: g.countByType(NodeTypeEntity),
		TopEntities: g.MainTopics(SummaryTopN),
	}
}

// ============================================================================
// Search
// ============================================================================

// Search returns nodes whose label contains query, ignoring case. Only
// labels are matched. Results are ordered by type, then label, and cut to
// maxResults. A non-positive maxResults returns no results.
func (g *KnowledgeGraph) Search(query string, maxResults int) []SearchResult {
	if maxResults <= 0 {
		return []SearchResult{}
	}

	q := strings.ToLower(query)
	results := []SearchResult{}

	for _, node := range g.nodesInOrder() {
		if !strings.Contains(strings.ToLower(node.Label), q) {
			continue
		}
		results = append(results, SearchResult{
			ID:       node.ID,
			Type:     node.Type,
			Label:    node.Label,
			Metadata: node.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Type != results[j].Type {
			return results[i].Type < results[j].Type
		}
		return results[i].Label < results[j].Label
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// ============================================================================
// Export
// ============================================================================

// Stats returns aggregate node and edge counts
func (g *KnowledgeGraph) Stats() Stats {
	return Stats{
		Nodes:    len(g.order),
		Edges:    len(g.edges),
		Pages:    g.countByType(NodeTypePage),
		Entities: g.countByType(NodeTypeEntity),
	}
}

// ExportForVisualization returns every node and edge with aggregate counts
func (g *KnowledgeGraph) ExportForVisualization() Export {
	nodes := make([]Node, 0, len(g.order))
	stats := Stats{}

	for _, node := range g.nodesInOrder() {
		nodes = append(nodes, *node)
		switch node.Type {
		case NodeTypePage:
			stats.Pages++
		case NodeTypeEntity:
			stats.Entities++
		}
	}

	edges := g.Edges()
	stats.Nodes = len(nodes)
	stats.Edges = len(edges)

	return Export{Nodes: nodes, Edges: edges, Stats: stats}
}
