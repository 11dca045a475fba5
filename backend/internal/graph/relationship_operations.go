package graph

import (
	"go.uber.org/zap"
)

// ============================================================================
// Relationship Operations
// ============================================================================

// LinkRelatedEntities connects entities that are mentioned on the same page.
//
// For every page with MENTIONS edges to two or more distinct entities, a
// RELATED_TO edge is added in both directions for each pair of those
// entities. Existing RELATED_TO edges are not checked, so running this
// twice over the same mentions adds every derived edge again. Call it once
// per batch of new mentions. Returns the number of edges added.
func (g *KnowledgeGraph) LinkRelatedEntities() int {
	pageEntities := g.mentionsByPage()

	added := 0
	for _, pe := range pageEntities {
		added += g.linkPairwise(pe.entityIDs)
	}

	g.logger.Debug("Related entities linked",
		zap.Int("pages", len(pageEntities)),
		zap.Int("edges_added", added),
	)
	return added
}

// LinkPageEntities derives RELATED_TO edges from the mentions of a single
// page. Ingestion calls it once after adding a page and all its mentions.
// The same caller contract as LinkRelatedEntities applies.
func (g *KnowledgeGraph) LinkPageEntities(pageID string) int {
	for _, pe := range g.mentionsByPage() {
		if pe.pageID == pageID {
			return g.linkPairwise(pe.entityIDs)
		}
	}
	return 0
}

// linkPairwise adds RELATED_TO in both directions for every pair in ids
func (g *KnowledgeGraph) linkPairwise(ids []string) int {
	added := 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if g.AddEdgeWithStatus(ids[i], ids[j], EdgeRelatedTo) == StatusCreated {
				added++
			}
			if g.AddEdgeWithStatus(ids[j], ids[i], EdgeRelatedTo) == StatusCreated {
				added++
			}
		}
	}
	return added
}

type pageMentions struct {
	pageID    string
	entityIDs []string
}

// mentionsByPage groups the distinct entities mentioned by each page, in
// the order the MENTIONS edges were added
func (g *KnowledgeGraph) mentionsByPage() []pageMentions {
	var grouped []pageMentions
	index := make(map[string]int)
	seen := make(map[string]map[string]bool)

	for _, edge := range g.edges {
		if edge.Type != EdgeMentions {
			continue
		}
		src, ok := g.nodes[edge.Source]
		if !ok || src.Type != NodeTypePage {
			continue
		}
		tgt, ok := g.nodes[edge.Target]
		if !ok || tgt.Type != NodeTypeEntity {
			continue
		}

		i, ok := index[edge.Source]
		if !ok {
			i = len(grouped)
			index[edge.Source] = i
			grouped = append(grouped, pageMentions{pageID: edge.Source})
			seen[edge.Source] = make(map[string]bool)
		}
		if seen[edge.Source][edge.Target] {
			continue
		}
		seen[edge.Source][edge.Target] = true
		grouped[i].entityIDs = append(grouped[i].entityIDs, edge.Target)
	}

	return grouped
}
