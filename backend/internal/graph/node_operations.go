package graph

import (
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Node Operations
// ============================================================================

// AddPage records a visited page and returns its node id.
//
// Every call creates a new node. The page index keeps only the most recent
// node for a URL, so earlier nodes for the same URL stay in the graph but
// are no longer reachable through PageByURL.
func (g *KnowledgeGraph) AddPage(url, title string, timestamp time.Time) string {
	label := title
	if label == "" {
		label = url
	}

	nodeID := g.createNode(NodeTypePage, label, PageMeta{URL: url}, timestamp)

	if previous, ok := g.pages[url]; ok {
		g.logger.Debug("Page index entry replaced",
			zap.String("url", url),
			zap.String("previous_id", previous),
			zap.String("node_id", nodeID),
		)
	}
	g.pages[url] = nodeID
	return nodeID
}

// AddEntity returns the node id for an entity, creating it if no entity
// with the same normalized label exists yet
func (g *KnowledgeGraph) AddEntity(label, entityType string) string {
	nodeID, _ := g.AddEntityWithStatus(label, entityType)
	return nodeID
}

// AddEntityWithStatus is AddEntity that also reports whether the entity
// was created or resolved to an existing node. The entityType of a
// deduplicated call is ignored.
func (g *KnowledgeGraph) AddEntityWithStatus(label, entityType string) (string, AddStatus) {
	key := normalizeLabel(label)
	if existing, ok := g.entitiesByLabel[key]; ok {
		g.logger.Debug("Entity deduplicated",
			zap.String("label", label),
			zap.String("node_id", existing),
		)
		return existing, StatusDeduplicated
	}

	nodeID := g.createNode(NodeTypeEntity, label, EntityMeta{EntityType: entityType}, time.Time{})
	g.entitiesByLabel[key] = nodeID
	return nodeID, StatusCreated
}

// AddSnippet records a text snippet taken from a page. The source page is
// stored as given and not checked against existing nodes.
func (g *KnowledgeGraph) AddSnippet(text, sourcePageID string) string {
	nodeID := g.createNode(
		NodeTypeSnippet,
		truncateLabel(text, SnippetLabelLimit),
		SnippetMeta{FullText: text, SourcePageID: sourcePageID},
		time.Time{},
	)
	g.snippets[nodeID] = nodeID
	return nodeID
}

// ============================================================================
// Edge Operations
// ============================================================================

// AddEdge appends a directed edge. It does nothing if either endpoint is
// not a node in the graph.
func (g *KnowledgeGraph) AddEdge(from, to string, edgeType EdgeType) {
	g.AddEdgeWithStatus(from, to, edgeType)
}

// AddEdgeWithStatus is AddEdge that reports whether the edge was stored
func (g *KnowledgeGraph) AddEdgeWithStatus(from, to string, edgeType EdgeType) AddStatus {
	source, ok := g.nodes[from]
	if !ok {
		g.logger.Debug("Edge dropped, missing source", zap.String("source", from), zap.String("type", string(edgeType)))
		return StatusDroppedMissingEndpoint
	}
	target, ok := g.nodes[to]
	if !ok {
		g.logger.Debug("Edge dropped, missing target", zap.String("target", to), zap.String("type", string(edgeType)))
		return StatusDroppedMissingEndpoint
	}

	g.edges = append(g.edges, Edge{Source: from, Target: to, Type: edgeType})

	// Degree is counted per endpoint occurrence, so a self-loop counts twice
	if source.Type == NodeTypeEntity {
		g.bumpDegree(from)
	}
	if target.Type == NodeTypeEntity {
		g.bumpDegree(to)
	}
	return StatusCreated
}

func (g *KnowledgeGraph) bumpDegree(entityID string) {
	if _, seen := g.degree[entityID]; !seen {
		g.degreeFirstSeen = append(g.degreeFirstSeen, entityID)
	}
	g.degree[entityID]++
}
