package graph

import (
	"time"

	"continuum/backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTopN is the number of topics returned when none is requested
	DefaultTopN = 5
	// SummaryTopN is the number of topics included in a summary
	SummaryTopN = 10
	// DefaultMaxResults caps search results when no limit is requested
	DefaultMaxResults = 10
	// SnippetLabelLimit is the rune length past which snippet labels are truncated
	SnippetLabelLimit = 120
	// Ellipsis marks a truncated snippet label
	Ellipsis = "…"
)

// KnowledgeGraph is the in-memory fact store for a single session.
//
// It is not safe for concurrent mutation. Callers that share an instance
// across goroutines must serialize access themselves; see session.Session.
type KnowledgeGraph struct {
	sessionID string
	createdAt time.Time

	// Core storage
	nodes map[string]*Node
	order []string // node ids in insertion order
	edges []Edge

	// Indexes
	pages           map[string]string // url -> node id
	entitiesByLabel map[string]string // normalized label -> node id
	snippets        map[string]string // node id -> node id
	degree          map[string]int    // entity id -> endpoint count
	degreeFirstSeen []string          // entity ids in first-endpoint order

	logger *zap.Logger
	now    func() time.Time
}

// New creates an empty graph for a session
func New(sessionID string) *KnowledgeGraph {
	return &KnowledgeGraph{
		sessionID:       sessionID,
		createdAt:       time.Now(),
		nodes:           make(map[string]*Node),
		pages:           make(map[string]string),
		entitiesByLabel: make(map[string]string),
		snippets:        make(map[string]string),
		degree:          make(map[string]int),
		logger:          logger.Get().With(zap.String("session_id", sessionID)),
		now:             time.Now,
	}
}

// SessionID returns the session this graph belongs to
func (g *KnowledgeGraph) SessionID() string {
	return g.sessionID
}

// CreatedAt returns when the graph was created
func (g *KnowledgeGraph) CreatedAt() time.Time {
	return g.createdAt
}

// NodeCount returns the number of nodes in the graph
func (g *KnowledgeGraph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of edges in the graph
func (g *KnowledgeGraph) EdgeCount() int {
	return len(g.edges)
}

// Node returns a copy of the node with the given id
func (g *KnowledgeGraph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// PageByURL returns the node id most recently registered for url
func (g *KnowledgeGraph) PageByURL(url string) (string, bool) {
	id, ok := g.pages[url]
	if !ok {
		return "", false
	}
	if _, exists := g.nodes[id]; !exists {
		return "", false
	}
	return id, true
}

// EntityByLabel returns the entity node id for a label, using the same
// normalization as AddEntity
func (g *KnowledgeGraph) EntityByLabel(label string) (string, bool) {
	id, ok := g.entitiesByLabel[normalizeLabel(label)]
	if !ok {
		return "", false
	}
	if _, exists := g.nodes[id]; !exists {
		return "", false
	}
	return id, true
}

// Edges returns a copy of all edges in insertion order
func (g *KnowledgeGraph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// createNode stores a new node and returns its id. A zero timestamp
// means the fact is recorded now.
func (g *KnowledgeGraph) createNode(nodeType NodeType, label string, metadata NodeMetadata, timestamp time.Time) string {
	if timestamp.IsZero() {
		timestamp = g.now()
	}

	nodeID := uuid.New().String()
	g.nodes[nodeID] = &Node{
		ID:        nodeID,
		Type:      nodeType,
		Label:     label,
		Timestamp: timestamp,
		Metadata:  metadata,
	}
	g.order = append(g.order, nodeID)
	return nodeID
}

// nodesInOrder yields stored nodes in insertion order
func (g *KnowledgeGraph) nodesInOrder() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		if n, ok := g.nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// countByType counts stored nodes of a type
func (g *KnowledgeGraph) countByType(nodeType NodeType) int {
	count := 0
	for _, n := range g.nodes {
		if n.Type == nodeType {
			count++
		}
	}
	return count
}
