package graph

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Node and Edge Types
// ============================================================================

// NodeType tags the kind of fact a node records
type NodeType string

const (
	NodeTypePage    NodeType = "page"
	NodeTypeEntity  NodeType = "entity"
	NodeTypeSnippet NodeType = "snippet"
)

// EdgeType tags a directed relationship
type EdgeType string

const (
	// EdgeMentions links a page to an entity it references
	EdgeMentions EdgeType = "MENTIONS"
	// EdgeRelatedTo links two entities that co-occur on a page
	EdgeRelatedTo EdgeType = "RELATED_TO"
	// EdgeContains links a page to a snippet taken from it
	EdgeContains EdgeType = "CONTAINS"
)

// Node is a typed fact in the graph
type Node struct {
	ID        string       `json:"id"`
	Type      NodeType     `json:"type"`
	Label     string       `json:"label"`
	Timestamp time.Time    `json:"timestamp"`
	Metadata  NodeMetadata `json:"metadata"`
}

// Edge is a directed, typed relationship between two existing nodes
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
}

// ============================================================================
// Node Metadata
// ============================================================================

// NodeMetadata is the per-type payload of a node. Exactly one of
// PageMeta, EntityMeta or SnippetMeta implements it for each NodeType.
type NodeMetadata interface {
	nodeType() NodeType
}

// PageMeta is carried by page nodes
type PageMeta struct {
	URL string `json:"url"`
}

// EntityMeta is carried by entity nodes
type EntityMeta struct {
	EntityType string `json:"entity_type"`
}

// SnippetMeta is carried by snippet nodes
type SnippetMeta struct {
	FullText     string `json:"full_text"`
	SourcePageID string `json:"source_page_id"`
}

func (PageMeta) nodeType() NodeType    { return NodeTypePage }
func (EntityMeta) nodeType() NodeType  { return NodeTypeEntity }
func (SnippetMeta) nodeType() NodeType { return NodeTypeSnippet }

// UnmarshalJSON decodes the metadata variant matching the node type
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string          `json:"id"`
		Type      NodeType        `json:"type"`
		Label     string          `json:"label"`
		Timestamp time.Time       `json:"timestamp"`
		Metadata  json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.ID = raw.ID
	n.Type = raw.Type
	n.Label = raw.Label
	n.Timestamp = raw.Timestamp
	n.Metadata = nil

	if len(raw.Metadata) == 0 || string(raw.Metadata) == "null" {
		return nil
	}

	switch raw.Type {
	case NodeTypePage:
		var m PageMeta
		if err := json.Unmarshal(raw.Metadata, &m); err != nil {
			return err
		}
		n.Metadata = m
	case NodeTypeEntity:
		var m EntityMeta
		if err := json.Unmarshal(raw.Metadata, &m); err != nil {
			return err
		}
		n.Metadata = m
	case NodeTypeSnippet:
		var m SnippetMeta
		if err := json.Unmarshal(raw.Metadata, &m); err != nil {
			return err
		}
		n.Metadata = m
	}
	return nil
}

// EntityType returns the entity_type of an entity node, or "" for other nodes
func (n *Node) EntityType() string {
	if m, ok := n.Metadata.(EntityMeta); ok {
		return m.EntityType
	}
	return ""
}

// URL returns the url of a page node, or "" for other nodes
func (n *Node) URL() string {
	if m, ok := n.Metadata.(PageMeta); ok {
		return m.URL
	}
	return ""
}

// ============================================================================
// Query Results
// ============================================================================

// Topic is an entity ranked by degree
type Topic struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	EntityType string `json:"entity_type"`
	Degree     int    `json:"degree"`
}

// Summary is the high-level view used for prediction prompts
type Summary struct {
	PageCount   int     `json:"page_count"`
	EntityCount int     `json:"entity_count"`
	TopEntities []Topic `json:"top_entities"`
}

// SearchResult is a node matched by label
type SearchResult struct {
	ID       string       `json:"id"`
	Type     NodeType     `json:"type"`
	Label    string       `json:"label"`
	Metadata NodeMetadata `json:"metadata"`
}

// Stats holds aggregate counts for an export
type Stats struct {
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Pages    int `json:"pages"`
	Entities int `json:"entities"`
}

// Export is the full graph in plain structural form
type Export struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

// AddStatus reports what an add operation did
type AddStatus string

const (
	StatusCreated                AddStatus = "created"
	StatusDeduplicated           AddStatus = "deduplicated"
	StatusDroppedMissingEndpoint AddStatus = "dropped_missing_endpoint"
)
