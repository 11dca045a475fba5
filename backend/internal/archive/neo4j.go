package archive

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"continuum/backend/internal/graph"
	apperrors "continuum/backend/pkg/errors"
	"continuum/backend/pkg/logger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Neo4j Session Archive
// ============================================================================

// Record is an ended session ready to be archived
type Record struct {
	SessionID   string
	UserID      string
	CurrentTask string
	StartTime   time.Time
	EndTime     time.Time
	Summary     string
	Graph       graph.Export
}

// Neo4jArchiver writes ended session graphs to Neo4j. It only writes;
// nothing is ever loaded back into a live session.
type Neo4jArchiver struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

var relTypePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidRelationshipType reports whether an edge type can be stored as a
// Neo4j relationship type
func ValidRelationshipType(edgeType string) bool {
	return relTypePattern.MatchString(edgeType)
}

// NewNeo4jArchiver creates an archiver over an open driver
func NewNeo4jArchiver(driver neo4j.DriverWithContext) *Neo4jArchiver {
	return &Neo4jArchiver{
		driver: driver,
		logger: logger.Named("archive"),
	}
}

// Connect opens a driver and verifies connectivity
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (a *Neo4jArchiver) Close(ctx context.Context) error {
	return a.driver.Close(ctx)
}

// Archive writes the session, its nodes and its edges in one transaction
func (a *Neo4jArchiver) Archive(ctx context.Context, rec Record) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (s:Session {id: $sessionID})
			SET s.user_id = $userID,
				s.current_task = $currentTask,
				s.start_time = datetime($startTime),
				s.end_time = datetime($endTime),
				s.summary = $summary
		`, map[string]any{
			"sessionID":   rec.SessionID,
			"userID":      rec.UserID,
			"currentTask": rec.CurrentTask,
			"startTime":   rec.StartTime.UTC().Format(time.RFC3339),
			"endTime":     rec.EndTime.UTC().Format(time.RFC3339),
			"summary":     rec.Summary,
		}); err != nil {
			return nil, err
		}

		if _, err := tx.Run(ctx, `
			MATCH (s:Session {id: $sessionID})
			UNWIND $nodes AS n
			MERGE (k:KnowledgeNode {id: n.id})
			SET k.type = n.type,
				k.label = n.label,
				k.timestamp = datetime(n.timestamp),
				k += n.metadata
			MERGE (s)-[:RECORDED]->(k)
		`, map[string]any{
			"sessionID": rec.SessionID,
			"nodes":     nodeParams(rec.Graph.Nodes),
		}); err != nil {
			return nil, err
		}

		for relType, pairs := range edgeParams(rec.Graph.Edges) {
			if !ValidRelationshipType(relType) {
				a.logger.Warn("Skipping edges with unsafe relationship type", zap.String("type", relType))
				continue
			}
			// Relationship types cannot be parameterized; relType is validated above
			query := fmt.Sprintf(`
				UNWIND $edges AS e
				MATCH (a:KnowledgeNode {id: e.source})
				MATCH (b:KnowledgeNode {id: e.target})
				CREATE (a)-[:%s]->(b)
			`, relType)
			if _, err := tx.Run(ctx, query, map[string]any{"edges": pairs}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return apperrors.NewArchiveFailed(rec.SessionID, err)
	}

	a.logger.Info("Session archived",
		zap.String("session_id", rec.SessionID),
		zap.Int("nodes", rec.Graph.Stats.Nodes),
		zap.Int("edges", rec.Graph.Stats.Edges),
	)
	return nil
}

// nodeParams flattens nodes into Cypher parameters. Metadata keys become
// node properties.
func nodeParams(nodes []graph.Node) []map[string]any {
	params := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		params = append(params, map[string]any{
			"id":        n.ID,
			"type":      string(n.Type),
			"label":     n.Label,
			"timestamp": n.Timestamp.UTC().Format(time.RFC3339Nano),
			"metadata":  metadataProps(n.Metadata),
		})
	}
	return params
}

func metadataProps(meta graph.NodeMetadata) map[string]any {
	switch m := meta.(type) {
	case graph.PageMeta:
		return map[string]any{"url": m.URL}
	case graph.EntityMeta:
		return map[string]any{"entity_type": m.EntityType}
	case graph.SnippetMeta:
		return map[string]any{"full_text": m.FullText, "source_page_id": m.SourcePageID}
	}
	return map[string]any{}
}

// edgeParams groups edges by type, keeping duplicates
func edgeParams(edges []graph.Edge) map[string][]map[string]any {
	grouped := make(map[string][]map[string]any)
	for _, e := range edges {
		grouped[string(e.Type)] = append(grouped[string(e.Type)], map[string]any{
			"source": e.Source,
			"target": e.Target,
		})
	}
	return grouped
}
