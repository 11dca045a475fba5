package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"continuum/backend/internal/archive"
	"continuum/backend/internal/graph"
	"continuum/backend/internal/ingest"
	"continuum/backend/internal/session"
	apperrors "continuum/backend/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ============================================================================
// Graph Writes
// ============================================================================

type addPageRequest struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

type addEntityRequest struct {
	Label string `json:"label"`
	Type  string `json:"type"`
}

type addSnippetRequest struct {
	Text         string `json:"text"`
	SourcePageID string `json:"source_page_id"`
}

type addEdgeRequest struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   graph.EdgeType `json:"type"`
}

type ingestRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

type extractEntitiesRequest struct {
	Text string `json:"text"`
}

type ingestBatchRequest struct {
	URLs []string `json:"urls"`
}

type batchItem struct {
	URL    string         `json:"url"`
	Result *ingest.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (s *Server) addPage(c *gin.Context, sess *session.Session) {
	var req addPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(c, apperrors.NewInvalidInput("url", "required"))
		return
	}

	var id string
	sess.Do(func(g *graph.KnowledgeGraph) {
		id = g.AddPage(req.URL, req.Title, req.Timestamp)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (s *Server) addEntity(c *gin.Context, sess *session.Session) {
	var req addEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		respondError(c, apperrors.NewInvalidInput("label", "required"))
		return
	}

	var id string
	var status graph.AddStatus
	sess.Do(func(g *graph.KnowledgeGraph) {
		id, status = g.AddEntityWithStatus(req.Label, req.Type)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "status": status})
}

func (s *Server) addSnippet(c *gin.Context, sess *session.Session) {
	var req addSnippetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var id string
	sess.Do(func(g *graph.KnowledgeGraph) {
		id = g.AddSnippet(req.Text, req.SourcePageID)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (s *Server) addEdge(c *gin.Context, sess *session.Session) {
	var req addEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	// Edge types are open tags, but must stay archivable
	if !archive.ValidRelationshipType(string(req.Type)) {
		respondError(c, apperrors.NewInvalidInput("type", "must be a non-empty identifier"))
		return
	}

	var status graph.AddStatus
	sess.Do(func(g *graph.KnowledgeGraph) {
		status = g.AddEdgeWithStatus(req.Source, req.Target, req.Type)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

func (s *Server) linkRelated(c *gin.Context, sess *session.Session) {
	var added int
	sess.Do(func(g *graph.KnowledgeGraph) {
		added = g.LinkRelatedEntities()
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "edges_added": added})
}

// ============================================================================
// Ingestion
// ============================================================================

func (s *Server) ingestPage(c *gin.Context, sess *session.Session) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(c, apperrors.NewInvalidInput("url", "required"))
		return
	}

	ctx := c.Request.Context()
	var doc *ingest.Document
	var err error
	if req.HTML != "" {
		doc, err = ingest.ParseHTML(req.URL, strings.NewReader(req.HTML))
	} else {
		doc, err = s.fetcher.Fetch(ctx, req.URL)
	}
	if err != nil {
		s.logger.Warn("Failed to load page", zap.String("url", req.URL), zap.Error(err))
		respondError(c, err)
		return
	}
	if req.Title != "" {
		doc.Title = req.Title
	}

	// Extraction may call the LLM, so it runs before the session lock is taken
	if err := s.pipeline.Prepare(ctx, doc); err != nil {
		respondError(c, err)
		return
	}

	var res ingest.Result
	sess.Do(func(g *graph.KnowledgeGraph) {
		res = s.pipeline.Apply(g, doc, time.Now())
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

func (s *Server) extractEntities(c *gin.Context, sess *session.Session) {
	var req extractEntitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(c, apperrors.NewInvalidInput("text", "required"))
		return
	}

	// Extraction may call the LLM, so it runs before the session lock is taken
	candidates, source := s.extractor.Extract(c.Request.Context(), req.Text)

	labels := make([]string, 0, len(candidates))
	ids := make([]string, 0, len(candidates))
	created := 0
	var total int
	sess.Do(func(g *graph.KnowledgeGraph) {
		for _, cand := range candidates {
			id, status := g.AddEntityWithStatus(cand.Label, cand.Type)
			if status == graph.StatusCreated {
				created++
			}
			labels = append(labels, cand.Label)
			ids = append(ids, id)
		}
		total = g.Stats().Entities
	})

	s.logger.Debug("Entities extracted from text",
		zap.String("session_id", sess.ID),
		zap.String("source", source),
		zap.Int("extracted", len(ids)),
		zap.Int("created", created),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"entities":      labels,
		"entityIds":     ids,
		"created":       created,
		"source":        source,
		"totalEntities": total,
	})
}

func (s *Server) ingestBatch(c *gin.Context, sess *session.Session) {
	var req ingestBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.URLs) == 0 {
		respondError(c, apperrors.NewInvalidInput("urls", "at least one url is required"))
		return
	}

	ctx := c.Request.Context()
	fetched := s.fetcher.FetchAll(ctx, req.URLs)

	items := make([]batchItem, len(fetched))
	for i, fr := range fetched {
		items[i].URL = fr.URL
		if fr.Err == nil {
			fr.Err = s.pipeline.Prepare(ctx, fr.Document)
		}
		if fr.Err != nil {
			items[i].Error = fr.Err.Error()
			fetched[i].Document = nil
		}
	}

	ingested := 0
	sess.Do(func(g *graph.KnowledgeGraph) {
		now := time.Now()
		for i, fr := range fetched {
			if fr.Document == nil {
				continue
			}
			res := s.pipeline.Apply(g, fr.Document, now)
			items[i].Result = &res
			ingested++
		}
	})

	s.logger.Info("Batch ingested",
		zap.String("session_id", sess.ID),
		zap.Int("requested", len(req.URLs)),
		zap.Int("ingested", ingested),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"ingested": ingested,
		"results":  items,
	})
}

// ============================================================================
// Graph Queries
// ============================================================================

func (s *Server) mainTopics(c *gin.Context, sess *session.Session) {
	topN, err := queryInt(c, "top_n", graph.DefaultTopN)
	if err != nil {
		respondError(c, err)
		return
	}

	var topics []graph.Topic
	sess.View(func(g *graph.KnowledgeGraph) {
		topics = g.MainTopics(topN)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "topics": topics})
}

func (s *Server) summary(c *gin.Context, sess *session.Session) {
	var summary graph.Summary
	sess.View(func(g *graph.KnowledgeGraph) {
		summary = g.Summary()
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

func (s *Server) search(c *gin.Context, sess *session.Session) {
	maxResults, err := queryInt(c, "max_results", graph.DefaultMaxResults)
	if err != nil {
		respondError(c, err)
		return
	}
	query := c.Query("q")

	var results []graph.SearchResult
	sess.View(func(g *graph.KnowledgeGraph) {
		results = g.Search(query, maxResults)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (s *Server) export(c *gin.Context, sess *session.Session) {
	var export graph.Export
	sess.View(func(g *graph.KnowledgeGraph) {
		export = g.ExportForVisualization()
	})

	c.JSON(http.StatusOK, export)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidInput(key, "must be an integer")
	}
	return n, nil
}
