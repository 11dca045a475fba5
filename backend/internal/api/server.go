package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"continuum/backend/internal/adapter"
	"continuum/backend/internal/archive"
	"continuum/backend/internal/graph"
	"continuum/backend/internal/ingest"
	"continuum/backend/internal/session"
	"continuum/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Summarizer produces the closing summary of a session
type Summarizer interface {
	SummarizeSession(ctx context.Context, d adapter.SessionDigest) string
}

// Archiver stores ended sessions somewhere outside the process
type Archiver interface {
	Archive(ctx context.Context, rec archive.Record) error
}

// Companion answers the user in the focus-companion persona
type Companion interface {
	Chat(ctx context.Context, message string, history []session.Message, cc adapter.ChatContext) (string, error)
	FocusCheckIn(ctx context.Context, task string) string
	Motivation(ctx context.Context, about string) string
}

// PageFetcher downloads and parses pages for ingestion
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*ingest.Document, error)
	FetchAll(ctx context.Context, urls []string) []ingest.FetchResult
}

// Server wires HTTP routes to the session store and ingestion pipeline
type Server struct {
	store      *session.Store
	pipeline   *ingest.Pipeline
	fetcher    PageFetcher
	extractor  *ingest.TextExtractor
	summarizer Summarizer
	companion  Companion
	archiver   Archiver
	logger     *zap.Logger
}

// Options holds the optional collaborators of a Server
type Options struct {
	Pipeline   *ingest.Pipeline
	Fetcher    PageFetcher
	Concepts   ingest.ConceptSource // nil extracts text entities heuristically
	Summarizer Summarizer           // nil uses adapter.FallbackSummary
	Companion  Companion            // nil disables chat and uses canned prompts
	Archiver   Archiver             // nil disables archiving
}

// NewServer creates a server over store
func NewServer(store *session.Store, opts Options) *Server {
	if opts.Pipeline == nil {
		opts.Pipeline = ingest.NewPipeline(nil)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = ingest.NewFetcher(ingest.FetcherConfig{})
	}
	return &Server{
		store:      store,
		pipeline:   opts.Pipeline,
		fetcher:    opts.Fetcher,
		extractor:  ingest.NewTextExtractor(opts.Concepts),
		summarizer: opts.Summarizer,
		companion:  opts.Companion,
		archiver:   opts.Archiver,
		logger:     logger.Named("api"),
	}
}

// Router builds the gin engine with all routes and middleware
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/health", s.health)

	api := router.Group("/api")
	{
		sessions := api.Group("/session")
		sessions.POST("/start", s.startSession)
		sessions.GET("/stats/all", s.sessionStats)
		sessions.GET("/:id", s.withSession(s.getSession))
		sessions.PUT("/:id", s.withSession(s.updateSession))
		sessions.POST("/:id/end", s.endSession)
		sessions.POST("/:id/extract-entities", s.withSession(s.extractEntities))

		chat := api.Group("/chat")
		chat.POST("/message", s.chatMessage)
		chat.POST("/focus-check", s.focusCheck)
		chat.POST("/motivation", s.motivation)

		g := sessions.Group("/:id/graph")
		g.POST("/pages", s.withSession(s.addPage))
		g.POST("/entities", s.withSession(s.addEntity))
		g.POST("/snippets", s.withSession(s.addSnippet))
		g.POST("/edges", s.withSession(s.addEdge))
		g.POST("/link", s.withSession(s.linkRelated))
		g.POST("/ingest", s.withSession(s.ingestPage))
		g.POST("/ingest/batch", s.withSession(s.ingestBatch))
		g.GET("/topics", s.withSession(s.mainTopics))
		g.GET("/summary", s.withSession(s.summary))
		g.GET("/search", s.withSession(s.search))
		g.GET("/export", s.withSession(s.export))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Route not found",
			"path":    c.Request.URL.Path,
			"success": false,
		})
	})

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Knowledge graph backend running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SessionSummary is returned when a session ends
type SessionSummary struct {
	ID                  string        `json:"id"`
	StartTime           time.Time     `json:"startTime"`
	EndTime             time.Time     `json:"endTime"`
	Duration            string        `json:"duration"`
	CurrentTask         string        `json:"currentTask"`
	EntitiesLearned     int           `json:"entitiesLearned"`
	ActivitiesCompleted int           `json:"activitiesCompleted"`
	MessagesExchanged   int           `json:"messagesExchanged"`
	TopEntities         []graph.Topic `json:"topEntities"`
	Summary             string        `json:"summary"`
}

// Finalize summarizes an ended session and archives it when an archiver is
// configured. Archive failures are logged, not returned.
func (s *Server) Finalize(ctx context.Context, sess *session.Session) SessionSummary {
	info := sess.Info()

	var digest graph.Summary
	var export graph.Export
	sess.View(func(g *graph.KnowledgeGraph) {
		digest = g.Summary()
		if s.archiver != nil {
			export = g.ExportForVisualization()
		}
	})

	end := time.Now()
	if info.EndTime != nil {
		end = *info.EndTime
	}

	text := adapter.FallbackSummary
	if s.summarizer != nil {
		text = s.summarizer.SummarizeSession(ctx, adapter.SessionDigest{
			CurrentTask: info.CurrentTask,
			Activities:  info.Activities,
			Graph:       digest,
		})
	}

	if s.archiver != nil {
		rec := archive.Record{
			SessionID:   info.ID,
			UserID:      info.UserID,
			CurrentTask: info.CurrentTask,
			StartTime:   info.StartTime,
			EndTime:     end,
			Summary:     text,
			Graph:       export,
		}
		if err := s.archiver.Archive(ctx, rec); err != nil {
			s.logger.Error("Failed to archive session", zap.String("session_id", info.ID), zap.Error(err))
		}
	}

	return SessionSummary{
		ID:                  info.ID,
		StartTime:           info.StartTime,
		EndTime:             end,
		Duration:            fmt.Sprintf("%d minutes", int(end.Sub(info.StartTime).Minutes())),
		CurrentTask:         info.CurrentTask,
		EntitiesLearned:     digest.EntityCount,
		ActivitiesCompleted: len(info.Activities),
		MessagesExchanged:   len(info.ConversationHistory),
		TopEntities:         digest.TopEntities,
		Summary:             text,
	}
}
