package api

import (
	"net/http"
	"strings"
	"time"

	"continuum/backend/internal/adapter"
	"continuum/backend/internal/constants"
	"continuum/backend/internal/graph"
	"continuum/backend/internal/session"
	apperrors "continuum/backend/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ============================================================================
// Companion Chat
// ============================================================================

type sessionContextRequest struct {
	CurrentTask    string   `json:"currentTask"`
	RecentActivity []string `json:"recentActivity"`
	KnowledgeGraph struct {
		Entities []string `json:"entities"`
	} `json:"knowledgeGraph"`
}

type chatMessageRequest struct {
	Message             string                `json:"message"`
	ConversationHistory []session.Message     `json:"conversationHistory"`
	SessionContext      sessionContextRequest `json:"sessionContext"`
	SessionID           string                `json:"sessionId"`
}

type focusCheckRequest struct {
	SessionContext sessionContextRequest `json:"sessionContext"`
	SessionID      string                `json:"sessionId"`
}

type motivationRequest struct {
	Context string `json:"context"`
}

func (s *Server) chatMessage(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewInvalidInput("message", "required and must be a string"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(c, apperrors.NewInvalidInput("message", "required and must be a string"))
		return
	}
	if s.companion == nil {
		respondError(c, apperrors.ErrLLMDisabled)
		return
	}

	cc := chatContext(req.SessionContext)
	history := req.ConversationHistory

	var sess *session.Session
	if req.SessionID != "" {
		var ok bool
		sess, ok = s.store.Get(req.SessionID)
		if !ok {
			respondError(c, apperrors.NewSessionNotFound(req.SessionID))
			return
		}
		cc = s.sessionChatContext(sess, cc)
		if len(history) == 0 {
			history = sess.RecentConversation(constants.ChatHistoryWindow)
		}
	}

	reply, err := s.companion.Chat(c.Request.Context(), req.Message, history, cc)
	if err != nil {
		s.logger.Error("Chat request failed", zap.String("session_id", req.SessionID), zap.Error(err))
		respondError(c, err)
		return
	}

	if sess != nil {
		sess.AppendConversation(
			session.Message{Type: session.MessageTypeUser, Text: req.Message},
			session.Message{Type: session.MessageTypeAI, Text: reply},
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   reply,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) focusCheck(c *gin.Context) {
	var req focusCheckRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	task := req.SessionContext.CurrentTask
	if req.SessionID != "" {
		sess, ok := s.store.Get(req.SessionID)
		if !ok {
			respondError(c, apperrors.NewSessionNotFound(req.SessionID))
			return
		}
		if task == "" {
			task = sess.Info().CurrentTask
		}
	}

	prompt := adapter.FallbackFocusCheckIn()
	if s.companion != nil {
		prompt = s.companion.FocusCheckIn(c.Request.Context(), task)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"prompt":    prompt,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) motivation(c *gin.Context) {
	var req motivationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	message := adapter.FallbackMotivation()
	if s.companion != nil {
		message = s.companion.Motivation(c.Request.Context(), req.Context)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func chatContext(req sessionContextRequest) adapter.ChatContext {
	return adapter.ChatContext{
		CurrentTask:    req.CurrentTask,
		RecentActivity: req.RecentActivity,
		KnownConcepts:  req.KnowledgeGraph.Entities,
	}
}

// sessionChatContext fills cc from a live session. Known concepts always
// come from the session graph; task and activity only when the caller sent
// none.
func (s *Server) sessionChatContext(sess *session.Session, cc adapter.ChatContext) adapter.ChatContext {
	info := sess.Info()
	if cc.CurrentTask == "" {
		cc.CurrentTask = info.CurrentTask
	}
	if len(cc.RecentActivity) == 0 {
		activities := info.Activities
		if len(activities) > constants.RecentActivityWindow {
			activities = activities[len(activities)-constants.RecentActivityWindow:]
		}
		cc.RecentActivity = activities
	}

	var topics []graph.Topic
	sess.View(func(g *graph.KnowledgeGraph) {
		topics = g.MainTopics(constants.ChatKnownConcepts)
	})
	concepts := make([]string, 0, len(topics))
	for _, t := range topics {
		concepts = append(concepts, t.Label)
	}
	cc.KnownConcepts = concepts
	return cc
}
