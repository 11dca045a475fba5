package api

import (
	"net/http"
	"time"

	"continuum/backend/internal/session"
	apperrors "continuum/backend/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ============================================================================
// Session Lifecycle
// ============================================================================

type startSessionRequest struct {
	UserID      string `json:"userId"`
	CurrentTask string `json:"currentTask"`
}

type updateSessionRequest struct {
	CurrentTask         *string           `json:"currentTask"`
	Activities          []string          `json:"activities"`
	Activity            string            `json:"activity"`
	ConversationHistory []session.Message `json:"conversationHistory"`
}

// sessionStat is one entry of the live-session listing
type sessionStat struct {
	ID          string    `json:"id"`
	StartTime   time.Time `json:"startTime"`
	CurrentTask string    `json:"currentTask"`
	Entities    int       `json:"entities"`
}

func (s *Server) startSession(c *gin.Context) {
	var req startSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	sess := s.store.Start(req.UserID, req.CurrentTask)
	s.logger.Info("Session started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sess.Info(),
	})
}

func (s *Server) getSession(c *gin.Context, sess *session.Session) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sess.Info(),
	})
}

func (s *Server) updateSession(c *gin.Context, sess *session.Session) {
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	activities := req.Activities
	if req.Activity != "" {
		activities = append(activities, req.Activity)
	}
	sess.Update(req.CurrentTask, activities)
	if req.ConversationHistory != nil {
		sess.SetConversation(req.ConversationHistory)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sess.Info(),
	})
}

func (s *Server) endSession(c *gin.Context) {
	id := c.Param("id")
	sess, ok := s.store.End(id)
	if !ok {
		respondError(c, apperrors.NewSessionNotFound(id))
		return
	}

	summary := s.Finalize(c.Request.Context(), sess)
	s.logger.Info("Session ended",
		zap.String("session_id", id),
		zap.String("duration", summary.Duration),
		zap.Int("entities", summary.EntitiesLearned),
		zap.Int("messages", summary.MessagesExchanged),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"sessionSummary": summary,
	})
}

func (s *Server) sessionStats(c *gin.Context) {
	sessions := s.store.List()
	stats := make([]sessionStat, 0, len(sessions))
	for _, sess := range sessions {
		info := sess.Info()
		stats = append(stats, sessionStat{
			ID:          info.ID,
			StartTime:   info.StartTime,
			CurrentTask: info.CurrentTask,
			Entities:    info.Stats.Entities,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"activeSessions": len(stats),
		"sessions":       stats,
	})
}
