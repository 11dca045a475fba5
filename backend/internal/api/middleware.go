package api

import (
	"errors"
	"net/http"
	"time"

	"continuum/backend/internal/session"
	apperrors "continuum/backend/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ginLogger logs each request, at warn level for server errors
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("session_id", id))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("HTTP Request", fields...)
			return
		}
		log.Debug("HTTP Request", fields...)
	}
}

// cors allows the browser extension and dashboard to call the API
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type sessionHandler func(c *gin.Context, sess *session.Session)

// withSession resolves the :id path parameter to a live session
func (s *Server) withSession(h sessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		sess, ok := s.store.Get(id)
		if !ok {
			respondError(c, apperrors.NewSessionNotFound(id))
			return
		}
		h(c, sess)
	}
}

// respondError writes the JSON error envelope with a status derived from
// the error category
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, apperrors.ErrLLMDisabled):
		status, message = http.StatusServiceUnavailable, "AI companion is not configured"
	case apperrors.IsErrorType(err, apperrors.ErrorTypeSession):
		status, message = http.StatusNotFound, "Session not found"
	case apperrors.IsErrorType(err, apperrors.ErrorTypeValidation):
		status, message = http.StatusBadRequest, err.Error()
	case apperrors.IsErrorType(err, apperrors.ErrorTypeIngest):
		status, message = http.StatusBadGateway, err.Error()
	case apperrors.IsErrorType(err, apperrors.ErrorTypeLLM):
		status, message = http.StatusBadGateway, "Failed to get response from the AI companion"
	}

	c.JSON(status, gin.H{
		"error":   message,
		"success": false,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   err.Error(),
		"success": false,
	})
}
