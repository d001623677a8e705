package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateThread handles POST /api/v1/chat/threads
func (s *Server) CreateThread(c *gin.Context) {
	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, created, err := s.threads.GetOrCreateThread(c.Request.Context(), currentUserID(c), req.Stage, req.ForceNew)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toThreadResponse(thread))
}

// ListThreads handles GET /api/v1/chat/threads
func (s *Server) ListThreads(c *gin.Context) {
	threads, err := s.threads.ListThreads(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]ThreadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, toThreadResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"threads": out})
}

// ListMessages handles GET /api/v1/chat/threads/:threadID/messages
func (s *Server) ListMessages(c *gin.Context) {
	threadID := c.Param("threadID")

	// Ownership check before exposing turns.
	if _, err := s.threads.GetThread(c.Request.Context(), currentUserID(c), threadID); err != nil {
		respondServiceError(c, err)
		return
	}

	turns, err := s.turns.ListTurns(c.Request.Context(), threadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": toTurnResponses(turns)})
}
