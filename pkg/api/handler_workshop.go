package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunStageTurn handles POST /api/v1/workshop/turns
func (s *Server) RunStageTurn(c *gin.Context) {
	var req StageTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.engine.RunStageTurn(c.Request.Context(), currentUserID(c), req.Stage, req.Content, req.NewThread)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStageTurnResponse(result))
}
