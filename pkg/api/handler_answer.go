package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SaveAnswers handles POST /api/v1/workshop/stages/:stage/answers
func (s *Server) SaveAnswers(c *gin.Context) {
	var req SaveAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := s.answers.SaveAnswers(c.Request.Context(), currentUserID(c), c.Param("stage"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"answers": toAnswerResponses(saved)})
}

// ListAnswers handles GET /api/v1/workshop/stages/:stage/answers
func (s *Server) ListAnswers(c *gin.Context) {
	answers, err := s.answers.ListAnswers(c.Request.Context(), currentUserID(c), c.Param("stage"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answers": toAnswerResponses(answers)})
}

// UpdateAnswer handles PUT /api/v1/workshop/stages/:stage/answers/:question
func (s *Server) UpdateAnswer(c *gin.Context) {
	var req UpdateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := s.answers.UpdateAnswer(c.Request.Context(), currentUserID(c), c.Param("stage"), c.Param("question"), req.Response)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAnswerResponse(a))
}

// DeleteAnswers handles DELETE /api/v1/workshop/stages/:stage/answers
func (s *Server) DeleteAnswers(c *gin.Context) {
	n, err := s.answers.DeleteAnswers(c.Request.Context(), currentUserID(c), c.Param("stage"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
