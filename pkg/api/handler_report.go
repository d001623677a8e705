package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/compasshq/compass/ent/report"
)

// GetReport handles GET /api/v1/chat/threads/:threadID/reports/:kind
func (s *Server) GetReport(c *gin.Context) {
	threadID := c.Param("threadID")
	kind := c.Param("kind")

	if _, err := s.threads.GetThread(c.Request.Context(), currentUserID(c), threadID); err != nil {
		respondServiceError(c, err)
		return
	}

	rep, err := s.reports.GetReport(c.Request.Context(), threadID, kind)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportResponse(rep))
}

// SaveReport handles PATCH /api/v1/chat/threads/:threadID/reports/:kind
func (s *Server) SaveReport(c *gin.Context) {
	threadID := c.Param("threadID")
	kind := c.Param("kind")

	var req SaveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.threads.GetThread(c.Request.Context(), currentUserID(c), threadID); err != nil {
		respondServiceError(c, err)
		return
	}

	rep, err := s.reports.UpsertReport(c.Request.Context(), threadID, kind, req.Content, req.Status, report.StatusGenerated)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportResponse(rep))
}

// FinalizeReport handles PATCH /api/v1/chat/threads/:threadID/reports/:kind/finalize
func (s *Server) FinalizeReport(c *gin.Context) {
	threadID := c.Param("threadID")
	kind := c.Param("kind")

	if _, err := s.threads.GetThread(c.Request.Context(), currentUserID(c), threadID); err != nil {
		respondServiceError(c, err)
		return
	}

	rep, err := s.reports.FinalizeReport(c.Request.Context(), threadID, kind)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReportResponse(rep))
}
