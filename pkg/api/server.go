// Package api exposes the workshop engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/compasshq/compass/pkg/config"
	"github.com/compasshq/compass/pkg/database"
	"github.com/compasshq/compass/pkg/engine"
	"github.com/compasshq/compass/pkg/services"
	"github.com/compasshq/compass/pkg/version"
)

// Server wires the service layer into HTTP handlers.
type Server struct {
	cfg     *config.Config
	db      *database.Client
	auth    *services.AuthService
	threads *services.ThreadService
	turns   *services.TurnService
	reports *services.ReportService
	answers *services.AnswerService
	engine  *engine.Engine

	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, db *database.Client, auth *services.AuthService, threads *services.ThreadService, turns *services.TurnService, reports *services.ReportService, answers *services.AnswerService, eng *engine.Engine) *Server {
	return &Server{
		cfg:     cfg,
		db:      db,
		auth:    auth,
		threads: threads,
		turns:   turns,
		reports: reports,
		answers: answers,
		engine:  eng,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), securityHeaders())

	api := r.Group("/api/v1")
	api.GET("/health", s.Health)

	auth := api.Group("/auth")
	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)

	protected := api.Group("", s.requireAuth())
	protected.POST("/workshop/turns", s.RunStageTurn)

	stageAnswers := protected.Group("/workshop/stages/:stage/answers")
	stageAnswers.POST("", s.SaveAnswers)
	stageAnswers.GET("", s.ListAnswers)
	stageAnswers.PUT("/:question", s.UpdateAnswer)
	stageAnswers.DELETE("", s.DeleteAnswers)

	chat := protected.Group("/chat")
	chat.POST("/threads", s.CreateThread)
	chat.GET("/threads", s.ListThreads)
	chat.GET("/threads/:threadID/messages", s.ListMessages)
	chat.GET("/threads/:threadID/reports/:kind", s.GetReport)
	chat.PATCH("/threads/:threadID/reports/:kind", s.SaveReport)
	chat.PATCH("/threads/:threadID/reports/:kind/finalize", s.FinalizeReport)

	return r
}

// Start begins serving HTTP on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Health handles GET /api/v1/health
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(ctx, s.db.DB())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": dbHealth,
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  version.Full(),
		"database": dbHealth,
	})
}
