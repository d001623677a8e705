package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/compasshq/compass/pkg/config"
	"github.com/compasshq/compass/pkg/engine"
	"github.com/compasshq/compass/pkg/services"
)

// respondServiceError translates service and engine errors into HTTP
// responses. Unrecognized errors are logged and returned as 500s
// without leaking detail.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var runFailed *engine.RunFailedError
	var runTimeout *engine.RunTimeoutError
	var noOutput *engine.NoAssistantOutputError
	var threadCreation *services.ThreadCreationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, config.ErrStageNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, services.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.As(err, &threadCreation), errors.As(err, &runFailed), errors.As(err, &noOutput):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &runTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		slog.Error("Unhandled API error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
