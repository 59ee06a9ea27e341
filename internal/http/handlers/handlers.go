package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/config"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/ingest"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/service"
)

// RunReader is the read side of the run store. *db.Store implements it.
type RunReader interface {
	Ping(ctx context.Context) error
	GetLatestRun(ctx context.Context, status string) (models.Run, error)
	ListRunAssignments(ctx context.Context, runID, category, reviewer string) ([]models.RunAssignment, error)
}

type Handler struct {
	// Store is nil when the server runs without a database.
	Store     RunReader
	Service   *service.ProcessingService
	Settings  config.RunSettings
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeRunError maps run failures to the error envelope: configuration
// problems are the caller's fault, everything else is ours.
func writeRunError(c *gin.Context, err error) {
	var cfgErr *service.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		writeError(c, http.StatusBadRequest, cfgErr.Code, "Invalid run configuration", cfgErr.Error())
	case errors.Is(err, ingest.ErrMissingColumns):
		writeError(c, http.StatusBadRequest, service.CodeMissingColumns, "Invalid input table", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Distribution failed", err.Error())
	}
}
