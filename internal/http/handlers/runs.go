package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/db"
)

// @Summary Latest run
// @Tags runs
// @Produce json
// @Param status query string false "RUNNING, SUCCESS or FAILED"
// @Success 200 {object} models.Run
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	if h.Store == nil {
		writeError(c, http.StatusServiceUnavailable, "DB_DISABLED", "Run history requires a database", nil)
		return
	}
	run, err := h.Store.GetLatestRun(c.Request.Context(), strings.ToUpper(c.Query("status")))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

// @Summary Run assignments
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Param categoria query string false "pre_atribuido, principal or sem_candidato"
// @Param informante query string false "Reviewer name"
// @Success 200 {object} map[string]any
// @Router /api/runs/{id}/assignments [get]
func (h *Handler) RunAssignments(c *gin.Context) {
	if h.Store == nil {
		writeError(c, http.StatusServiceUnavailable, "DB_DISABLED", "Run history requires a database", nil)
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid run id", err.Error())
		return
	}
	items, err := h.Store.ListRunAssignments(c.Request.Context(), id, c.Query("categoria"), c.Query("informante"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list assignments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}
