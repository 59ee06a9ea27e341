package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/config"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/ingest"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/notify"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/report"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/service"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

type DistributeForm struct {
	Numero     string `form:"numero" validate:"required,max=32"`
	Mode       string `form:"mode" validate:"omitempty,oneof=teste producao"`
	Delivery   string `form:"delivery" validate:"omitempty,oneof=gestores todos"`
	UseLastRun bool   `form:"use_last_run"`
}

// @Summary Distribute cases
// @Description Upload the case tables and the availability roster, run the distribution and get the summary or the workbook bundle
// @Tags distribute
// @Accept multipart/form-data
// @Produce json,application/zip
// @Param numero formData string true "Run number used in file names"
// @Param mode formData string false "teste or producao"
// @Param delivery formData string false "gestores or todos"
// @Param use_last_run formData bool false "Continue from the latest stored run"
// @Param processos formData file true "processos (csv or xlsx)"
// @Param disponibilidade formData file true "disponibilidade (csv or xlsx)"
// @Param manter formData file false "processosmanter"
// @Param observacoes formData file false "observacoes"
// @Param anterior formData file false "previous Principal table"
// @Param config formData file false "run settings (yaml or json)"
// @Param format query string false "json (default) or zip"
// @Success 200 {object} service.RunSummary
// @Failure 400 {object} map[string]any
// @Router /api/distribute [post]
func (h *Handler) Distribute(c *gin.Context) {
	var form DistributeForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid form", err.Error())
		return
	}
	if err := h.Validator.Struct(form); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	cases, err := formTable(c, "processos")
	if err == nil && cases == nil {
		err = errors.New("processos file required")
	}
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid processos file", err.Error())
		return
	}
	rosterTable, err := formTable(c, "disponibilidade")
	if err == nil && rosterTable == nil {
		err = errors.New("disponibilidade file required")
	}
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid disponibilidade file", err.Error())
		return
	}
	kept, err := formTable(c, "manter")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid manter file", err.Error())
		return
	}
	observations, err := formTable(c, "observacoes")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid observacoes file", err.Error())
		return
	}

	roster, err := ingest.ParseRoster(*rosterTable)
	if err != nil {
		writeRunError(c, err)
		return
	}
	settings, err := h.runSettings(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, service.CodeInvalidRunConfig, "Invalid run settings", err.Error())
		return
	}

	var warnings []string
	prev, err := h.previous(c)
	if err != nil {
		// a broken previous table only disables continuity
		warnings = append(warnings, fmt.Sprintf("continuidade não aplicada: %v", err))
		h.Logger.Warn().Err(err).Msg("previous run table ignored")
	}

	out, err := h.Service.Distribute(c.Request.Context(), service.Request{
		Numero: form.Numero,
		Sources: ingest.Sources{
			Cases:        *cases,
			Kept:         kept,
			Observations: observations,
		},
		Config:     settings.Build(roster),
		Previous:   prev,
		UseLastRun: form.UseLastRun,
		Mode:       service.Mode(form.Mode),
		Delivery:   notify.Delivery(form.Delivery),
		Warnings:   warnings,
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("numero", form.Numero).Msg("distribution failed")
		writeRunError(c, err)
		return
	}

	if c.Query("format") == "zip" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, bundleName(out.Bundle)))
		c.Header("X-Run-Id", out.Summary.RunID)
		c.Header("Content-Type", report.ContentTypeZip)
		c.Status(http.StatusOK)
		if err := report.WriteZip(c.Writer, out.Bundle.Files); err != nil {
			h.Logger.Error().Err(err).Msg("failed to stream bundle")
		}
		return
	}
	c.JSON(http.StatusOK, out.Summary)
}

func bundleName(b report.Bundle) string {
	return fmt.Sprintf("%s_distribuicao_%s.zip", b.Numero, b.Date.Format("20060102"))
}

// formTable reads an uploaded csv or xlsx file. A missing field yields nil.
func formTable(c *gin.Context, field string) (*tabular.Table, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := tabular.Read(fh.Filename, f)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) runSettings(c *gin.Context) (config.RunSettings, error) {
	fh, err := c.FormFile("config")
	if errors.Is(err, http.ErrMissingFile) {
		return h.Settings, nil
	}
	if err != nil {
		return config.RunSettings{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return config.RunSettings{}, err
	}
	defer f.Close()
	return config.ParseRunSettings(f)
}

func (h *Handler) previous(c *gin.Context) (models.PreviousRun, error) {
	t, err := formTable(c, "anterior")
	if err != nil || t == nil {
		return nil, err
	}
	return ingest.ParsePrevious(*t)
}
