package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/db"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/service"
)

const casesCSV = "Processo;Grupo Natureza;Orgão Origem;Dias no Orgão;Tempo TCERJ;Descrição Informação;Funcionário Informação\n" +
	"100;PESSOAL;SEC A;20;1900;;\n" +
	"101;OBRAS;SEC B;200;100;;\n" +
	"102;PESSOAL;SEC A;5;10;Em elaboração;carla\n"

const rosterCSV = "informantes,email,disponibilidade\nana,ana@example.com,sim\nbeto,,sim\n"

type fakeReader struct {
	run         models.Run
	err         error
	assignments []models.RunAssignment
	gotReviewer string
}

func (f *fakeReader) Ping(ctx context.Context) error { return f.err }

func (f *fakeReader) GetLatestRun(ctx context.Context, status string) (models.Run, error) {
	return f.run, f.err
}

func (f *fakeReader) ListRunAssignments(ctx context.Context, runID, category, reviewer string) ([]models.RunAssignment, error) {
	f.gotReviewer = reviewer
	return f.assignments, f.err
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if h.Validator == nil {
		h.Validator = validator.New()
	}
	if h.Service == nil {
		h.Service = &service.ProcessingService{Logger: zerolog.Nop()}
	}
	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.POST("/api/distribute", h.Distribute)
	r.GET("/api/runs/latest", h.RunsLatest)
	r.GET("/api/runs/:id/assignments", h.RunAssignments)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, content := range files {
		fw, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postDistribute(t *testing.T, r *gin.Engine, query string, fields, files map[string]string) *httptest.ResponseRecorder {
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/api/distribute"+query, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestDistributeJSON(t *testing.T) {
	r := newRouter(&Handler{Logger: zerolog.Nop()})
	w := postDistribute(t, r, "", map[string]string{"numero": "12"}, map[string]string{
		"processos":       casesCSV,
		"disponibilidade": rosterCSV,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sum service.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	require.Equal(t, "12", sum.Numero)
	require.Equal(t, service.ModeTest, sum.Mode)
	require.Equal(t, 1, sum.Counts.PreAssigned)
	require.Equal(t, 2, sum.Counts.Principal)
	require.NotEmpty(t, sum.Files)
}

func TestDistributeZip(t *testing.T) {
	r := newRouter(&Handler{Logger: zerolog.Nop()})
	w := postDistribute(t, r, "?format=zip", map[string]string{"numero": "3"}, map[string]string{
		"processos":       casesCSV,
		"disponibilidade": rosterCSV,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	require.NotEmpty(t, w.Header().Get("X-Run-Id"))

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
}

func TestDistributeValidation(t *testing.T) {
	r := newRouter(&Handler{Logger: zerolog.Nop()})

	w := postDistribute(t, r, "", map[string]string{"mode": "producao"}, map[string]string{"processos": casesCSV, "disponibilidade": rosterCSV})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = postDistribute(t, r, "", map[string]string{"numero": "1", "mode": "talvez"}, map[string]string{"processos": casesCSV, "disponibilidade": rosterCSV})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = postDistribute(t, r, "", map[string]string{"numero": "1"}, map[string]string{"disponibilidade": rosterCSV})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestDistributeConfigErrors(t *testing.T) {
	r := newRouter(&Handler{Logger: zerolog.Nop()})

	w := postDistribute(t, r, "", map[string]string{"numero": "1"}, map[string]string{
		"processos":       "Processo;Grupo Natureza\n1;X\n",
		"disponibilidade": rosterCSV,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, service.CodeMissingColumns, errorCode(t, w))

	w = postDistribute(t, r, "", map[string]string{"numero": "1"}, map[string]string{
		"processos":       casesCSV,
		"disponibilidade": "informantes,disponibilidade\nana,nao\n",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, service.CodeNoAvailableReviewers, errorCode(t, w))
}

func TestDistributeBrokenPreviousOnlyWarns(t *testing.T) {
	r := newRouter(&Handler{Logger: zerolog.Nop()})
	w := postDistribute(t, r, "", map[string]string{"numero": "1"}, map[string]string{
		"processos":       casesCSV,
		"disponibilidade": rosterCSV,
		"anterior":        "Processo\n100\n",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sum service.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	require.False(t, sum.Continuity)
	require.NotEmpty(t, sum.Warnings)
}

func TestDistributeWithPreviousAndSettings(t *testing.T) {
	r := newRouter(&Handler{Logger: zerolog.Nop()})
	w := postDistribute(t, r, "", map[string]string{"numero": "1"}, map[string]string{
		"processos":       casesCSV,
		"disponibilidade": rosterCSV,
		"anterior":        "Processo,Informante\n100,beto\n101,beto\n",
		"config":          "cap: 1\n",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sum service.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	require.True(t, sum.Continuity)
	require.Equal(t, "upload", sum.PreviousSource)
	require.Len(t, sum.StickReports, 1)
	require.Equal(t, 1, sum.StickReports[0].Stuck)
}

func TestRunsWithoutDatabase(t *testing.T) {
	r := newRouter(&Handler{Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRunsLatest(t *testing.T) {
	store := &fakeReader{run: models.Run{ID: "abc", Numero: "9", Status: models.RunSuccess}}
	r := newRouter(&Handler{Store: store, Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var run models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	require.Equal(t, "9", run.Numero)

	store.err = db.ErrNotFound
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunAssignments(t *testing.T) {
	store := &fakeReader{assignments: []models.RunAssignment{{CaseID: "1", Reviewer: "ANA"}}}
	r := newRouter(&Handler{Store: store, Logger: zerolog.Nop()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/not-a-uuid/assignments", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/4f1c7f56-5d0e-4f39-9c55-0d7d3f0f8a11/assignments?informante=ana", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ana", store.gotReviewer)
	require.Contains(t, w.Body.String(), `"total":1`)
}
