package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calciumcli/internal/config"
	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/services"
	"calciumcli/internal/shared/testutil"
)

type handlerFixture struct {
	router     chi.Router
	uploadsDir string
	reportsDir string
}

func newHandlerFixture(t *testing.T, maxUpload int64) handlerFixture {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(root, "reports")
	cfg.Output.Format = config.FormatCSV
	cfg.Input.MaxFileSize = maxUpload

	paths, err := config.ResolvePaths(cfg)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewAnalysisService(cfg, paths, logger)
	h := NewAnalysisHandler(svc, paths.UploadsDir, paths.OutputDir, maxUpload, logger)

	r := chi.NewRouter()
	r.Mount("/api/v1/analyses", h.Routes())
	return handlerFixture{router: r, uploadsDir: paths.UploadsDir, reportsDir: paths.OutputDir}
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func scenarioFields() map[string]string {
	return map[string]string{
		"start_frame_mc":  "15",
		"start_frame_cap": "12",
		"start_frame_kcl": "18",
	}
}

func scenarioCSV(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(testutil.WriteCSV(t, testutil.ScenarioRows()))
	require.NoError(t, err)
	return data
}

func TestAnalysisHandler_CreateAnalysis(t *testing.T) {
	fx := newHandlerFixture(t, 1<<20)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, uploadRequest(t, "cells.csv", scenarioCSV(t), scenarioFields()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 15, resp.Params.StartFrameMC)

	require.NotNil(t, resp.Summary)
	assert.Equal(t, "cells.csv", resp.Summary.Source)
	assert.Equal(t, 1, resp.Summary.CapResponders)
	assert.Equal(t, 2, resp.Summary.MCResponders)
	assert.Equal(t, 1, resp.Summary.Both)
	assert.Contains(t, resp.Files, config.RatiosFile)

	entries, err := os.ReadDir(fx.uploadsDir)
	if err == nil {
		assert.Empty(t, entries, "uploads are removed after the run")
	}

	t.Run("download report", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/v1/analyses/"+resp.RunID+"/files/"+config.RatiosFile, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), config.RatiosFile)

		want, err := os.ReadFile(filepath.Join(fx.reportsDir, resp.RunID, config.RatiosFile))
		require.NoError(t, err)
		got, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing report", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/v1/analyses/"+resp.RunID+"/files/nope.csv", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnalysisHandler_Waiting(t *testing.T) {
	fx := newHandlerFixture(t, 1<<20)

	fields := scenarioFields()
	delete(fields, "start_frame_kcl")

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, uploadRequest(t, "cells.csv", scenarioCSV(t), fields))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusWaiting, resp.Status)
	assert.Equal(t, "waiting for start frames", resp.Message)
	assert.Nil(t, resp.Summary)
	assert.Equal(t, 0, resp.Params.StartFrameKCl)

	entries, err := os.ReadDir(fx.reportsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalysisHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		maxUpload  int64
		request    func(t *testing.T) *http.Request
		wantStatus int
		wantType   string
	}{
		{
			name:      "not multipart",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/analyses", bytes.NewBufferString("{}"))
			},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation-failed",
		},
		{
			name:      "missing file",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "", nil, scenarioFields())
			},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation-failed",
		},
		{
			name:      "non-integer start frame",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				fields := scenarioFields()
				fields["start_frame_cap"] = "twelve"
				return uploadRequest(t, "cells.csv", scenarioCSV(t), fields)
			},
			wantStatus: http.StatusBadRequest,
			wantType:   "/errors/validation-failed",
		},
		{
			name:      "unsupported extension",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "cells.txt", scenarioCSV(t), scenarioFields())
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "/errors/malformed-input",
		},
		{
			name:      "upload over the size limit",
			maxUpload: 16,
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "cells.csv", scenarioCSV(t), scenarioFields())
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "/errors/malformed-input",
		},
		{
			name:      "odd column count",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "cells.csv", []byte("1,2,3\n4,5,6\n"), scenarioFields())
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "/errors/malformed-input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newHandlerFixture(t, tt.maxUpload)

			rec := httptest.NewRecorder()
			fx.router.ServeHTTP(rec, tt.request(t))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var p struct {
				Type string `json:"type"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
			assert.Equal(t, tt.wantType, p.Type)
		})
	}
}

func TestAnalysisHandler_RejectsTraversal(t *testing.T) {
	fx := newHandlerFixture(t, 1<<20)

	for _, path := range []string{
		"/api/v1/analyses/../files/x.csv",
		"/api/v1/analyses/run/files/..",
	} {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEqual(t, http.StatusOK, rec.Code, path)
	}
}

func TestSafeSegment(t *testing.T) {
	assert.True(t, safeSegment("summary.csv"))
	assert.False(t, safeSegment(""))
	assert.False(t, safeSegment(".."))
	assert.False(t, safeSegment("a/b"))
	assert.False(t, safeSegment(`a\b`))
}

func TestParseParams(t *testing.T) {
	form := func(fields map[string]string) *http.Request {
		return uploadRequest(t, "cells.csv", []byte("1,2\n"), fields)
	}

	p, err := parseParams(form(scenarioFields()))
	require.NoError(t, err)
	assert.Equal(t, 12, p.StartFrameCap)

	p, err = parseParams(form(map[string]string{"start_frame_mc": " 15 "}))
	require.NoError(t, err)
	assert.Equal(t, 15, p.StartFrameMC)
	assert.Zero(t, p.StartFrameKCl)

	_, err = parseParams(form(map[string]string{"start_frame_kcl": "1.5"}))
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeInvalidParameters, appErr.Type)
	assert.Equal(t, "start_frame_kcl", appErr.Context["field"])
}
