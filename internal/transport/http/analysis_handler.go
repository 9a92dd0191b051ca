package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/exporter"
	"calciumcli/internal/imaging"
	"calciumcli/internal/infrastructure"
	"calciumcli/internal/middleware"
	"calciumcli/internal/services"
	"calciumcli/internal/validation"
)

// multipartMemory is the part of an upload kept in memory while parsing
const multipartMemory = 8 << 20

// Response statuses of POST /api/v1/analyses
const (
	StatusCompleted = "completed"
	StatusWaiting   = "waiting"
)

// AnalysisRunner runs analyses for the handler
type AnalysisRunner interface {
	Run(ctx context.Context, req services.AnalysisRequest) (*services.AnalysisOutcome, error)
	Validator() *validation.FileValidator
}

// AnalysisResponse is the body of a run request
type AnalysisResponse struct {
	RunID      string                `json:"run_id"`
	Status     string                `json:"status"`
	Message    string                `json:"message,omitempty"`
	Params     imaging.RunParameters `json:"params"`
	Summary    *exporter.Summary     `json:"summary,omitempty"`
	Files      []string              `json:"files,omitempty"`
	DurationMS int64                 `json:"duration_ms,omitempty"`
}

// AnalysisHandler handles analysis uploads and report downloads
type AnalysisHandler struct {
	runner     AnalysisRunner
	uploadsDir string
	reportsDir string
	maxUpload  int64
	logger     *slog.Logger
	respondErr func(w http.ResponseWriter, r *http.Request, err error)
}

// NewAnalysisHandler creates a new analysis handler. Uploads are stored
// below uploadsDir for the duration of a run; reports are served from
// reportsDir/<run id>.
func NewAnalysisHandler(runner AnalysisRunner, uploadsDir, reportsDir string, maxUpload int64, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		runner:     runner,
		uploadsDir: uploadsDir,
		reportsDir: reportsDir,
		maxUpload:  maxUpload,
		logger:     logger.With(slog.String("handler", "analysis")),
		respondErr: middleware.NewErrorResponder(logger),
	}
}

// Routes sets up the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateAnalysis)
	r.Get("/{runID}/files/{name}", h.GetReportFile)
	return r
}

// CreateAnalysis handles POST /api/v1/analyses
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, runID := infrastructure.EnsureRunID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondErr(w, r, middleware.ProblemFromStatus(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", h.maxUpload), ""))
			return
		}
		h.respondErr(w, r, apperrors.NewAppValidationError("request must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	params, err := parseParams(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondErr(w, r, apperrors.NewAppValidationError("form field \"file\" is required"))
		return
	}
	defer file.Close()

	uploadDir := filepath.Join(h.uploadsDir, runID)
	defer os.RemoveAll(uploadDir)

	path, err := h.runner.Validator().SaveUpload(uploadDir, header.Filename, file)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "analysis requested",
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size))

	outcome, err := h.runner.Run(ctx, services.AnalysisRequest{
		InputPath:  path,
		SourceName: header.Filename,
		Sheet:      r.FormValue("sheet"),
		Params:     params,
	})
	if apperrors.IsNotReady(err) {
		render.JSON(w, r, AnalysisResponse{
			RunID:   runID,
			Status:  StatusWaiting,
			Message: "waiting for start frames",
			Params:  params,
		})
		return
	}
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	files := make([]string, 0, len(outcome.Files))
	for _, f := range outcome.Files {
		files = append(files, filepath.Base(f))
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, AnalysisResponse{
		RunID:      outcome.RunID,
		Status:     StatusCompleted,
		Params:     params,
		Summary:    &outcome.Summary,
		Files:      files,
		DurationMS: outcome.Duration.Milliseconds(),
	})
}

// GetReportFile handles GET /api/v1/analyses/{runID}/files/{name}
func (h *AnalysisHandler) GetReportFile(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	name := chi.URLParam(r, "name")
	if !safeSegment(runID) || !safeSegment(name) {
		h.respondErr(w, r, apperrors.NewAppValidationError("invalid report path"))
		return
	}

	path := filepath.Join(h.reportsDir, runID, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.respondErr(w, r, apperrors.NewNotFoundError("report file"))
			return
		}
		h.respondErr(w, r, apperrors.NewStorageError("failed to open report file", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		h.respondErr(w, r, apperrors.NewNotFoundError("report file"))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// parseParams reads the start frames from the form. Missing fields stay
// zero so the run reports that it is waiting.
func parseParams(r *http.Request) (imaging.RunParameters, error) {
	var p imaging.RunParameters
	fields := []struct {
		name string
		dst  *int
	}{
		{"start_frame_mc", &p.StartFrameMC},
		{"start_frame_cap", &p.StartFrameCap},
		{"start_frame_kcl", &p.StartFrameKCl},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(r.FormValue(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, apperrors.NewInvalidParametersError(fmt.Sprintf("%s must be an integer", f.name), err).
				WithContext("field", f.name)
		}
		*f.dst = v
	}
	return p, nil
}

// safeSegment accepts a single non-special path element
func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
