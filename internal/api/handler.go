// Package api exposes the HTTP functions of the image styler.
//
// Two business endpoints are served, both guarded by a shared process-local
// rate limiter:
//
//	GET|POST /api/list_files    — list every blob name in a container
//	POST     /api/style_images  — run the batch styling pipeline
//
// Parameters resolve from the query string first, then a JSON body, then
// defaults. Error responses are JSON objects of the form {"error": "..."}.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kwarren/image-styler/internal/blobstore"
	"github.com/kwarren/image-styler/internal/metrics"
	"github.com/kwarren/image-styler/internal/params"
	"github.com/kwarren/image-styler/internal/pipeline"
	"github.com/kwarren/image-styler/internal/ratelimit"
)

// Storage is the gateway surface the HTTP handlers need.
type Storage interface {
	pipeline.Storage
	ListContainer(ctx context.Context, container string) ([]string, error)
}

// Handler serves the function routes.
type Handler struct {
	store   Storage
	limiter *ratelimit.Limiter
	engine  *pipeline.Engine
}

// NewHandler creates the HTTP handler. tf may be nil when the transformation
// API is not configured; the pipeline then records failures instead of
// calling out.
func NewHandler(store Storage, limiter *ratelimit.Limiter, tf pipeline.Transformer) *Handler {
	return &Handler{
		store:   store,
		limiter: limiter,
		engine:  pipeline.New(store, tf),
	}
}

// Router returns a mux with all function routes registered.
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/list_files", h.handleListFiles)
	mux.HandleFunc("/api/style_images", h.handleStyleImages)
	mux.HandleFunc("/api/health", h.handleHealth)
	return mux
}

// GET|POST /api/list_files?container=<name>
//
// Lists every blob in the container. The container may also arrive in a JSON
// body; it defaults to blobstore.DefaultContainer.
func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Handler entry: handleListFiles")

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.limiter.Allow() {
		httpError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		return
	}

	body := params.DecodeBody(r)
	container := blobstore.ContainerOrDefault(params.Resolve(r.URL.Query(), body, "container", ""))

	names, err := h.store.ListContainer(r.Context(), container)
	if err != nil {
		respondStorageError(w, err, container)
		return
	}

	log.Info().Str("container", container).Int("count", len(names)).Msg("Listed container")
	respondJSON(w, http.StatusOK, names)
}

// POST /api/style_images?container=<name>&source_folder=<f>&output_folder=<f>
//
// Runs the batch styling pipeline and returns its report. All parameters are
// optional: the container defaults like list_files, the folders default to
// "source" and "output".
func (h *Handler) handleStyleImages(w http.ResponseWriter, r *http.Request) {
	log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Handler entry: handleStyleImages")

	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.limiter.Allow() {
		httpError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		return
	}

	body := params.DecodeBody(r)
	query := r.URL.Query()
	req := pipeline.Request{
		Container:    blobstore.ContainerOrDefault(params.Resolve(query, body, "container", "")),
		SourceFolder: strings.Trim(params.Resolve(query, body, "source_folder", pipeline.DefaultSourceFolder), "/"),
		OutputFolder: strings.Trim(params.Resolve(query, body, "output_folder", pipeline.DefaultOutputFolder), "/"),
	}

	log.Info().
		Str("container", req.Container).
		Str("source_folder", req.SourceFolder).
		Str("output_folder", req.OutputFolder).
		Msg("Starting style batch")

	report, err := h.engine.Run(r.Context(), req)
	if err != nil {
		respondStorageError(w, err, req.Container)
		return
	}

	metrics.New("ImageStyler").
		Dimension("Operation", "style_images").
		Metric("ProcessedCount", float64(len(report.Processed)), metrics.UnitCount).
		Metric("SkippedCount", float64(len(report.Skipped)), metrics.UnitCount).
		Metric("FailedCount", float64(len(report.Failed)), metrics.UnitCount).
		Property("container", req.Container).
		Flush()

	respondJSON(w, http.StatusOK, report)
}

// GET /api/health — liveness probe, deliberately outside the rate limiter.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondStorageError maps gateway and pipeline errors onto HTTP statuses.
func respondStorageError(w http.ResponseWriter, err error, container string) {
	switch {
	case errors.Is(err, blobstore.ErrNotConfigured):
		httpError(w, http.StatusInternalServerError, "storage connection not configured")
	case errors.Is(err, blobstore.ErrContainerNotFound):
		httpError(w, http.StatusNotFound, fmt.Sprintf("container %q not found", container))
	case errors.Is(err, pipeline.ErrSourceFolderNotFound):
		httpError(w, http.StatusNotFound, "source folder not found or empty")
	default:
		httpError(w, http.StatusInternalServerError, "storage operation failed", err.Error())
	}
}
