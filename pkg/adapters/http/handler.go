// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leseb/meigen-gw/pkg/core/services"
	"github.com/leseb/meigen-gw/pkg/observability/logging"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler implements the HTTP adapter
type Handler struct {
	images *services.ImageService
	logger *logging.Logger
	mux    *http.ServeMux
}

// New creates a new HTTP handler
func New(images *services.ImageService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{
		images: images,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)

	// Gallery API
	h.mux.HandleFunc("GET /v1/gallery/search", h.handleGallerySearch)
	h.mux.HandleFunc("GET /v1/gallery/stats", h.handleGalleryStats)
	h.mux.HandleFunc("GET /v1/gallery/{id}", h.handleGalleryEntry)

	// Images API
	h.mux.HandleFunc("POST /v1/images/generations", h.handleGenerateImage)
	h.mux.HandleFunc("GET /v1/providers", h.handleListProviders)

	return h
}

// Mount serves an extra handler under pattern, e.g. the MCP endpoint.
func (h *Handler) Mount(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)

	start := time.Now()
	h.mux.ServeHTTP(w, r)

	h.logger.Info("Request",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"duration", time.Since(start))
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	h.writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
