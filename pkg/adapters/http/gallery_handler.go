// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/leseb/meigen-gw/pkg/core/schema"
	"github.com/leseb/meigen-gw/pkg/gallery"
	"github.com/leseb/meigen-gw/pkg/library"
)

// handleGallerySearch handles GET /v1/gallery/search
func (h *Handler) handleGallerySearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseGalleryQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	out, err := h.images.Search(r.Context(), q)
	if errors.Is(err, gallery.ErrInvalidQuery) {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Gallery search failed", "error", err, "query", q.Query)
		h.writeError(w, http.StatusInternalServerError, "search_error", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, &schema.GallerySearchResponse{
		Object:     "gallery.search",
		Source:     out.Source,
		Query:      out.Query,
		Data:       out.Items,
		Stats:      out.Stats,
		Suggestion: out.Suggestion,
		Text:       gallery.Format(out),
	})
}

// handleGalleryStats handles GET /v1/gallery/stats
func (h *Handler) handleGalleryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.images.LibraryStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to read library stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "library_error", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, &schema.GalleryStatsResponse{Object: "gallery.stats", Stats: stats})
}

// handleGalleryEntry handles GET /v1/gallery/{id}
func (h *Handler) handleGalleryEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, err := h.images.Inspiration(r.Context(), id)
	if errors.Is(err, library.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Failed to get gallery entry", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "library_error", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, &schema.GalleryEntryResponse{Object: "gallery.entry", Entry: *entry})
}

func parseGalleryQuery(v url.Values) (gallery.Query, error) {
	q := gallery.Query{
		Query:    v.Get("query"),
		Category: v.Get("category"),
		SortBy:   library.SortBy(v.Get("sort_by")),
	}
	var err error
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(v, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, s)
	}
	return n, nil
}
