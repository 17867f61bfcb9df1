// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leseb/meigen-gw/pkg/core/schema"
	"github.com/leseb/meigen-gw/pkg/core/services"
	"github.com/leseb/meigen-gw/pkg/imagegen"
	"github.com/leseb/meigen-gw/pkg/provider"
)

// handleGenerateImage handles POST /v1/images/generations
func (h *Handler) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req schema.ImageGenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	res, err := h.images.Generate(r.Context(), &services.GenerateRequest{
		Provider: provider.Kind(req.Provider),
		Request: imagegen.Request{
			Prompt:          req.Prompt,
			Model:           req.Model,
			N:               req.N,
			Size:            req.Size,
			Quality:         req.Quality,
			ReferenceImages: req.ReferenceImages,
		},
	})
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, &schema.ImageGenerationResponse{
		Object:   "image.generation",
		Provider: res.Provider.String(),
		MimeType: res.MimeType,
		B64JSON:  res.ImageBase64,
	})
}

// handleListProviders handles GET /v1/providers
func (h *Handler) handleListProviders(w http.ResponseWriter, r *http.Request) {
	resp := &schema.ProvidersResponse{Object: "list", Available: []string{}}
	for _, k := range h.images.ListAvailableProviders() {
		resp.Available = append(resp.Available, k.String())
	}
	if k, ok := h.images.GetDefaultProvider(); ok {
		name := k.String()
		resp.Default = &name
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeGenerationError(w http.ResponseWriter, err error) {
	var upstream *imagegen.UpstreamError
	var malformed *imagegen.MalformedResponseError

	switch {
	case errors.Is(err, imagegen.ErrInvalidRequest), errors.Is(err, services.ErrProviderUnavailable):
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, imagegen.ErrNoProvider):
		h.writeError(w, http.StatusServiceUnavailable, "no_provider",
			"No image provider configured. Set MEIGEN_API_TOKEN, OPENAI_API_KEY or install a ComfyUI workflow.")
	case errors.Is(err, imagegen.ErrNoAdapter):
		h.writeError(w, http.StatusNotImplemented, "provider_not_supported", err.Error())
	case errors.As(err, &upstream):
		h.logger.Warn("Upstream provider error", "provider", upstream.Provider, "status", upstream.Status)
		h.writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": map[string]any{
				"type":     "upstream_error",
				"message":  err.Error(),
				"upstream": &schema.UpstreamErrorDetail{Provider: upstream.Provider, Status: upstream.Status, Body: upstream.Body},
			},
		})
	case errors.As(err, &malformed):
		h.writeError(w, http.StatusBadGateway, "malformed_response", err.Error())
	default:
		h.logger.Error("Image generation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "generation_error", err.Error())
	}
}
