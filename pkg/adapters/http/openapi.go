// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/leseb/meigen-gw/docs"
)

var (
	cachedJSON []byte
	jsonOnce   sync.Once
)

// handleOpenAPI serves the embedded OpenAPI document as JSON. The YAML is
// converted once and cached.
func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOnce.Do(func() {
		var spec any
		if err := yaml.Unmarshal(docs.OpenAPISpec, &spec); err != nil {
			h.logger.Error("Failed to parse embedded OpenAPI spec", "error", err)
			return
		}
		converted := convertYAMLToJSON(spec)
		data, err := json.Marshal(converted)
		if err != nil {
			h.logger.Error("Failed to marshal OpenAPI spec to JSON", "error", err)
			return
		}
		cachedJSON = data
	})

	if cachedJSON == nil {
		h.writeError(w, http.StatusInternalServerError, "spec_error", "Failed to load OpenAPI spec")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(cachedJSON)
}

// convertYAMLToJSON walks a yaml.v3 decoded tree so that encoding/json can
// marshal it.
func convertYAMLToJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertYAMLToJSON(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertYAMLToJSON(v)
		}
		return result
	default:
		return v
	}
}
