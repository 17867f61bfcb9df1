// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/meigen-gw/pkg/core/config"
	"github.com/leseb/meigen-gw/pkg/core/services"
	"github.com/leseb/meigen-gw/pkg/gallery"
	"github.com/leseb/meigen-gw/pkg/imagegen"
	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/library/memory"
	"github.com/leseb/meigen-gw/pkg/provider"
	"github.com/leseb/meigen-gw/pkg/websearch"
)

type stubRemote struct {
	rows []websearch.Row
	ok   bool
}

func (s *stubRemote) Search(context.Context, string, int, int) ([]websearch.Row, bool) {
	return s.rows, s.ok
}

type stubAdapter struct {
	res *imagegen.Result
	err error
}

func (s *stubAdapter) Name() string { return "openai" }

func (s *stubAdapter) Generate(context.Context, *imagegen.Request) (*imagegen.Result, error) {
	return s.res, s.err
}

type fixture struct {
	meigenToken string
	openaiKey   string
	adapter     *stubAdapter
	remote      *stubRemote
}

func (f fixture) handler() *Handler {
	cfg := &config.Config{}
	cfg.MeiGen.APIToken = f.meigenToken
	cfg.OpenAI.APIKey = f.openaiKey

	reg := provider.NewRegistry[imagegen.Provider]("image_provider")
	if f.adapter != nil {
		reg.Register("openai", func(context.Context, provider.Params) (imagegen.Provider, error) {
			return f.adapter, nil
		})
	}

	remote := f.remote
	if remote == nil {
		remote = &stubRemote{}
	}
	lib := memory.New([]library.Entry{
		{ID: "p1", Rank: 1, Prompt: "cyberpunk alley at night", AuthorName: "neo", Categories: []string{"3D"}, Image: "https://cdn/p1.jpg", Images: []string{"https://cdn/p1.jpg", "https://cdn/p1b.jpg"}, Views: 1500},
		{ID: "p2", Rank: 2, Prompt: "matcha latte", AuthorName: "kai", Categories: []string{"Food"}, Image: "https://cdn/p2.jpg"},
		{ID: "p3", Rank: 3, Prompt: "ramen bowl", AuthorName: "kai", Categories: []string{"Food"}, Image: "https://cdn/p3.jpg"},
	})

	svc := services.NewImageService(services.ImageServiceOptions{
		Config:   cfg,
		Gallery:  gallery.New(remote, lib, nil),
		Probe:    provider.StaticProbe(false),
		Adapters: reg,
	})
	return New(svc, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func errorType(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	s, _ := e["type"].(string)
	return s
}

func TestHealthAndRequestID(t *testing.T) {
	h := fixture{}.handler()

	rec, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestGallerySearch(t *testing.T) {
	t.Run("random browse", func(t *testing.T) {
		rec, body := do(t, fixture{}.handler(), http.MethodGet, "/v1/gallery/search?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "random", body["source"])
		assert.Len(t, body["data"], 2)
		assert.Contains(t, body["text"], "Curated Prompt Library: 3 trending prompts")
	})

	t.Run("semantic", func(t *testing.T) {
		thumb := "https://img/r1.jpg"
		remote := &stubRemote{ok: true, rows: []websearch.Row{{ID: "r1", Text: "neon", ThumbnailURL: &thumb}}}
		rec, body := do(t, fixture{remote: remote}.handler(), http.MethodGet, "/v1/gallery/search?query=neon", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "semantic", body["source"])
		data := body["data"].([]any)
		require.Len(t, data, 1)
		assert.Equal(t, "r1", data[0].(map[string]any)["id"])
		assert.Equal(t, "Unknown", data[0].(map[string]any)["author"])
	})

	t.Run("local by category", func(t *testing.T) {
		rec, body := do(t, fixture{}.handler(), http.MethodGet, "/v1/gallery/search?category=Food&sort_by=rank", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "local", body["source"])
		assert.Len(t, body["data"], 2)
	})

	t.Run("empty", func(t *testing.T) {
		rec, body := do(t, fixture{}.handler(), http.MethodGet, "/v1/gallery/search?query=spaceship", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "empty", body["source"])
		assert.Empty(t, body["data"])
		assert.Contains(t, body["suggestion"], "spaceship")
	})

	for _, target := range []string{
		"/v1/gallery/search?limit=abc",
		"/v1/gallery/search?limit=50",
		"/v1/gallery/search?category=Cars",
		"/v1/gallery/search?offset=-1",
	} {
		t.Run("bad "+target, func(t *testing.T) {
			rec, body := do(t, fixture{}.handler(), http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_request", errorType(body))
		})
	}
}

func TestGalleryEntryAndStats(t *testing.T) {
	h := fixture{}.handler()

	rec, body := do(t, h, http.MethodGet, "/v1/gallery/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gallery.entry", body["object"])
	assert.Equal(t, "cyberpunk alley at night", body["prompt"])
	assert.Len(t, body["images"], 2)

	rec, body = do(t, h, http.MethodGet, "/v1/gallery/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorType(body))

	rec, body = do(t, h, http.MethodGet, "/v1/gallery/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, map[string]any{"3D": float64(1), "Food": float64(2)}, body["categories"])
}

func TestListProviders(t *testing.T) {
	rec, body := do(t, fixture{}.handler(), http.MethodGet, "/v1/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["available"])
	assert.Nil(t, body["default"])

	rec, body = do(t, fixture{meigenToken: "mg", openaiKey: "sk"}.handler(), http.MethodGet, "/v1/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"meigen", "openai"}, body["available"])
	assert.Equal(t, "meigen", body["default"])
}

func TestGenerateImage(t *testing.T) {
	ok := &stubAdapter{res: &imagegen.Result{ImageBase64: "QUJD", MimeType: "image/webp"}}
	rec, body := do(t, fixture{openaiKey: "sk", adapter: ok}.handler(), http.MethodPost, "/v1/images/generations", `{"prompt":"a fox"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "openai", body["provider"])
	assert.Equal(t, "image/webp", body["mime_type"])
	assert.Equal(t, "QUJD", body["b64_json"])
}

func TestGenerateImage_Errors(t *testing.T) {
	upstream := &stubAdapter{err: &imagegen.UpstreamError{Provider: "openai", Status: 429, Body: `{"error":"rate limited"}`}}
	malformed := &stubAdapter{err: &imagegen.MalformedResponseError{Provider: "openai", Message: "no image data in response"}}

	tests := []struct {
		name       string
		fx         fixture
		body       string
		wantStatus int
		wantType   string
	}{
		{"bad json", fixture{openaiKey: "sk"}, `{`, http.StatusBadRequest, "invalid_request"},
		{"empty prompt", fixture{openaiKey: "sk", adapter: &stubAdapter{}}, `{"prompt":"  "}`, http.StatusBadRequest, "invalid_request"},
		{"unknown provider", fixture{openaiKey: "sk"}, `{"prompt":"x","provider":"midjourney"}`, http.StatusBadRequest, "invalid_request"},
		{"nothing configured", fixture{}, `{"prompt":"x"}`, http.StatusServiceUnavailable, "no_provider"},
		{"no adapter", fixture{meigenToken: "mg"}, `{"prompt":"x"}`, http.StatusNotImplemented, "provider_not_supported"},
		{"upstream", fixture{openaiKey: "sk", adapter: upstream}, `{"prompt":"x"}`, http.StatusBadGateway, "upstream_error"},
		{"malformed", fixture{openaiKey: "sk", adapter: malformed}, `{"prompt":"x"}`, http.StatusBadGateway, "malformed_response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, tt.fx.handler(), http.MethodPost, "/v1/images/generations", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, errorType(body))
		})
	}

	rec, body := do(t, fixture{openaiKey: "sk", adapter: upstream}.handler(), http.MethodPost, "/v1/images/generations", `{"prompt":"x"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	detail := body["error"].(map[string]any)["upstream"].(map[string]any)
	assert.Equal(t, float64(429), detail["status"])
	assert.Equal(t, `{"error":"rate limited"}`, detail["body"])
}

func TestOpenAPI(t *testing.T) {
	rec, body := do(t, fixture{}.handler(), http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	paths := body["paths"].(map[string]any)
	assert.Contains(t, paths, "/v1/gallery/search")
	assert.Contains(t, paths, "/v1/images/generations")
}

func TestMount(t *testing.T) {
	h := fixture{}.handler()
	h.Mount("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec, _ := do(t, h, http.MethodPost, "/mcp", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
