// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leseb/meigen-gw/pkg/core/services"
	"github.com/leseb/meigen-gw/pkg/gallery"
	"github.com/leseb/meigen-gw/pkg/imagegen"
	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/provider"
)

const (
	ToolSearchGallery  = "search_gallery"
	ToolGetInspiration = "get_inspiration"
	ToolGenerateImage  = "generate_image"
	ToolListProviders  = "list_providers"
)

var searchGallerySchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Search keywords (e.g. \"cyberpunk\", \"product photo\", \"portrait\"). Natural language descriptions work well. Leave empty to browse by category or get random picks."},
    "category": {"type": "string", "enum": ["3D", "App", "Food", "Girl", "JSON", "Other", "Photograph", "Product"], "description": "Filter by category"},
    "limit": {"type": "integer", "minimum": 1, "maximum": 20, "default": 5, "description": "Number of results (1-20, default 5)"},
    "offset": {"type": "integer", "minimum": 0, "default": 0, "description": "Pagination offset"},
    "sortBy": {"type": "string", "enum": ["rank", "likes", "views", "date"], "default": "rank", "description": "Sort order when browsing without a search query"}
  }
}`)

var getInspirationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "imageId": {"type": "string", "description": "ID from a search_gallery result"}
  },
  "required": ["imageId"]
}`)

var generateImageSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "prompt": {"type": "string", "description": "Image description"},
    "provider": {"type": "string", "enum": ["meigen", "comfyui", "openai"], "description": "Provider to use. Defaults to the highest priority configured provider."},
    "model": {"type": "string", "description": "Model name, provider default when omitted"},
    "size": {"type": "string", "description": "Image size, e.g. 1024x1024"},
    "quality": {"type": "string", "description": "Quality hint forwarded to the provider"},
    "referenceImages": {"type": "array", "items": {"type": "string"}, "description": "Public URLs of reference images"}
  },
  "required": ["prompt"]
}`)

var emptySchema = json.RawMessage(`{"type": "object"}`)

type searchGalleryArgs struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	SortBy   string `json:"sortBy"`
}

type getInspirationArgs struct {
	ImageID string `json:"imageId"`
}

type generateImageArgs struct {
	Prompt          string   `json:"prompt"`
	Provider        string   `json:"provider"`
	Model           string   `json:"model"`
	Size            string   `json:"size"`
	Quality         string   `json:"quality"`
	ReferenceImages []string `json:"referenceImages"`
}

func (s *Server) registerTools() {
	s.server.AddTool(&sdkmcp.Tool{
		Name: ToolSearchGallery,
		Description: "Search AI image prompts with semantic understanding. Finds visually and conceptually similar results, not just keyword matches. " +
			"Results include image URLs; render them as markdown images so users can visually browse and pick styles. " +
			"Use when users need inspiration, want to explore styles, or ask for an image without a specific idea.",
		InputSchema: searchGallerySchema,
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.searchGallery)

	s.server.AddTool(&sdkmcp.Tool{
		Name:        ToolGetInspiration,
		Description: "Get the full prompt and every image of a gallery entry found with search_gallery.",
		InputSchema: getInspirationSchema,
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.getInspiration)

	s.server.AddTool(&sdkmcp.Tool{
		Name:        ToolGenerateImage,
		Description: "Generate one image from a prompt with the configured provider.",
		InputSchema: generateImageSchema,
	}, s.generateImage)

	s.server.AddTool(&sdkmcp.Tool{
		Name:        ToolListProviders,
		Description: "List configured image providers in priority order and the default one.",
		InputSchema: emptySchema,
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.listProviders)
}

func (s *Server) searchGallery(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args searchGalleryArgs
	if err := decodeArgs(req, &args); err != nil {
		return toolError(err.Error()), nil
	}

	out, err := s.images.Search(ctx, gallery.Query{
		Query:    args.Query,
		Category: args.Category,
		Limit:    args.Limit,
		Offset:   args.Offset,
		SortBy:   library.SortBy(args.SortBy),
	})
	if err != nil {
		s.logger.Warn("search_gallery failed", "error", err)
		return toolError(err.Error()), nil
	}
	return textResult(gallery.Format(out)), nil
}

func (s *Server) getInspiration(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args getInspirationArgs
	if err := decodeArgs(req, &args); err != nil {
		return toolError(err.Error()), nil
	}
	if args.ImageID == "" {
		return toolError("imageId is required"), nil
	}

	entry, err := s.images.Inspiration(ctx, args.ImageID)
	if errors.Is(err, library.ErrNotFound) {
		return toolError(fmt.Sprintf("No entry with ID %q. Use search_gallery to find valid IDs.", args.ImageID)), nil
	}
	if err != nil {
		return toolError(err.Error()), nil
	}
	return textResult(gallery.FormatEntry(entry)), nil
}

func (s *Server) generateImage(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args generateImageArgs
	if err := decodeArgs(req, &args); err != nil {
		return toolError(err.Error()), nil
	}

	res, err := s.images.Generate(ctx, &services.GenerateRequest{
		Provider: provider.Kind(args.Provider),
		Request: imagegen.Request{
			Prompt:          args.Prompt,
			Model:           args.Model,
			Size:            args.Size,
			Quality:         args.Quality,
			ReferenceImages: args.ReferenceImages,
		},
	})
	if err != nil {
		s.logger.Warn("generate_image failed", "error", err)
		return toolError(generationErrorText(err)), nil
	}

	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		return toolError(fmt.Sprintf("%s returned invalid base64 image data", res.Provider)), nil
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.ImageContent{Data: data, MIMEType: res.MimeType},
			&sdkmcp.TextContent{Text: fmt.Sprintf("Image generated with %s.", res.Provider)},
		},
	}, nil
}

func (s *Server) listProviders(_ context.Context, _ *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	avail := s.images.ListAvailableProviders()
	def, ok := s.images.GetDefaultProvider()
	if !ok {
		return textResult(noProviderText), nil
	}
	names := make([]string, len(avail))
	for i, k := range avail {
		names[i] = k.String()
	}
	return textResult(fmt.Sprintf("Available providers: %s\nDefault: %s", strings.Join(names, ", "), def)), nil
}

const noProviderText = "No image provider configured. Set MEIGEN_API_TOKEN or OPENAI_API_KEY, " +
	"or add a ComfyUI workflow to ~/.config/meigen/workflows."

func generationErrorText(err error) string {
	var upstream *imagegen.UpstreamError
	switch {
	case errors.Is(err, imagegen.ErrNoProvider):
		return noProviderText
	case errors.As(err, &upstream):
		return fmt.Sprintf("Image generation failed: %s returned HTTP %d: %s", upstream.Provider, upstream.Status, upstream.Body)
	}
	return "Image generation failed: " + err.Error()
}

func decodeArgs(req *sdkmcp.CallToolRequest, dst any) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}}}
}

func toolError(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
		IsError: true,
	}
}
