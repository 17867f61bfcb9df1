// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leseb/meigen-gw/pkg/core/config"
	"github.com/leseb/meigen-gw/pkg/gallery"
	"github.com/leseb/meigen-gw/pkg/imagegen"
	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/observability/logging"
	"github.com/leseb/meigen-gw/pkg/provider"
)

// ErrProviderUnavailable is returned when a caller asks for a provider kind
// that is not configured.
var ErrProviderUnavailable = errors.New("image provider not available")

// ImageServiceOptions wires an ImageService. Config and Gallery are required.
type ImageServiceOptions struct {
	Config  *config.Config
	Gallery *gallery.Orchestrator
	// Probe reports installed ComfyUI workflows. Defaults to scanning
	// Config.ComfyUI.WorkflowDir.
	Probe provider.Probe
	// Adapters defaults to imagegen.Adapters.
	Adapters *provider.Registry[imagegen.Provider]
	Logger   *logging.Logger
}

// ImageService exposes search and generation to the transport adapters.
// It holds no mutable state and is safe for concurrent use.
type ImageService struct {
	cfg      *config.Config
	gallery  *gallery.Orchestrator
	probe    provider.Probe
	adapters *provider.Registry[imagegen.Provider]
	logger   *logging.Logger
}

// NewImageService creates a new image service
func NewImageService(opts ImageServiceOptions) *ImageService {
	s := &ImageService{
		cfg:      opts.Config,
		gallery:  opts.Gallery,
		probe:    opts.Probe,
		adapters: opts.Adapters,
		logger:   opts.Logger,
	}
	if s.probe == nil {
		s.probe = provider.WorkflowProbe(s.cfg.ComfyUI.WorkflowDir)
	}
	if s.adapters == nil {
		s.adapters = imagegen.Adapters
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

// GenerateRequest is an imagegen.Request plus an optional provider choice.
type GenerateRequest struct {
	// Provider pins the backend. Empty means the default provider.
	Provider provider.Kind
	imagegen.Request
}

// GenerateResult is the generated image and the provider that produced it.
type GenerateResult struct {
	Provider provider.Kind
	*imagegen.Result
}

// Search runs a gallery search.
func (s *ImageService) Search(ctx context.Context, q gallery.Query) (*gallery.Outcome, error) {
	return s.gallery.Search(ctx, q)
}

// Inspiration returns the full library entry for id.
func (s *ImageService) Inspiration(ctx context.Context, id string) (*library.Entry, error) {
	return s.gallery.Inspiration(ctx, id)
}

// LibraryStats summarizes the local prompt library.
func (s *ImageService) LibraryStats(ctx context.Context) (library.Stats, error) {
	return s.gallery.Stats(ctx)
}

// ListAvailableProviders returns the configured provider kinds in priority order.
func (s *ImageService) ListAvailableProviders() []provider.Kind {
	return provider.Available(s.cfg.Signals(), s.probe)
}

// GetDefaultProvider returns the provider Generate uses when none is pinned.
func (s *ImageService) GetDefaultProvider() (provider.Kind, bool) {
	return provider.Default(s.cfg.Signals(), s.probe)
}

// Generate produces one image. Upstream failures are returned as
// *imagegen.UpstreamError or *imagegen.MalformedResponseError.
func (s *ImageService) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if err := req.Request.Validate(); err != nil {
		return nil, err
	}

	kind, err := s.resolve(req.Provider)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapter(ctx, kind)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := adapter.Generate(ctx, &req.Request)
	if err != nil {
		s.logger.Warn("Image generation failed", "provider", kind, "error", err, "duration", time.Since(start))
		return nil, err
	}
	s.logger.Info("Image generated", "provider", kind, "mime_type", res.MimeType, "duration", time.Since(start))
	return &GenerateResult{Provider: kind, Result: res}, nil
}

func (s *ImageService) resolve(pinned provider.Kind) (provider.Kind, error) {
	if pinned == "" {
		kind, ok := s.GetDefaultProvider()
		if !ok {
			return "", imagegen.ErrNoProvider
		}
		return kind, nil
	}
	if !pinned.Valid() {
		return "", fmt.Errorf("%w: unknown provider %q", ErrProviderUnavailable, pinned)
	}
	for _, k := range s.ListAvailableProviders() {
		if k == pinned {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not configured", ErrProviderUnavailable, pinned)
}

func (s *ImageService) adapter(ctx context.Context, kind provider.Kind) (imagegen.Provider, error) {
	if !s.adapters.Has(string(kind)) {
		return nil, fmt.Errorf("%w: %s", imagegen.ErrNoAdapter, kind)
	}
	p, err := s.adapters.New(ctx, string(kind), s.adapterParams(kind))
	if err != nil {
		return nil, fmt.Errorf("create %s adapter: %w", kind, err)
	}
	return p, nil
}

func (s *ImageService) adapterParams(kind provider.Kind) provider.Params {
	switch kind {
	case provider.OpenAI:
		params := provider.Params{
			imagegen.ParamAPIKey:  s.cfg.OpenAI.APIKey,
			imagegen.ParamBaseURL: s.cfg.OpenAI.BaseURL,
			imagegen.ParamModel:   s.cfg.OpenAI.Model,
		}
		if s.cfg.OpenAI.DownloadTimeout > 0 {
			params[imagegen.ParamDownloadTimeout] = s.cfg.OpenAI.DownloadTimeout.String()
		}
		return params
	case provider.MeiGen:
		return provider.Params{
			imagegen.ParamAPIKey:  s.cfg.MeiGen.APIToken,
			imagegen.ParamBaseURL: s.cfg.UploadGatewayURL,
		}
	case provider.ComfyUI:
		return provider.Params{
			imagegen.ParamBaseURL: s.cfg.ComfyUI.URL,
		}
	}
	return provider.Params{}
}
