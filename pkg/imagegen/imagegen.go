// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package imagegen defines the contract every image generation backend
// satisfies. Failures are surfaced to the caller; nothing here retries or
// degrades.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leseb/meigen-gw/pkg/provider"
)

// Adapters is the registry of generation backends, keyed by provider.Kind.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/meigen-gw/pkg/imagegen/openai"
var Adapters = provider.NewRegistry[Provider]("image_provider")

// Factory parameter keys understood by adapters.
const (
	ParamAPIKey          = "api_key"
	ParamBaseURL         = "base_url"
	ParamModel           = "model"
	ParamDownloadTimeout = "download_timeout"
)

const (
	DefaultN    = 1
	DefaultSize = "1024x1024"
	DefaultMime = "image/png"
)

var (
	// ErrInvalidRequest wraps every request validation failure.
	ErrInvalidRequest = errors.New("invalid image request")
	// ErrEmptyPrompt is returned before any I/O when the prompt is blank.
	ErrEmptyPrompt = fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	// ErrNoProvider means no generation backend is configured.
	ErrNoProvider = errors.New("no image provider configured")
	// ErrNoAdapter means a provider kind is configured but this build has no
	// adapter for it.
	ErrNoAdapter = errors.New("no adapter for image provider")
)

// Request is a single image generation request.
type Request struct {
	Prompt          string
	Model           string
	N               int
	Size            string
	Quality         string
	ReferenceImages []string
}

// Validate checks the request without touching the network.
func (r *Request) Validate() error {
	if r == nil || strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.N < 0 {
		return fmt.Errorf("%w: n must be positive, got %d", ErrInvalidRequest, r.N)
	}
	return nil
}

// Result is one generated image.
type Result struct {
	ImageBase64 string
	MimeType    string
}

// Provider generates images through one backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// UpstreamError is a non-success HTTP status from a backend.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.Status, e.Body)
}

// MalformedResponseError is a successful response that carries no image.
type MalformedResponseError struct {
	Provider string
	Message  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
