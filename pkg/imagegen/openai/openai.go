// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package openai is the reference image generation adapter. It talks to any
// OpenAI-compatible images endpoint (OpenAI, Together AI, DeepInfra, ...).
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/leseb/meigen-gw/pkg/imagegen"
	"github.com/leseb/meigen-gw/pkg/provider"
)

func init() {
	imagegen.Adapters.Register(string(provider.OpenAI), func(_ context.Context, params provider.Params) (imagegen.Provider, error) {
		opts := Options{
			APIKey:  params[imagegen.ParamAPIKey],
			BaseURL: params[imagegen.ParamBaseURL],
			Model:   params[imagegen.ParamModel],
		}
		if v := params[imagegen.ParamDownloadTimeout]; v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("openai: invalid download_timeout %q: %w", v, err)
			}
			opts.DownloadTimeout = d
		}
		return New(opts)
	})
}

const (
	name             = "openai"
	defaultBaseURL   = "https://api.openai.com"
	defaultModel     = "gpt-image-1.5"
	legacyFamily     = "dall-e"
	maxUpstreamError = 64 * 1024
)

// compile-time check
var _ imagegen.Provider = (*Provider)(nil)

// Options configures the adapter.
type Options struct {
	APIKey  string // required
	BaseURL string // without the /v1 suffix, e.g. "https://api.openai.com"
	Model   string // default model when the request names none

	// DownloadTimeout bounds the secondary fetch of a URL-only response.
	// Zero means the caller's context alone decides.
	DownloadTimeout time.Duration

	// HTTPClient is used for both the API call and the image download.
	HTTPClient *http.Client
}

// Provider generates images via POST {BaseURL}/v1/images/generations.
type Provider struct {
	client          openai.Client
	httpClient      *http.Client
	model           string
	downloadTimeout time.Duration
}

// New creates the adapter.
func New(opts Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL+"/v1/"),
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(hc),
		// generation is not idempotent upstream
		option.WithMaxRetries(0),
	)

	return &Provider{
		client:          client,
		httpClient:      hc,
		model:           model,
		downloadTimeout: opts.DownloadTimeout,
	}, nil
}

// Name returns the provider kind.
func (p *Provider) Name() string { return name }

// Generate issues one generation call and returns the first image. A URL-only
// response costs one extra GET to download the bytes.
func (p *Provider) Generate(ctx context.Context, req *imagegen.Request) (*imagegen.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	legacy := strings.HasPrefix(model, legacyFamily)

	n := req.N
	if n == 0 {
		n = imagegen.DefaultN
	}
	size := req.Size
	if size == "" {
		size = imagegen.DefaultSize
	}

	params := openai.ImageGenerateParams{
		Model:  openai.ImageModel(model),
		Prompt: req.Prompt,
		N:      openai.Int(int64(n)),
		Size:   openai.ImageGenerateParamsSize(size),
	}
	// gpt-image models answer with base64 by default and reject response_format
	if legacy {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}
	if req.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(req.Quality)
	}

	var failed upstreamCapture
	reqOpts := []option.RequestOption{option.WithMiddleware(failed.middleware)}
	// dall-e does not accept image input on the generations endpoint
	if len(req.ReferenceImages) > 0 && !legacy {
		reqOpts = append(reqOpts, option.WithJSONSet("image", req.ReferenceImages))
	}

	resp, err := p.client.Images.Generate(ctx, params, reqOpts...)
	if err != nil {
		if failed.status != 0 {
			return nil, &imagegen.UpstreamError{Provider: name, Status: failed.status, Body: failed.body}
		}
		return nil, fmt.Errorf("openai images request: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, &imagegen.MalformedResponseError{Provider: name, Message: "no image data in response"}
	}
	image := resp.Data[0]

	if image.B64JSON != "" {
		return &imagegen.Result{ImageBase64: image.B64JSON, MimeType: imagegen.DefaultMime}, nil
	}
	if image.URL != "" {
		return p.download(ctx, image.URL)
	}
	return nil, &imagegen.MalformedResponseError{Provider: name, Message: "response contains neither b64_json nor url"}
}

func (p *Provider) download(ctx context.Context, url string) (*imagegen.Result, error) {
	if p.downloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.downloadTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &imagegen.UpstreamError{Provider: name, Status: resp.StatusCode, Body: truncate(data)}
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = imagegen.DefaultMime
	}
	return &imagegen.Result{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    mime,
	}, nil
}

// upstreamCapture records the status and body of a failed API response before
// the SDK turns it into an error value.
type upstreamCapture struct {
	status int
	body   string
}

func (c *upstreamCapture) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil || resp.StatusCode < 400 {
		return resp, err
	}
	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if readErr != nil {
		return resp, nil
	}
	c.status = resp.StatusCode
	c.body = truncate(data)
	return resp, nil
}

func truncate(b []byte) string {
	if len(b) > maxUpstreamError {
		b = b[:maxUpstreamError]
	}
	return string(b)
}
