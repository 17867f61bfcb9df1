// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package websearch calls the MeiGen website search API, a hybrid vector and
// keyword index over published posts.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leseb/meigen-gw/pkg/observability/logging"
)

// Timeout bounds every search call.
const Timeout = 8 * time.Second

// Row is one post as returned by the API. Normalization happens in the caller.
type Row struct {
	ID                string   `json:"id"`
	Text              string   `json:"text"`
	ThumbnailURL      *string  `json:"thumbnail_url"`
	MediaURLs         []string `json:"media_urls"`
	AuthorUsername    *string  `json:"author_username"`
	AuthorDisplayName *string  `json:"author_display_name"`
	Likes             int      `json:"likes"`
	Views             int      `json:"views"`
	Model             *string  `json:"model"`
	PromptReady       *bool    `json:"prompt_ready"`
	ImageWidth        *int     `json:"image_width"`
	ImageHeight       *int     `json:"image_height"`
	Rank              int      `json:"rank"`
}

type searchResponse struct {
	Success bool   `json:"success"`
	Data    []Row  `json:"data"`
	Error   string `json:"error"`
}

// Searcher is the contract the gallery depends on. ok is false whenever the
// remote service could not produce an answer.
type Searcher interface {
	Search(ctx context.Context, query string, limit, offset int) (rows []Row, ok bool)
}

// Client queries GET {baseURL}/api/search.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *logging.Logger
}

// compile-time check
var _ Searcher = (*Client)(nil)

// NewClient creates a search client for the given site root, e.g.
// "https://www.meigen.ai".
func NewClient(baseURL string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    Timeout,
		logger:     logger,
	}
}

// Search runs one bounded search. Every failure (timeout, transport error,
// non-2xx status, undecodable body, success=false) collapses to ok=false and is
// only logged.
func (c *Client) Search(ctx context.Context, query string, limit, offset int) ([]Row, bool) {
	rows, err := c.search(ctx, query, limit, offset)
	if err != nil {
		c.logger.Warn("Semantic search unavailable", "query", query, "error", err)
		return nil, false
	}
	return rows, true
}

func (c *Client) search(ctx context.Context, query string, limit, offset int) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "posts")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u := c.baseURL + "/api/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("search failed: %s", result.Error)
	}
	if result.Data == nil {
		return nil, fmt.Errorf("search response has no data")
	}

	c.logger.Debug("Semantic search completed", "query", query, "results", len(result.Data))
	return result.Data, nil
}
