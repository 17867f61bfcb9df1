// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"github.com/leseb/meigen-gw/pkg/gallery"
	"github.com/leseb/meigen-gw/pkg/library"
)

// GallerySearchResponse is the result of GET /v1/gallery/search
type GallerySearchResponse struct {
	Object     string         `json:"object"`               // Always "gallery.search"
	Source     gallery.Source `json:"source"`               // "random", "semantic", "local" or "empty"
	Query      gallery.Query  `json:"query"`                // Effective query after defaults
	Data       []gallery.Item `json:"data"`                 // Normalized results
	Stats      *library.Stats `json:"stats,omitempty"`      // Random browse only
	Suggestion string         `json:"suggestion,omitempty"` // Empty results only
	Text       string         `json:"text"`                 // Rendered markdown, as shown to tool hosts
}

// GalleryEntryResponse is the full entry returned by GET /v1/gallery/{id}
type GalleryEntryResponse struct {
	Object string `json:"object"` // Always "gallery.entry"
	library.Entry
}

// GalleryStatsResponse is the result of GET /v1/gallery/stats
type GalleryStatsResponse struct {
	Object string `json:"object"` // Always "gallery.stats"
	library.Stats
}
