// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package library is the read-only curated prompt collection used for browsing
// and as the local fallback for semantic search.
package library

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/leseb/meigen-gw/pkg/provider"
)

// Backends is the registry of library implementations.
//
//	import _ "github.com/leseb/meigen-gw/pkg/library/memory"
//	import _ "github.com/leseb/meigen-gw/pkg/library/sqldb"
var Backends = provider.NewRegistry[Library]("prompt_library")

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("prompt not found")

// Categories is the closed set of gallery categories.
var Categories = []string{"3D", "App", "Food", "Girl", "JSON", "Other", "Photograph", "Product"}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// SortBy selects the result order of Search.
type SortBy string

const (
	SortRank  SortBy = "rank"
	SortLikes SortBy = "likes"
	SortViews SortBy = "views"
	SortDate  SortBy = "date"
)

// Valid reports whether s is a known sort key.
func (s SortBy) Valid() bool {
	switch s {
	case SortRank, SortLikes, SortViews, SortDate:
		return true
	}
	return false
}

// Entry is one curated prompt.
type Entry struct {
	ID         string   `json:"id"`
	Rank       int      `json:"rank"`
	Prompt     string   `json:"prompt"`
	AuthorName string   `json:"author_name"`
	Categories []string `json:"categories"`
	Image      string   `json:"image"`
	Images     []string `json:"images,omitempty"`
	Likes      int      `json:"likes"`
	Views      int      `json:"views"`
	Date       string   `json:"date,omitempty"` // ISO 8601, sorts lexically
	Model      string   `json:"model,omitempty"`
}

// Filter selects entries for Search. Query terms are matched case-insensitively
// against prompt text, author and categories; every term must match.
type Filter struct {
	Query    string
	Category string
	Limit    int
	Offset   int
	SortBy   SortBy
}

// Stats summarizes the collection.
type Stats struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}

// Library is the local data source contract.
type Library interface {
	Search(ctx context.Context, f Filter) ([]Entry, error)
	Random(ctx context.Context, n int) ([]Entry, error)
	Stats(ctx context.Context) (Stats, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Close() error
}

// Terms splits a query into lowercase search terms.
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Matches reports whether e satisfies the category and every term of f.
func Matches(e *Entry, category string, terms []string) bool {
	if category != "" && !hasCategory(e, category) {
		return false
	}
	if len(terms) == 0 {
		return true
	}
	prompt := strings.ToLower(e.Prompt)
	author := strings.ToLower(e.AuthorName)
	for _, term := range terms {
		if strings.Contains(prompt, term) || strings.Contains(author, term) || categoryContains(e, term) {
			continue
		}
		return false
	}
	return true
}

func hasCategory(e *Entry, category string) bool {
	for _, c := range e.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func categoryContains(e *Entry, term string) bool {
	for _, c := range e.Categories {
		if strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}
	return false
}

// SortEntries orders entries in place. Ties fall back to rank, then ID.
func SortEntries(entries []Entry, by SortBy) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		switch by {
		case SortLikes:
			if a.Likes != b.Likes {
				return a.Likes > b.Likes
			}
		case SortViews:
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		case SortDate:
			if a.Date != b.Date {
				return a.Date > b.Date
			}
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.ID < b.ID
	})
}

// Page applies offset and limit to an already sorted slice.
func Page(entries []Entry, offset, limit int) []Entry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
