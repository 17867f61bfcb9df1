// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package gallery answers prompt gallery searches. It prefers the remote
// semantic index and degrades silently to the local library when the remote
// call is skipped, unavailable or empty.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/observability/logging"
	"github.com/leseb/meigen-gw/pkg/websearch"
)

const (
	DefaultLimit = 5
	MaxLimit     = 20
)

// ErrInvalidQuery wraps every query validation failure.
var ErrInvalidQuery = errors.New("invalid gallery query")

// Source tells which path produced an Outcome.
type Source string

const (
	SourceRandom   Source = "random"
	SourceSemantic Source = "semantic"
	SourceLocal    Source = "local"
	SourceEmpty    Source = "empty"
)

// Query is a gallery search request. Zero Limit and SortBy take defaults.
type Query struct {
	Query    string         `json:"query,omitempty"`
	Category string         `json:"category,omitempty"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	SortBy   library.SortBy `json:"sort_by"`
}

func (q Query) withDefaults() (Query, error) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = library.SortRank
	}
	switch {
	case q.Limit < 1 || q.Limit > MaxLimit:
		return q, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidQuery, MaxLimit, q.Limit)
	case q.Offset < 0:
		return q, fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidQuery, q.Offset)
	case q.Category != "" && !library.ValidCategory(q.Category):
		return q, fmt.Errorf("%w: unknown category %q (available: %s)", ErrInvalidQuery, q.Category, strings.Join(library.Categories, ", "))
	case !q.SortBy.Valid():
		return q, fmt.Errorf("%w: unknown sort key %q", ErrInvalidQuery, q.SortBy)
	}
	return q, nil
}

// Outcome is the result of a search. It never represents a remote failure:
// those are absorbed into the local path.
type Outcome struct {
	Source     Source         `json:"source"`
	Query      Query          `json:"query"`
	Items      []Item         `json:"items"`
	Stats      *library.Stats `json:"stats,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// Orchestrator runs the search decision chain.
type Orchestrator struct {
	remote websearch.Searcher
	lib    library.Library
	logger *logging.Logger
}

// New creates an orchestrator. remote may be nil, in which case every query
// goes to the local library.
func New(remote websearch.Searcher, lib library.Library, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{remote: remote, lib: lib, logger: logger}
}

// Search runs, in order: random browse when nothing is asked for, remote
// semantic search for an uncategorized query, then local search. Errors are
// limited to query validation and local library failures.
func (o *Orchestrator) Search(ctx context.Context, q Query) (*Outcome, error) {
	q, err := q.withDefaults()
	if err != nil {
		return nil, err
	}

	if q.Query == "" && q.Category == "" && q.Offset == 0 {
		return o.browse(ctx, q)
	}

	// the remote index has no category support, so a category forces local
	if strings.TrimSpace(q.Query) != "" && q.Category == "" && o.remote != nil {
		rows, ok := o.remote.Search(ctx, q.Query, q.Limit, q.Offset)
		if ok && len(rows) > 0 {
			items := make([]Item, len(rows))
			for i := range rows {
				items[i] = FromRemote(&rows[i])
			}
			return &Outcome{Source: SourceSemantic, Query: q, Items: items}, nil
		}
		o.logger.Debug("Falling back to local search", "query", q.Query, "remote_ok", ok)
	}

	entries, err := o.lib.Search(ctx, library.Filter{
		Query:    q.Query,
		Category: q.Category,
		Limit:    q.Limit,
		Offset:   q.Offset,
		SortBy:   q.SortBy,
	})
	if err != nil {
		return nil, fmt.Errorf("local search: %w", err)
	}
	if len(entries) == 0 {
		return &Outcome{Source: SourceEmpty, Query: q, Items: []Item{}, Suggestion: suggestion(q)}, nil
	}
	return &Outcome{Source: SourceLocal, Query: q, Items: fromEntries(entries)}, nil
}

func (o *Orchestrator) browse(ctx context.Context, q Query) (*Outcome, error) {
	entries, err := o.lib.Random(ctx, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("random picks: %w", err)
	}
	stats, err := o.lib.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("library stats: %w", err)
	}
	return &Outcome{Source: SourceRandom, Query: q, Items: fromEntries(entries), Stats: &stats}, nil
}

// Inspiration returns the full local entry behind a search result.
func (o *Orchestrator) Inspiration(ctx context.Context, id string) (*library.Entry, error) {
	return o.lib.Get(ctx, id)
}

// Stats exposes the library summary.
func (o *Orchestrator) Stats(ctx context.Context) (library.Stats, error) {
	return o.lib.Stats(ctx)
}

func suggestion(q Query) string {
	if q.Category != "" {
		return fmt.Sprintf("No results for %q in category %q. Try a different keyword or remove the category filter.", q.Query, q.Category)
	}
	return fmt.Sprintf("No results for %q. Try broader keywords like \"portrait\", \"landscape\", \"product\", \"anime\".", q.Query)
}

func fromEntries(entries []library.Entry) []Item {
	items := make([]Item, len(entries))
	for i := range entries {
		items[i] = FromLocal(&entries[i])
	}
	return items
}
