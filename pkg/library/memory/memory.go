// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory serves the prompt library from a JSON file loaded once at
// startup.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/provider"
)

func init() {
	library.Backends.Register("memory", func(_ context.Context, params provider.Params) (library.Library, error) {
		if path := params["path"]; path != "" {
			return Load(path)
		}
		return New(nil), nil
	})
}

// compile-time check
var _ library.Library = (*Store)(nil)

// Store is an immutable in-memory library. Entries are kept in rank order and
// never modified after construction, so concurrent reads need no locking.
type Store struct {
	entries []library.Entry
	byID    map[string]int
	stats   library.Stats
}

// New builds a store from entries.
func New(entries []library.Entry) *Store {
	sorted := make([]library.Entry, len(entries))
	copy(sorted, entries)
	library.SortEntries(sorted, library.SortRank)

	s := &Store{
		entries: sorted,
		byID:    make(map[string]int, len(sorted)),
		stats:   library.Stats{Total: len(sorted), Categories: map[string]int{}},
	}
	for i, e := range sorted {
		s.byID[e.ID] = i
		seen := make(map[string]bool, len(e.Categories))
		for _, c := range e.Categories {
			if !seen[c] {
				seen[c] = true
				s.stats.Categories[c]++
			}
		}
	}
	return s
}

// Load reads a JSON array of entries from path.
func Load(path string) (*Store, error) {
	entries, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(entries), nil
}

// ReadFile parses a JSON prompt library export. The SQL backends import the
// same format.
func ReadFile(path string) ([]library.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt library: %w", err)
	}
	var entries []library.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse prompt library %s: %w", path, err)
	}
	return entries, nil
}

// Search filters, sorts and pages the collection.
func (s *Store) Search(_ context.Context, f library.Filter) ([]library.Entry, error) {
	terms := library.Terms(f.Query)
	var matched []library.Entry
	for i := range s.entries {
		if library.Matches(&s.entries[i], f.Category, terms) {
			matched = append(matched, s.entries[i])
		}
	}
	by := f.SortBy
	if by == "" {
		by = library.SortRank
	}
	library.SortEntries(matched, by)
	return library.Page(matched, f.Offset, f.Limit), nil
}

// Random returns up to n distinct entries in random order.
func (s *Store) Random(_ context.Context, n int) ([]library.Entry, error) {
	if n > len(s.entries) {
		n = len(s.entries)
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]library.Entry, 0, n)
	for _, i := range rand.Perm(len(s.entries))[:n] {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Stats returns totals computed at construction.
func (s *Store) Stats(context.Context) (library.Stats, error) {
	cats := make(map[string]int, len(s.stats.Categories))
	for k, v := range s.stats.Categories {
		cats[k] = v
	}
	return library.Stats{Total: s.stats.Total, Categories: cats}, nil
}

// Get returns one entry by ID.
func (s *Store) Get(_ context.Context, id string) (*library.Entry, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", library.ErrNotFound, id)
	}
	e := s.entries[i]
	return &e, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
