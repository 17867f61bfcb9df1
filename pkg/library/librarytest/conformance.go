// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package librarytest provides a shared conformance test suite for
// library.Library implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package librarytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/meigen-gw/pkg/library"
)

// Entries is the fixture every backend is loaded with.
func Entries() []library.Entry {
	return []library.Entry{
		{ID: "e3", Rank: 3, Prompt: "Matcha latte art, top view", AuthorName: "kai", Categories: []string{"Food", "Photograph"}, Image: "https://cdn/e3.jpg", Images: []string{"https://cdn/e3.jpg", "https://cdn/e3b.jpg"}, Likes: 40, Views: 900, Date: "2025-02-01"},
		{ID: "e1", Rank: 1, Prompt: "Cyberpunk street at night, neon rain", AuthorName: "neo", Categories: []string{"3D"}, Image: "https://cdn/e1.jpg", Likes: 10, Views: 5000, Date: "2025-01-10", Model: "midjourney"},
		{ID: "e2", Rank: 2, Prompt: "Studio product shot of a perfume bottle", AuthorName: "lin", Categories: []string{"Product"}, Image: "https://cdn/e2.jpg", Likes: 80, Views: 100, Date: "2025-03-05"},
		{ID: "e4", Rank: 4, Prompt: "Neon ramen bowl\nwith steam", AuthorName: "kai", Categories: []string{"Food", "Food"}, Image: "https://cdn/e4.jpg", Likes: 5, Views: 50, Date: "2024-11-11"},
	}
}

// RunConformanceTests exercises a Library implementation against the shared
// contract. newLibrary is called once per sub-test and must return a library
// holding exactly the given entries.
func RunConformanceTests(t *testing.T, newLibrary func(t *testing.T, entries []library.Entry) library.Library) {
	t.Helper()

	open := func(t *testing.T) library.Library {
		lib := newLibrary(t, Entries())
		t.Cleanup(func() { _ = lib.Close() })
		return lib
	}

	t.Run("Search", func(t *testing.T) {
		lib := open(t)
		tests := []struct {
			name   string
			filter library.Filter
			want   []string
		}{
			{"all by rank", library.Filter{Limit: 10}, []string{"e1", "e2", "e3", "e4"}},
			{"default sort is rank", library.Filter{Limit: 10, SortBy: ""}, []string{"e1", "e2", "e3", "e4"}},
			{"category by likes", library.Filter{Category: "Food", Limit: 10, SortBy: library.SortLikes}, []string{"e3", "e4"}},
			{"views", library.Filter{Limit: 10, SortBy: library.SortViews}, []string{"e1", "e3", "e2", "e4"}},
			{"case insensitive terms", library.Filter{Query: "NEON", Limit: 10}, []string{"e1", "e4"}},
			{"every term must match", library.Filter{Query: "neon bowl", Limit: 10}, []string{"e4"}},
			{"query and category", library.Filter{Query: "neon", Category: "Food", Limit: 10}, []string{"e4"}},
			{"category text as term", library.Filter{Query: "photo", Limit: 10}, []string{"e3"}},
			{"author term", library.Filter{Query: "kai", Limit: 10, SortBy: library.SortViews}, []string{"e3", "e4"}},
			{"paged by date", library.Filter{Limit: 2, Offset: 1, SortBy: library.SortDate}, []string{"e3", "e1"}},
			{"offset past end", library.Filter{Limit: 2, Offset: 10}, nil},
			{"category is exact", library.Filter{Category: "food", Limit: 10}, nil},
			{"no match", library.Filter{Query: "spaceship", Limit: 10}, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := lib.Search(context.Background(), tt.filter)
				require.NoError(t, err)
				if tt.want == nil {
					assert.Empty(t, got)
					return
				}
				assert.Equal(t, tt.want, ids(got))
			})
		}
	})

	t.Run("Random", func(t *testing.T) {
		lib := open(t)
		ctx := context.Background()

		got, err := lib.Random(ctx, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		seen := map[string]bool{}
		for _, e := range got {
			assert.False(t, seen[e.ID], "duplicate %s", e.ID)
			seen[e.ID] = true
		}

		got, err = lib.Random(ctx, 20)
		require.NoError(t, err)
		assert.Len(t, got, 4)

		got, err = lib.Random(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Stats", func(t *testing.T) {
		lib := open(t)
		stats, err := lib.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, map[string]int{"Food": 2, "Photograph": 1, "3D": 1, "Product": 1}, stats.Categories)
	})

	t.Run("Get", func(t *testing.T) {
		lib := open(t)
		ctx := context.Background()

		e, err := lib.Get(ctx, "e3")
		require.NoError(t, err)
		assert.Equal(t, "Matcha latte art, top view", e.Prompt)
		assert.Equal(t, []string{"Food", "Photograph"}, e.Categories)
		assert.Equal(t, []string{"https://cdn/e3.jpg", "https://cdn/e3b.jpg"}, e.Images)
		assert.Equal(t, 900, e.Views)

		e, err = lib.Get(ctx, "e4")
		require.NoError(t, err)
		assert.Equal(t, "Neon ramen bowl\nwith steam", e.Prompt)

		e, err = lib.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "midjourney", e.Model)
		assert.Empty(t, e.Images)

		_, err = lib.Get(ctx, "missing")
		assert.ErrorIs(t, err, library.ErrNotFound)
	})

	t.Run("Empty", func(t *testing.T) {
		lib := newLibrary(t, nil)
		t.Cleanup(func() { _ = lib.Close() })
		ctx := context.Background()

		got, err := lib.Search(ctx, library.Filter{Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = lib.Random(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, got)

		stats, err := lib.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total)
	})
}

func ids(es []library.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}
