// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqldb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/library/librarytest"
	"github.com/leseb/meigen-gw/pkg/provider"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, SQLite, filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Import(ctx, []library.Entry{
		{ID: "e3", Rank: 3, Prompt: "Matcha latte art, top view", AuthorName: "kai", Categories: []string{"Food", "Photograph"}, Image: "https://cdn/e3.jpg", Images: []string{"https://cdn/e3.jpg", "https://cdn/e3b.jpg"}, Likes: 40, Views: 900, Date: "2025-02-01"},
		{ID: "e1", Rank: 1, Prompt: "Cyberpunk street at night, neon rain", AuthorName: "neo", Categories: []string{"3D"}, Image: "https://cdn/e1.jpg", Likes: 10, Views: 5000, Date: "2025-01-10", Model: "midjourney"},
		{ID: "e2", Rank: 2, Prompt: "Studio product shot, 100% matte_finish", AuthorName: "lin", Categories: []string{"Product"}, Image: "https://cdn/e2.jpg", Likes: 80, Views: 100, Date: "2025-03-05"},
		{ID: "e4", Rank: 4, Prompt: "Neon ramen bowl", AuthorName: "kai", Categories: []string{"Food", "Food"}, Image: "https://cdn/e4.jpg", Likes: 5, Views: 50, Date: "2024-11-11"},
	}))
	return s
}

func TestSQLiteConformance(t *testing.T) {
	librarytest.RunConformanceTests(t, func(t *testing.T, entries []library.Entry) library.Library {
		s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "library.db"))
		require.NoError(t, err)
		require.NoError(t, s.Import(context.Background(), entries))
		return s
	})
}

func TestPostgresConformance(t *testing.T) {
	dsn := os.Getenv("LIBRARY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL conformance tests: LIBRARY_TEST_POSTGRES_DSN must be set")
	}
	librarytest.RunConformanceTests(t, func(t *testing.T, entries []library.Entry) library.Library {
		s, err := Open(context.Background(), Postgres, dsn)
		require.NoError(t, err)
		require.NoError(t, s.Import(context.Background(), entries))
		return s
	})
}

func TestStore_LikeWildcardsAreLiteral(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"100%", "matte_finish"} {
		got, err := s.Search(ctx, library.Filter{Query: q, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1, q)
		assert.Equal(t, "e2", got[0].ID)
	}

	got, err := s.Search(ctx, library.Filter{Query: "1_0", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_OffsetWithoutLimit(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Search(context.Background(), library.Filter{Offset: 3})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e4", got[0].ID)
}

func TestStore_ImportReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Import(ctx, []library.Entry{{ID: "only", Rank: 1, Prompt: "solo"}}))
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Empty(t, stats.Categories)
}

func TestRegisteredBackends(t *testing.T) {
	lib, err := library.Backends.New(context.Background(), "sqlite", provider.Params{"dsn": ":memory:"})
	require.NoError(t, err)
	defer lib.Close()

	stats, err := lib.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)

	_, err = library.Backends.New(context.Background(), "sqlite", provider.Params{})
	assert.Error(t, err)
	assert.True(t, library.Backends.Has("postgres"))
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", pg.rebind("a = ? AND b IN (?, ?)"))

	lite := &Store{dialect: SQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
