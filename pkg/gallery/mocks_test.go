// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gallery

import (
	"context"
	"errors"

	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/library/memory"
	"github.com/leseb/meigen-gw/pkg/websearch"
)

// --- Mocks ---

type remoteCall struct {
	query         string
	limit, offset int
}

type mockRemote struct {
	rows  []websearch.Row
	ok    bool
	calls []remoteCall
}

func (m *mockRemote) Search(_ context.Context, query string, limit, offset int) ([]websearch.Row, bool) {
	m.calls = append(m.calls, remoteCall{query, limit, offset})
	return m.rows, m.ok
}

// countingLibrary wraps a real library and counts calls per operation.
type countingLibrary struct {
	library.Library
	searches []library.Filter
	randoms  int
	failWith error
}

func (c *countingLibrary) Search(ctx context.Context, f library.Filter) ([]library.Entry, error) {
	c.searches = append(c.searches, f)
	if c.failWith != nil {
		return nil, c.failWith
	}
	return c.Library.Search(ctx, f)
}

func (c *countingLibrary) Random(ctx context.Context, n int) ([]library.Entry, error) {
	c.randoms++
	return c.Library.Random(ctx, n)
}

var errDiskGone = errors.New("disk gone")

func sampleLibrary() *countingLibrary {
	var entries []library.Entry
	cats := []string{"Food", "3D", "Photograph", "Product"}
	for i := 1; i <= 12; i++ {
		entries = append(entries, library.Entry{
			ID:         "local-" + string(rune('a'+i-1)),
			Rank:       i,
			Prompt:     "cyberpunk scene number " + string(rune('a'+i-1)),
			AuthorName: "author",
			Categories: []string{cats[i%len(cats)]},
			Image:      "https://cdn.example/" + string(rune('a'+i-1)) + ".jpg",
			Likes:      i * 3,
			Views:      i * 1000,
		})
	}
	return &countingLibrary{Library: memory.New(entries)}
}

func strPtr(s string) *string { return &s }
