// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gallery

import (
	"strings"

	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/websearch"
)

// PreviewLength is the maximum prompt preview length in characters.
const PreviewLength = 150

const unknownAuthor = "Unknown"

// Item is a search result in a source-independent shape.
type Item struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"prompt"`
	ImageURL   *string  `json:"image_url"`
	Author     *string  `json:"author"`
	Likes      int      `json:"likes"`
	Views      int      `json:"views"`
	Model      *string  `json:"model"`
	Rank       int      `json:"rank"`
	Categories []string `json:"categories,omitempty"`
}

// FromRemote normalizes a semantic search row.
func FromRemote(r *websearch.Row) Item {
	item := Item{
		ID:     r.ID,
		Prompt: Preview(r.Text),
		Likes:  nonNegative(r.Likes),
		Views:  nonNegative(r.Views),
		Model:  nonEmpty(r.Model),
		Rank:   r.Rank,
	}

	if thumb := nonEmpty(r.ThumbnailURL); thumb != nil {
		item.ImageURL = thumb
	} else if len(r.MediaURLs) > 0 && r.MediaURLs[0] != "" {
		item.ImageURL = ptr(r.MediaURLs[0])
	}

	author := unknownAuthor
	if name := nonEmpty(r.AuthorDisplayName); name != nil {
		author = *name
	} else if name := nonEmpty(r.AuthorUsername); name != nil {
		author = *name
	}
	item.Author = &author
	return item
}

// FromLocal normalizes a library entry. Local rows always carry an image.
func FromLocal(e *library.Entry) Item {
	return Item{
		ID:         e.ID,
		Prompt:     Preview(e.Prompt),
		ImageURL:   ptr(e.Image),
		Author:     nonEmpty(&e.AuthorName),
		Likes:      nonNegative(e.Likes),
		Views:      nonNegative(e.Views),
		Model:      nonEmpty(&e.Model),
		Rank:       e.Rank,
		Categories: e.Categories,
	}
}

// Preview collapses newlines to spaces and, past PreviewLength characters,
// cuts at PreviewLength and appends "...".
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) > PreviewLength {
		return strings.ReplaceAll(string(runes[:PreviewLength]), "\n", " ") + "..."
	}
	return strings.ReplaceAll(text, "\n", " ")
}

func ptr(s string) *string { return &s }

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return ptr(*s)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
