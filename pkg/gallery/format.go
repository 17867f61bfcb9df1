// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gallery

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leseb/meigen-gw/pkg/library"
)

const followUpHint = "Show the preview images above to the user so they can visually browse. " +
	"Use get_inspiration(imageId) to get the full prompt and all images for any entry the user likes."

var numbers = message.NewPrinter(language.English)

// Format renders an outcome as the markdown text shown to the tool host.
func Format(o *Outcome) string {
	switch o.Source {
	case SourceEmpty:
		return o.Suggestion
	case SourceRandom:
		var b strings.Builder
		if o.Stats != nil {
			fmt.Fprintf(&b, "Curated Prompt Library: %d trending prompts\n", o.Stats.Total)
			fmt.Fprintf(&b, "Categories: %s\n\n", formatCategories(o.Stats.Categories))
		}
		fmt.Fprintf(&b, "Here are %d random picks - show the preview images to the user:\n", o.Query.Limit)
		b.WriteString(formatItems(o.Items, formatLocalItem))
		return b.String()
	case SourceSemantic:
		return fmt.Sprintf("Found %d results for %q (semantic search):\n\n%s\n\n%s",
			len(o.Items), o.Query.Query, formatItems(o.Items, formatRemoteItem), followUpHint)
	default:
		var desc []string
		if o.Query.Query != "" {
			desc = append(desc, fmt.Sprintf("%q", o.Query.Query))
		}
		if o.Query.Category != "" {
			desc = append(desc, "category: "+o.Query.Category)
		}
		forDesc := ""
		if len(desc) > 0 {
			forDesc = " for " + strings.Join(desc, ", ")
		}
		return fmt.Sprintf("Found %d results%s:\n\n%s\n\n%s",
			len(o.Items), forDesc, formatItems(o.Items, formatLocalItem), followUpHint)
	}
}

func formatItems(items []Item, one func(int, *Item) string) string {
	parts := make([]string, len(items))
	for i := range items {
		parts[i] = one(i+1, &items[i])
	}
	return strings.Join(parts, "\n\n")
}

func formatRemoteItem(n int, it *Item) string {
	lines := []string{fmt.Sprintf("%d. by %s - %s", n, deref(it.Author, unknownAuthor), deref(it.Model, "unknown"))}
	if it.ImageURL != nil {
		lines = append(lines, fmt.Sprintf("   ![Preview](%s)", *it.ImageURL))
	}
	lines = append(lines,
		"   Prompt: "+it.Prompt,
		formatStats(it),
		"   ID: "+it.ID,
	)
	return strings.Join(lines, "\n")
}

func formatLocalItem(n int, it *Item) string {
	return strings.Join([]string{
		fmt.Sprintf("%d. **#%d** by %s - %s", n, it.Rank, deref(it.Author, unknownAuthor), strings.Join(it.Categories, ", ")),
		fmt.Sprintf("   ![Preview #%d](%s)", it.Rank, deref(it.ImageURL, "")),
		"   Prompt: " + it.Prompt,
		formatStats(it),
		"   ID: " + it.ID,
	}, "\n")
}

func formatStats(it *Item) string {
	return fmt.Sprintf("   Stats: %d likes, %s views", it.Likes, numbers.Sprintf("%d", it.Views))
}

// formatCategories lists known categories first, in their canonical order.
func formatCategories(counts map[string]int) string {
	var parts []string
	seen := map[string]bool{}
	for _, c := range library.Categories {
		if n, ok := counts[c]; ok {
			parts = append(parts, fmt.Sprintf("%s (%d)", c, n))
			seen[c] = true
		}
	}
	var extra []string
	for c := range counts {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	for _, c := range extra {
		parts = append(parts, fmt.Sprintf("%s (%d)", c, counts[c]))
	}
	return strings.Join(parts, ", ")
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// FormatEntry renders a full library entry with its untruncated prompt and
// every image.
func FormatEntry(e *library.Entry) string {
	var b strings.Builder
	author := e.AuthorName
	if author == "" {
		author = unknownAuthor
	}
	fmt.Fprintf(&b, "**#%d** by %s", e.Rank, author)
	if len(e.Categories) > 0 {
		fmt.Fprintf(&b, " - %s", strings.Join(e.Categories, ", "))
	}
	b.WriteString("\n\n")

	images := e.Images
	if len(images) == 0 && e.Image != "" {
		images = []string{e.Image}
	}
	for i, img := range images {
		fmt.Fprintf(&b, "![Image %d](%s)\n", i+1, img)
	}
	if len(images) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Prompt:\n```\n%s\n```\n\n", e.Prompt)
	fmt.Fprintf(&b, "Stats: %d likes, %s views", e.Likes, numbers.Sprintf("%d", e.Views))
	if e.Model != "" {
		fmt.Fprintf(&b, "\nModel: %s", e.Model)
	}
	if e.Date != "" {
		fmt.Fprintf(&b, "\nDate: %s", e.Date)
	}
	return b.String()
}
