// Package feed selects which articles are listed and in what order.
package feed

import (
	"sort"

	"github.com/harrisjose/homepage/internal/content"
)

// RecentLimit is the number of articles shown on the landing page.
const RecentLimit = 3

// Select drops drafts, orders the rest by date with the newest first and
// keeps at most limit entries. A limit of zero or less keeps everything.
// Articles with equal dates keep their input order. The input is not
// modified.
func Select(articles []content.Article, limit int) []content.Article {
	out := make([]content.Article, 0, len(articles))
	for _, a := range articles {
		if a.Draft {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit:limit]
	}
	return out
}

// Recent returns the articles for the landing page.
func Recent(articles []content.Article) []content.Article {
	return Select(articles, RecentLimit)
}

// Tags returns every tag used by a published article, in first-seen order
// of the date-ordered feed.
func Tags(articles []content.Article) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, a := range Select(articles, 0) {
		for _, tag := range a.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// Tagged returns the published articles carrying tag, newest first.
func Tagged(articles []content.Article, tag string) []content.Article {
	var out []content.Article
	for _, a := range Select(articles, 0) {
		for _, t := range a.Tags {
			if t == tag {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
