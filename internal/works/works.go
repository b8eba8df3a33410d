// Package works finds the catalog works that correspond to an extracted
// title/author pair and picks the earliest of them.
package works

import (
	"context"
	"log/slog"

	"github.com/lehigh-university-libraries/firstedition/internal/authors"
	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
)

// Searcher runs a catalog work search.
type Searcher interface {
	SearchWorks(ctx context.Context, title, author string) []catalog.WorkRecord
}

// Matcher filters search hits down to works whose title and author agree
// exactly, ignoring case, with the query.
type Matcher struct {
	searcher Searcher
	names    *authors.Resolver
}

// NewMatcher returns a Matcher.
func NewMatcher(searcher Searcher, names *authors.Resolver) *Matcher {
	return &Matcher{searcher: searcher, names: names}
}

// Match returns the verified works for title and author. An empty result
// means no match, whether the catalog returned nothing or nothing survived
// verification.
func (m *Matcher) Match(ctx context.Context, title, author string) []catalog.WorkRecord {
	candidates := m.searcher.SearchWorks(ctx, title, author)
	if len(candidates) == 0 {
		slog.Info("Catalog returned no works", "title", title, "author", author)
		return nil
	}

	wantTitle := authors.Fold(title)
	var matched []catalog.WorkRecord
	for _, work := range candidates {
		// Works without authors cannot be verified.
		if len(work.AuthorRefs) == 0 {
			continue
		}
		if authors.Fold(work.Title) != wantTitle {
			continue
		}
		if m.names.ResolveNames(ctx, work.AuthorRefs).Contains(author) {
			matched = append(matched, work)
		}
	}

	if len(matched) == 0 {
		slog.Info("No catalog work matched title and author", "title", title, "author", author, "candidates", len(candidates))
		return nil
	}
	slog.Debug("Matched works", "title", title, "author", author, "count", len(matched))
	return matched
}

// SelectEarliest returns every work whose first publish year equals the
// smallest known year. Ties are all kept because the catalog often splits
// one work into several records. Works with no year are ignored; if none has
// a year the result is empty.
func SelectEarliest(works []catalog.WorkRecord) []catalog.WorkRecord {
	earliest := 0
	found := false
	for _, work := range works {
		if work.FirstPublishYear == nil {
			continue
		}
		if !found || *work.FirstPublishYear < earliest {
			earliest = *work.FirstPublishYear
			found = true
		}
	}
	if !found {
		return nil
	}

	var selected []catalog.WorkRecord
	for _, work := range works {
		if work.FirstPublishYear != nil && *work.FirstPublishYear == earliest {
			selected = append(selected, work)
		}
	}
	return selected
}
