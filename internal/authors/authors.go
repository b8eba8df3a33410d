// Package authors expands catalog author references into the set of names an
// author is known by, for case-insensitive matching against extracted names.
package authors

import (
	"context"
	"log/slog"

	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"golang.org/x/text/cases"
)

// IdentityFetcher loads one author entity from the catalog.
type IdentityFetcher interface {
	FetchAuthorIdentity(ctx context.Context, ref catalog.AuthorRef) (catalog.AuthorIdentity, bool)
}

// Fold returns the case-folded form of s used for every name and title
// comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// NameSet is a set of case-folded names.
type NameSet map[string]struct{}

// Add inserts name in folded form. Empty names are ignored.
func (s NameSet) Add(name string) {
	if name == "" {
		return
	}
	s[Fold(name)] = struct{}{}
}

// Contains reports whether name, compared case-insensitively, is in the set.
func (s NameSet) Contains(name string) bool {
	_, ok := s[Fold(name)]
	return ok
}

// Resolver turns author references into name sets.
type Resolver struct {
	fetcher IdentityFetcher
}

// NewResolver returns a Resolver backed by fetcher.
func NewResolver(fetcher IdentityFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// ResolveNames unions the primary and alternate names of every reference.
// References that cannot be fetched are skipped; a partial set is still
// useful because a match only needs one name to line up.
func (r *Resolver) ResolveNames(ctx context.Context, refs []catalog.AuthorRef) NameSet {
	names := NameSet{}
	for _, ref := range refs {
		identity, ok := r.fetcher.FetchAuthorIdentity(ctx, ref)
		if !ok {
			slog.Debug("Skipping unresolved author", "author_key", ref)
			continue
		}
		for _, name := range identity.Names() {
			names.Add(name)
		}
	}
	return names
}
