// Package resolver ties the matching and selection stages together: it takes
// one candidate query and walks it to the earliest known edition, falling
// back from title/author search to ISBN lookups.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/firstedition/internal/authors"
	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/dates"
	"github.com/lehigh-university-libraries/firstedition/internal/editions"
	"github.com/lehigh-university-libraries/firstedition/internal/works"
)

// Catalog is the set of catalog lookups resolution needs. *catalog.Client
// satisfies it.
type Catalog interface {
	works.Searcher
	authors.IdentityFetcher
	ListEditions(ctx context.Context, workKey string, capacity int) []catalog.EditionRecord
	LookupISBN(ctx context.Context, isbn string) (title, author string, ok bool)
}

// Outcome names the stage a resolution finished in.
type Outcome string

const (
	OutcomeResolved        Outcome = "resolved"
	OutcomeNoMatch         Outcome = "no_match"
	OutcomeNoDatedWorks    Outcome = "no_dated_works"
	OutcomeNoEditions      Outcome = "no_editions"
	OutcomeNoDatedEditions Outcome = "no_dated_editions"
	// OutcomeInterrupted means the context ended before resolution finished.
	// It says nothing about the book and must not be persisted.
	OutcomeInterrupted Outcome = "interrupted"
)

// Outcomes lists every terminal outcome in pipeline order.
var Outcomes = []Outcome{OutcomeResolved, OutcomeNoMatch, OutcomeNoDatedWorks, OutcomeNoEditions, OutcomeNoDatedEditions}

// Strategy is the search path that produced the matched works.
type Strategy string

const (
	StrategyTitleAuthor Strategy = "title_author"
	StrategyISBN        Strategy = "isbn"
)

// Query is one candidate book. Authors are tried in order, then ISBNs.
type Query struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	ISBNs   []string `json:"isbns,omitempty"`
}

// Metadata is the resolved edition data. Translator and rights status are
// never derivable from the catalog and are not part of it.
type Metadata struct {
	ISBN13          []string    `json:"isbn_13"`
	ISBN10          []string    `json:"isbn_10"`
	PublicationDate *dates.Date `json:"publication_date,omitempty"`
	Publisher       []string    `json:"publisher"`
}

// Result describes how far a query got. Metadata is nil unless Outcome is
// OutcomeResolved.
type Result struct {
	Outcome       Outcome   `json:"outcome"`
	Strategy      Strategy  `json:"strategy,omitempty"`
	MatchedTitle  string    `json:"matched_title,omitempty"`
	MatchedAuthor string    `json:"matched_author,omitempty"`
	WorkKeys      []string  `json:"work_keys,omitempty"`
	Metadata      *Metadata `json:"metadata,omitempty"`
}

// Resolved reports whether the query reached an edition.
func (r Result) Resolved() bool {
	return r.Outcome == OutcomeResolved && r.Metadata != nil
}

// Resolver resolves queries against one catalog.
type Resolver struct {
	catalog Catalog
	matcher *works.Matcher
	ceiling int
}

// New returns a Resolver. ceiling caps the number of editions fetched per
// work; zero or less defers to the catalog's own ceiling.
func New(c Catalog, ceiling int) *Resolver {
	return &Resolver{
		catalog: c,
		matcher: works.NewMatcher(c, authors.NewResolver(c)),
		ceiling: ceiling,
	}
}

// Resolve runs the full pipeline for q. Every terminal state, including no
// match, is a normal return. When ctx ends mid-way the catalog failures it
// causes are not trusted and the outcome is OutcomeInterrupted.
func (r *Resolver) Resolve(ctx context.Context, q Query) Result {
	result := r.resolve(ctx, q)
	if err := ctx.Err(); err != nil {
		slog.Warn("Resolution interrupted", "title", q.Title, "err", err)
		return Result{Outcome: OutcomeInterrupted}
	}
	return result
}

func (r *Resolver) resolve(ctx context.Context, q Query) Result {
	result := r.match(ctx, q)
	if result.Outcome == OutcomeNoMatch {
		return result.Result
	}
	matched := result.matched

	earliest := works.SelectEarliest(matched)
	if len(earliest) == 0 {
		slog.Info("No matched work has a first publish year", "title", q.Title, "works", len(matched))
		result.Outcome = OutcomeNoDatedWorks
		return result.Result
	}
	for _, w := range earliest {
		result.WorkKeys = append(result.WorkKeys, w.Key)
	}

	var all []catalog.EditionRecord
	for _, w := range earliest {
		if ctx.Err() != nil {
			break
		}
		all = append(all, r.catalog.ListEditions(ctx, w.Key, r.ceiling)...)
	}
	if len(all) == 0 {
		slog.Info("No editions found for earliest works", "title", q.Title, "works", result.WorkKeys)
		result.Outcome = OutcomeNoEditions
		return result.Result
	}

	edition, ok := editions.SelectEdition(all)
	if !ok {
		slog.Info("No edition has a usable publish date", "title", q.Title, "editions", len(all))
		result.Outcome = OutcomeNoDatedEditions
		return result.Result
	}

	md := &Metadata{
		ISBN13:    nonNil(edition.ISBN13),
		ISBN10:    nonNil(edition.ISBN10),
		Publisher: nonNil(edition.Publishers),
	}
	if published, ok := editions.PublicationDate(edition); ok {
		md.PublicationDate = &published
	}
	result.Outcome = OutcomeResolved
	result.Metadata = md
	slog.Info("Resolved earliest edition",
		"title", q.Title,
		"strategy", result.Strategy,
		"work", edition.WorkKey,
		"publication_date", md.PublicationDate,
		"publisher", strings.Join(md.Publisher, "; "),
	)
	return result.Result
}

type matchResult struct {
	Result
	matched []catalog.WorkRecord
}

// match tries each author with the query title, then each ISBN, stopping at
// the first non-empty match.
func (r *Resolver) match(ctx context.Context, q Query) matchResult {
	title := strings.TrimSpace(q.Title)
	if title != "" {
		for _, author := range q.Authors {
			author = strings.TrimSpace(author)
			if author == "" {
				continue
			}
			if ctx.Err() != nil {
				return matchResult{Result: Result{Outcome: OutcomeNoMatch}}
			}
			if matched := r.matcher.Match(ctx, title, author); len(matched) > 0 {
				return matchResult{
					Result:  Result{Strategy: StrategyTitleAuthor, MatchedTitle: title, MatchedAuthor: author},
					matched: matched,
				}
			}
		}
	}

	for _, isbn := range q.ISBNs {
		isbn = catalog.CleanISBN(isbn)
		if isbn == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		isbnTitle, isbnAuthor, ok := r.catalog.LookupISBN(ctx, isbn)
		if !ok {
			slog.Debug("ISBN did not resolve", "isbn", isbn)
			continue
		}
		slog.Info("Retrying match from ISBN", "isbn", isbn, "title", isbnTitle, "author", isbnAuthor)
		if matched := r.matcher.Match(ctx, isbnTitle, isbnAuthor); len(matched) > 0 {
			return matchResult{
				Result:  Result{Strategy: StrategyISBN, MatchedTitle: isbnTitle, MatchedAuthor: isbnAuthor},
				matched: matched,
			}
		}
	}

	return matchResult{Result: Result{Outcome: OutcomeNoMatch}}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
