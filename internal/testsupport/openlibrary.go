// Package testsupport provides an in-process stand-in for the Open Library
// read APIs so catalog, resolver and command tests can run without network.
package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Work is a search hit served by the fake catalog.
type Work struct {
	Key              string
	Title            string
	AuthorKeys       []string
	FirstPublishYear *int
}

// Author is an author entity served by the fake catalog.
type Author struct {
	Name           string
	AlternateNames []string
}

// Edition is an edition entry served by the fake catalog.
type Edition struct {
	Title       string
	PublishDate string
	Publishers  []string
	ISBN13      []string
	ISBN10      []string
}

// ISBNRecord is what /isbn/{isbn}.json answers.
type ISBNRecord struct {
	Title      string
	AuthorKeys []string
}

// Year returns a pointer to y for Work.FirstPublishYear.
func Year(y int) *int { return &y }

// FakeCatalog answers search, author, edition and ISBN requests from maps.
// Search hits are keyed by SearchKey(title, author).
type FakeCatalog struct {
	Searches map[string][]Work
	Authors  map[string]Author
	Editions map[string][]Edition
	ISBNs    map[string]ISBNRecord
	// Status forces a response code for an exact request path.
	Status map[string]int

	mu       sync.Mutex
	requests []string
}

// NewFakeCatalog returns an empty catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Searches: map[string][]Work{},
		Authors:  map[string]Author{},
		Editions: map[string][]Edition{},
		ISBNs:    map[string]ISBNRecord{},
		Status:   map[string]int{},
	}
}

// SearchKey builds the Searches map key for a title/author query.
func SearchKey(title, author string) string {
	return strings.ToLower(title) + "|" + strings.ToLower(author)
}

// Start serves the catalog until the test ends and returns its base URL.
func (f *FakeCatalog) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv.URL
}

// Requests returns the request URIs seen so far.
func (f *FakeCatalog) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// CountPrefix counts requests whose path starts with prefix.
func (f *FakeCatalog) CountPrefix(prefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeCatalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.RequestURI())
	f.mu.Unlock()

	if code, ok := f.Status[r.URL.Path]; ok {
		http.Error(w, http.StatusText(code), code)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/search.json":
		f.serveSearch(w, r)
	case strings.HasPrefix(path, "/authors/") && strings.HasSuffix(path, ".json"):
		key := strings.TrimSuffix(strings.TrimPrefix(path, "/authors/"), ".json")
		author, ok := f.Authors[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body := map[string]any{"key": "/authors/" + key, "name": author.Name}
		if len(author.AlternateNames) > 0 {
			body["alternate_names"] = author.AlternateNames
		}
		writeJSON(w, body)
	case strings.HasPrefix(path, "/works/") && strings.HasSuffix(path, "/editions.json"):
		key := strings.TrimSuffix(strings.TrimPrefix(path, "/works/"), "/editions.json")
		f.serveEditions(w, r, key)
	case strings.HasPrefix(path, "/isbn/") && strings.HasSuffix(path, ".json"):
		isbn := strings.TrimSuffix(strings.TrimPrefix(path, "/isbn/"), ".json")
		rec, ok := f.ISBNs[isbn]
		if !ok {
			http.NotFound(w, r)
			return
		}
		authors := make([]map[string]string, 0, len(rec.AuthorKeys))
		for _, k := range rec.AuthorKeys {
			authors = append(authors, map[string]string{"key": "/authors/" + k})
		}
		writeJSON(w, map[string]any{"title": rec.Title, "authors": authors})
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeCatalog) serveSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	works := f.Searches[SearchKey(q.Get("title"), q.Get("author"))]
	docs := make([]map[string]any, 0, len(works))
	for _, work := range works {
		doc := map[string]any{"key": "/works/" + work.Key, "title": work.Title}
		if work.AuthorKeys != nil {
			doc["author_key"] = work.AuthorKeys
		}
		if work.FirstPublishYear != nil {
			doc["first_publish_year"] = *work.FirstPublishYear
		}
		docs = append(docs, doc)
	}
	writeJSON(w, map[string]any{"numFound": len(docs), "docs": docs})
}

func (f *FakeCatalog) serveEditions(w http.ResponseWriter, r *http.Request, key string) {
	editions := f.Editions[key]
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	limit = min(limit, len(editions))

	entries := make([]map[string]any, 0, limit)
	for _, e := range editions[:limit] {
		entry := map[string]any{
			"title": e.Title,
			"works": []map[string]string{{"key": "/works/" + key}},
		}
		if e.PublishDate != "" {
			entry["publish_date"] = e.PublishDate
		}
		if e.Publishers != nil {
			entry["publishers"] = e.Publishers
		}
		if e.ISBN13 != nil {
			entry["isbn_13"] = e.ISBN13
		}
		if e.ISBN10 != nil {
			entry["isbn_10"] = e.ISBN10
		}
		entries = append(entries, entry)
	}
	writeJSON(w, map[string]any{"size": len(editions), "entries": entries})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
