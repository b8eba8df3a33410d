package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AuthorRef is the catalog key of an author entity, e.g. "OL23919A".
type AuthorRef string

// AuthorIdentity holds every name the catalog knows an author by.
type AuthorIdentity struct {
	PrimaryName    string
	AlternateNames []string
}

// Names returns the primary name followed by the alternates, skipping blanks.
func (a AuthorIdentity) Names() []string {
	names := make([]string, 0, len(a.AlternateNames)+1)
	if a.PrimaryName != "" {
		names = append(names, a.PrimaryName)
	}
	for _, n := range a.AlternateNames {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// WorkRecord is a work as returned by one search request.
type WorkRecord struct {
	Key        string
	Title      string
	AuthorRefs []AuthorRef
	// FirstPublishYear is nil when the catalog does not know it.
	FirstPublishYear *int
}

// EditionRecord is a single published manifestation of a work.
type EditionRecord struct {
	WorkKey     string
	Title       string
	PublishDate *string
	Publishers  []string
	ISBN13      []string
	ISBN10      []string
}

// HasISBN reports whether the edition carries at least one ISBN of either kind.
func (e EditionRecord) HasISBN() bool {
	return len(e.ISBN13) > 0 || len(e.ISBN10) > 0
}

// HasPublisher reports whether the edition names at least one publisher.
func (e EditionRecord) HasPublisher() bool {
	return len(e.Publishers) > 0
}

// searchResponse is the /search.json payload restricted to the requested fields.
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string       `json:"key"`
	Title            string       `json:"title"`
	AuthorKey        []string     `json:"author_key"`
	AuthorName       []string     `json:"author_name"`
	FirstPublishYear optionalYear `json:"first_publish_year"`
}

type authorResponse struct {
	Name           *string  `json:"name"`
	AlternateNames []string `json:"alternate_names"`
}

type editionsResponse struct {
	Size    int          `json:"size"`
	Entries []editionDoc `json:"entries"`
}

type editionDoc struct {
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	PublishDate *string    `json:"publish_date"`
	Publishers  []string   `json:"publishers"`
	ISBN13      []string   `json:"isbn_13"`
	ISBN10      []string   `json:"isbn_10"`
	Works       []keyedRef `json:"works"`
	Authors     []keyedRef `json:"authors"`
}

type keyedRef struct {
	Key string `json:"key"`
}

// optionalYear decodes a year given as a number or numeric string. Anything
// else (null, absent, garbage) is treated as unknown rather than an error.
type optionalYear struct {
	value *int
}

func (y *optionalYear) UnmarshalJSON(data []byte) error {
	y.value = nil
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if v, err := strconv.Atoi(n.String()); err == nil {
			y.value = &v
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			y.value = &v
		}
	}
	return nil
}

func (d searchDoc) toWork() WorkRecord {
	refs := make([]AuthorRef, 0, len(d.AuthorKey))
	for _, k := range d.AuthorKey {
		if k = trimKey(k, "/authors/"); k != "" {
			refs = append(refs, AuthorRef(k))
		}
	}
	return WorkRecord{
		Key:              trimKey(d.Key, "/works/"),
		Title:            d.Title,
		AuthorRefs:       refs,
		FirstPublishYear: d.FirstPublishYear.value,
	}
}

func (d editionDoc) toEdition(workKey string) EditionRecord {
	return EditionRecord{
		WorkKey:     workKey,
		Title:       d.Title,
		PublishDate: d.PublishDate,
		Publishers:  nonEmpty(d.Publishers),
		ISBN13:      nonEmpty(d.ISBN13),
		ISBN10:      nonEmpty(d.ISBN10),
	}
}

// trimKey strips the path prefix the catalog puts on entity keys.
func trimKey(key, prefix string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), prefix)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
