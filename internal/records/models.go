package records

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/dates"
	"github.com/lehigh-university-libraries/firstedition/internal/resolver"
)

// Status is the rights status of a text.
type Status string

const (
	StatusAllRightsReserved Status = "all rights reserved"
	StatusPublicDomain      Status = "public domain"
	StatusCCBY              Status = "cc-by"
	StatusCCBYNCSA          Status = "cc-by-nc-sa"
	StatusCCBYND            Status = "cc-by-nd"
	StatusCC0               Status = "cc0"
	StatusOrphanWork        Status = "orphan work"
	StatusGovernmentWork    Status = "government work"
	StatusFairUse           Status = "fair use"
)

// Statuses lists every recognized rights status.
var Statuses = []Status{
	StatusAllRightsReserved,
	StatusPublicDomain,
	StatusCCBY,
	StatusCCBYNCSA,
	StatusCCBYND,
	StatusCC0,
	StatusOrphanWork,
	StatusGovernmentWork,
	StatusFairUse,
}

// ParseStatus matches s against the recognized statuses, ignoring case and
// surrounding space.
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, status := range Statuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// BookMetadata is the edition-level metadata block. Every list is a
// sequence; an absent value is null.
type BookMetadata struct {
	Translator      []string    `json:"translator"`
	ISBN13          []string    `json:"isbn_13"`
	ISBN10          []string    `json:"isbn_10"`
	PublicationDate *dates.Date `json:"publication_date"`
	Status          Status      `json:"status,omitempty" validate:"omitempty,rights_status"`
	Publisher       []string    `json:"publisher"`
}

// Record is one line of the candidate and output streams. SourceMetadata
// describes the copy in hand; OriginalMetadata is filled by enrichment with
// the earliest known edition.
type Record struct {
	Filename         string        `json:"filename" validate:"required"`
	Title            string        `json:"title"`
	Subtitle         string        `json:"subtitle,omitempty"`
	Series           string        `json:"series,omitempty"`
	Author           []string      `json:"author"`
	SourceMetadata   BookMetadata  `json:"source_metadata"`
	OriginalMetadata *BookMetadata `json:"original_metadata"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("rights_status", func(fl validator.FieldLevel) bool {
		_, ok := ParseStatus(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks the fields every record must carry regardless of whether
// it can be enriched.
func (r Record) Validate() error {
	return validate.Struct(r)
}

// normalize rewrites rights statuses to their canonical spelling.
func (r *Record) normalize() {
	r.SourceMetadata.Status = canonicalStatus(r.SourceMetadata.Status)
	if r.OriginalMetadata != nil {
		r.OriginalMetadata.Status = canonicalStatus(r.OriginalMetadata.Status)
	}
}

func canonicalStatus(s Status) Status {
	if status, ok := ParseStatus(string(s)); ok {
		return status
	}
	return s
}

// Enrichable reports whether the record has a title and at least one author.
func (r Record) Enrichable() bool {
	if strings.TrimSpace(r.Title) == "" {
		return false
	}
	for _, a := range r.Author {
		if strings.TrimSpace(a) != "" {
			return true
		}
	}
	return false
}

// Query builds the resolver input: the record title, its authors in order,
// and the source ISBN-13s followed by ISBN-10s without repeats.
func (r Record) Query() resolver.Query {
	q := resolver.Query{Title: strings.TrimSpace(r.Title)}
	for _, a := range r.Author {
		if a = strings.TrimSpace(a); a != "" {
			q.Authors = append(q.Authors, a)
		}
	}

	seen := map[string]bool{}
	for _, list := range [][]string{r.SourceMetadata.ISBN13, r.SourceMetadata.ISBN10} {
		for _, isbn := range list {
			isbn = catalog.CleanISBN(isbn)
			if isbn == "" || seen[isbn] {
				continue
			}
			seen[isbn] = true
			q.ISBNs = append(q.ISBNs, isbn)
		}
	}
	return q
}

// FromResolved converts resolver output into a metadata block. Translator
// and status are never known from the catalog. Empty lists become null.
func FromResolved(md *resolver.Metadata) *BookMetadata {
	if md == nil {
		return nil
	}
	return &BookMetadata{
		ISBN13:          nilIfEmpty(md.ISBN13),
		ISBN10:          nilIfEmpty(md.ISBN10),
		PublicationDate: md.PublicationDate,
		Publisher:       nilIfEmpty(md.Publisher),
	}
}

func nilIfEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

// parquetRow is the flat column layout accepted for Parquet candidate files.
type parquetRow struct {
	Filename        string   `parquet:"filename"`
	Title           string   `parquet:"title"`
	Subtitle        string   `parquet:"subtitle"`
	Series          string   `parquet:"series"`
	Author          []string `parquet:"author,list"`
	Translator      []string `parquet:"translator,list"`
	ISBN13          []string `parquet:"isbn_13,list"`
	ISBN10          []string `parquet:"isbn_10,list"`
	PublicationDate string   `parquet:"publication_date"`
	Status          string   `parquet:"status"`
	Publisher       []string `parquet:"publisher,list"`
}

func (p parquetRow) toRecord() Record {
	rec := Record{
		Filename: p.Filename,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Series:   p.Series,
		Author:   nilIfEmpty(p.Author),
		SourceMetadata: BookMetadata{
			Translator: nilIfEmpty(p.Translator),
			ISBN13:     nilIfEmpty(p.ISBN13),
			ISBN10:     nilIfEmpty(p.ISBN10),
			Status:     Status(p.Status),
			Publisher:  nilIfEmpty(p.Publisher),
		},
	}
	if p.PublicationDate != "" {
		if d, ok := dates.Normalize(p.PublicationDate); ok {
			rec.SourceMetadata.PublicationDate = &d
		}
	}
	return rec
}
