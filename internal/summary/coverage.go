package summary

import (
	"github.com/lehigh-university-libraries/firstedition/internal/records"
)

// Coverage counts how many output records carry each enriched field.
type Coverage struct {
	Total            int `json:"total" yaml:"total"`
	Enriched         int `json:"enriched" yaml:"enriched"`
	WithDate         int `json:"with_date" yaml:"with_date"`
	WithISBN         int `json:"with_isbn" yaml:"with_isbn"`
	WithPublisher    int `json:"with_publisher" yaml:"with_publisher"`
	EarlierThanCopy  int `json:"earlier_than_copy" yaml:"earlier_than_copy"`
	SourceWithISBN   int `json:"source_with_isbn" yaml:"source_with_isbn"`
	SourceIncomplete int `json:"source_incomplete" yaml:"source_incomplete"`
}

// CoverageRow is one labelled count.
type CoverageRow struct {
	Label string
	Count int
}

// MeasureCoverage tallies recs.
func MeasureCoverage(recs []records.Record) Coverage {
	var c Coverage
	for _, rec := range recs {
		c.Total++
		src := rec.SourceMetadata
		if len(src.ISBN13)+len(src.ISBN10) > 0 {
			c.SourceWithISBN++
		}
		if !rec.Enrichable() {
			c.SourceIncomplete++
		}

		orig := rec.OriginalMetadata
		if orig == nil {
			continue
		}
		c.Enriched++
		if orig.PublicationDate != nil {
			c.WithDate++
			if src.PublicationDate != nil && orig.PublicationDate.Year < src.PublicationDate.Year {
				c.EarlierThanCopy++
			}
		}
		if len(orig.ISBN13)+len(orig.ISBN10) > 0 {
			c.WithISBN++
		}
		if len(orig.Publisher) > 0 {
			c.WithPublisher++
		}
	}
	return c
}

// Rows returns the counts in display order.
func (c Coverage) Rows() []CoverageRow {
	return []CoverageRow{
		{"source has isbn", c.SourceWithISBN},
		{"source missing title/author", c.SourceIncomplete},
		{"enriched", c.Enriched},
		{"earliest date", c.WithDate},
		{"earliest isbn", c.WithISBN},
		{"earliest publisher", c.WithPublisher},
		{"earliest year before copy", c.EarlierThanCopy},
	}
}
