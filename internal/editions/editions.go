// Package editions picks the representative earliest edition out of all the
// editions of the earliest works.
package editions

import (
	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/dates"
)

// SelectEdition returns the preferred edition from the earliest publication
// year. Editions without a parseable publish date are never candidates.
//
// Within the earliest year the first edition (in input order) that has both
// a publisher and an ISBN wins, then the first with a publisher, then simply
// the first. The boolean is false when no edition has a usable date.
func SelectEdition(editions []catalog.EditionRecord) (catalog.EditionRecord, bool) {
	var bucket []catalog.EditionRecord
	earliest := 0
	for _, edition := range editions {
		if edition.PublishDate == nil {
			continue
		}
		published, ok := dates.Normalize(*edition.PublishDate)
		if !ok {
			continue
		}
		switch {
		case len(bucket) == 0 || published.Year < earliest:
			earliest = published.Year
			bucket = []catalog.EditionRecord{edition}
		case published.Year == earliest:
			bucket = append(bucket, edition)
		}
	}

	if len(bucket) == 0 {
		return catalog.EditionRecord{}, false
	}
	for _, edition := range bucket {
		if edition.HasPublisher() && edition.HasISBN() {
			return edition, true
		}
	}
	for _, edition := range bucket {
		if edition.HasPublisher() {
			return edition, true
		}
	}
	return bucket[0], true
}

// PublicationDate returns the normalized publish date of an edition.
func PublicationDate(edition catalog.EditionRecord) (dates.Date, bool) {
	if edition.PublishDate == nil {
		return dates.Date{}, false
	}
	return dates.Normalize(*edition.PublishDate)
}
