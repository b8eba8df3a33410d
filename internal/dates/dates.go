// Package dates turns the loosely formatted publication dates found in catalog
// records (bare years, partial ISO dates, "June 1987", "c1987.") into calendar dates.
package dates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Date is a calendar date without a time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the date for the given year, month and day.
func New(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime drops the clock and location of t.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes d as an ISO calendar date, or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null, an ISO calendar date, or any string Normalize
// understands. Unparseable strings leave d as the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil && plausible(t.Year()) {
		*d = FromTime(t)
		return nil
	}
	parsed, _ := Normalize(raw)
	*d = parsed
	return nil
}

// Parsed years outside this range are treated as misreads.
const (
	minYear = 1300
	maxYear = 2099
)

func plausible(year int) bool {
	return year >= minYear && year <= maxYear
}

var (
	bareYear     = regexp.MustCompile(`^\s*(\d{4})\s*$`)
	embeddedYear = regexp.MustCompile(`(?:^|\D)(1[3-9]\d{2}|20\d{2})(?:\D|$)`)
)

// layouts are tried in order before the permissive parser. Layouts without a
// day resolve to the first of the month.
var layouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"2006/01",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January, 2006",
	"January 2006",
	"Jan. 2006",
	"Jan 2006",
	"1/2/2006",
}

// Normalize parses raw into a calendar date. A bare four digit year becomes
// January 1 of that year, partial dates resolve to the first day of the
// missing unit, and as a last resort a plausible year (1300-2099) embedded in
// the text is used. The boolean is false when nothing could be recovered.
func Normalize(raw string) (Date, bool) {
	if m := bareYear.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		return New(year, time.January, 1), true
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, trimmed); err == nil && plausible(t.Year()) {
				return FromTime(t), true
			}
		}
		if t, err := dateparse.ParseIn(trimmed, time.UTC); err == nil && plausible(t.Year()) {
			return FromTime(t), true
		}
	}

	if m := embeddedYear.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		slog.Debug("Recovered year from unparseable date", "raw", raw, "year", year)
		return New(year, time.January, 1), true
	}

	slog.Warn("Unable to parse date", "raw", raw)
	return Date{}, false
}
