package extraction

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/dates"
	"github.com/lehigh-university-libraries/firstedition/internal/records"
)

// stringList decodes a JSON list of strings, a single string, or null.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var many []*string
	if err := json.Unmarshal(data, &many); err == nil {
		for _, s := range many {
			if s != nil {
				*l = append(*l, *s)
			}
		}
		return nil
	}
	var one *string
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	if one != nil {
		*l = stringList{*one}
	}
	return nil
}

type response struct {
	Title           *string    `json:"title"`
	Subtitle        *string    `json:"subtitle"`
	Series          *string    `json:"series"`
	Author          stringList `json:"author"`
	Translator      stringList `json:"translator"`
	ISBN13          stringList `json:"isbn_13"`
	ISBN10          stringList `json:"isbn_10"`
	PublicationDate *string    `json:"publication_date"`
	Status          *string    `json:"status"`
	Publisher       stringList `json:"publisher"`
}

// stripFences removes a surrounding markdown code block.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// ParseResponse turns a model reply into a candidate record for filename.
// Dates go through the normalizer and unknown statuses are dropped.
func ParseResponse(filename, raw string) (records.Record, error) {
	var resp response
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return records.Record{}, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	rec := records.Record{
		Filename: filename,
		Title:    deref(resp.Title),
		Subtitle: deref(resp.Subtitle),
		Series:   deref(resp.Series),
		Author:   clean(resp.Author),
		SourceMetadata: records.BookMetadata{
			Translator: clean(resp.Translator),
			ISBN13:     cleanISBNs(resp.ISBN13),
			ISBN10:     cleanISBNs(resp.ISBN10),
			Publisher:  clean(resp.Publisher),
		},
	}

	if raw := deref(resp.PublicationDate); raw != "" {
		if d, ok := dates.Normalize(raw); ok {
			rec.SourceMetadata.PublicationDate = &d
		}
	}
	if raw := deref(resp.Status); raw != "" {
		if status, ok := records.ParseStatus(raw); ok {
			rec.SourceMetadata.Status = status
		} else {
			slog.Debug("Dropping unrecognized status", "filename", filename, "status", raw)
		}
	}
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func clean(values stringList) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cleanISBNs(values stringList) []string {
	var out []string
	for _, v := range values {
		if v = catalog.CleanISBN(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
