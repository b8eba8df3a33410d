package editions

import (
	"testing"

	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
)

func ptr(s string) *string { return &s }

func TestSelectEdition(t *testing.T) {
	tests := []struct {
		name     string
		editions []catalog.EditionRecord
		want     string
		wantOK   bool
	}{
		{
			name: "publisher and isbn preferred within earliest year",
			editions: []catalog.EditionRecord{
				{Title: "bare", PublishDate: ptr("2001")},
				{Title: "full", PublishDate: ptr("2001"), Publishers: []string{"Knopf"}, ISBN13: []string{"9781400033416"}},
				{Title: "later", PublishDate: ptr("2003"), Publishers: []string{"Vintage"}, ISBN10: []string{"1400033411"}},
			},
			want:   "full",
			wantOK: true,
		},
		{
			name: "publisher only beats bare",
			editions: []catalog.EditionRecord{
				{Title: "bare", PublishDate: ptr("1987")},
				{Title: "publisher", PublishDate: ptr("June 1987"), Publishers: []string{"Knopf"}},
			},
			want:   "publisher",
			wantOK: true,
		},
		{
			name: "first in bucket when nothing is preferred",
			editions: []catalog.EditionRecord{
				{Title: "first", PublishDate: ptr("1990")},
				{Title: "second", PublishDate: ptr("1990"), ISBN10: []string{"0000000000"}},
			},
			want:   "first",
			wantOK: true,
		},
		{
			name: "earlier year resets the bucket",
			editions: []catalog.EditionRecord{
				{Title: "late full", PublishDate: ptr("2004"), Publishers: []string{"A"}, ISBN13: []string{"1"}},
				{Title: "early bare", PublishDate: ptr("1987")},
				{Title: "mid", PublishDate: ptr("1995"), Publishers: []string{"B"}},
			},
			want:   "early bare",
			wantOK: true,
		},
		{
			name: "first match among equals",
			editions: []catalog.EditionRecord{
				{Title: "one", PublishDate: ptr("1987"), Publishers: []string{"A"}, ISBN13: []string{"1"}},
				{Title: "two", PublishDate: ptr("1987"), Publishers: []string{"B"}, ISBN13: []string{"2"}},
			},
			want:   "one",
			wantOK: true,
		},
		{
			name: "undated editions are excluded",
			editions: []catalog.EditionRecord{
				{Title: "undated", Publishers: []string{"A"}, ISBN13: []string{"1"}},
				{Title: "garbage", PublishDate: ptr("n.d."), Publishers: []string{"A"}, ISBN13: []string{"1"}},
				{Title: "dated", PublishDate: ptr("2010")},
			},
			want:   "dated",
			wantOK: true,
		},
		{
			name: "no parseable dates",
			editions: []catalog.EditionRecord{
				{Title: "undated"},
				{Title: "garbage", PublishDate: ptr("unknown")},
			},
			wantOK: false,
		},
		{
			name:   "empty",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectEdition(tt.editions)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got.Title != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got.Title)
			}
		})
	}
}

func TestPublicationDate(t *testing.T) {
	d, ok := PublicationDate(catalog.EditionRecord{PublishDate: ptr("1987")})
	if !ok || d.String() != "1987-01-01" {
		t.Errorf("Expected 1987-01-01, got %v %v", d, ok)
	}
	if _, ok := PublicationDate(catalog.EditionRecord{}); ok {
		t.Error("Expected no date for missing publish_date")
	}
}
