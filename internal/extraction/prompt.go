package extraction

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/firstedition/internal/records"
)

const (
	beginStart = "START OF BEGINNING TEXT:"
	beginEnd   = "END OF BEGINNING TEXT"
	finalStart = "START OF FINAL TEXT:"
	finalEnd   = "END OF FINAL TEXT"
)

// Excerpt keeps the first head words and the last tail words of text, each
// wrapped in section markers. Short texts are sent whole as the beginning
// section so no passage appears twice.
func Excerpt(text string, head, tail int) string {
	words := strings.Fields(text)

	var begin, final []string
	if len(words) <= head+tail {
		begin = words
	} else {
		begin = words[:head]
		final = words[len(words)-tail:]
	}

	var b strings.Builder
	b.WriteString(beginStart + "\n")
	b.WriteString(strings.Join(begin, " "))
	b.WriteString("\n" + beginEnd + "\n")
	b.WriteString(finalStart + "\n")
	b.WriteString(strings.Join(final, " "))
	b.WriteString("\n" + finalEnd + "\n")
	return b.String()
}

// SystemPrompt returns the extraction instructions for excerpts built with
// the given word windows.
func SystemPrompt(head, tail int) string {
	statuses := make([]string, 0, len(records.Statuses))
	for _, s := range records.Statuses {
		statuses = append(statuses, fmt.Sprintf("%q", s))
	}

	return fmt.Sprintf(`You are a bibliographic metadata cataloger. You will receive up to the first %d words and the last %d words of a book. The beginning usually holds the title page, copyright page and front matter. The end may hold an afterword, acknowledgements, credits or a bibliography.

Extract these fields:
- title: the main title only, without series name, subtitle or edition notes
- subtitle: the subtitle, if any
- series: the series name, if any
- author: the main author(s), as a list
- translator: the translator(s), as a list
- isbn_13: every ISBN-13 in the text, as a list
- isbn_10: every ISBN-10 in the text, as a list
- publication_date: the publication date of this copy, as YYYY-MM-DD
- status: the copyright or licensing status, one of %s
- publisher: the publisher name(s), as a list

Rules:
- Report every ISBN you find, of both kinds. Write ISBNs without dashes or spaces.
- Put each person, publisher or ISBN in its own list element. Never join several into one string.
- If only the year is known use January 1 of that year. If the year and month are known use the first of that month.
- Use null for anything the text does not state. Never invent values.

Respond with ONLY a JSON object:

{
  "title": "...",
  "subtitle": null,
  "series": null,
  "author": ["..."],
  "translator": [],
  "isbn_13": [],
  "isbn_10": [],
  "publication_date": "YYYY-MM-DD",
  "status": "...",
  "publisher": ["..."]
}`, head, tail, strings.Join(statuses, ", "))
}
