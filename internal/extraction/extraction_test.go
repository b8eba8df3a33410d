package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/firstedition/internal/providers"
	"github.com/lehigh-university-libraries/firstedition/internal/records"
)

type stubProvider struct {
	reply string
	err   error
	got   providers.Config
}

func (s *stubProvider) ExtractText(_ context.Context, cfg providers.Config) (string, error) {
	s.got = cfg
	return s.reply, s.err
}

func TestExcerpt(t *testing.T) {
	text := "one two three four five six seven eight nine ten"

	got := Excerpt(text, 2, 3)
	if !strings.Contains(got, beginStart+"\none two\n"+beginEnd) {
		t.Errorf("Missing head section:\n%s", got)
	}
	if !strings.Contains(got, finalStart+"\neight nine ten\n"+finalEnd) {
		t.Errorf("Missing tail section:\n%s", got)
	}

	short := Excerpt("one two", 2, 3)
	if !strings.Contains(short, beginStart+"\none two\n") || !strings.Contains(short, finalStart+"\n\n") {
		t.Errorf("Short text should not be duplicated:\n%s", short)
	}
}

func TestSystemPromptListsStatuses(t *testing.T) {
	prompt := SystemPrompt(6000, 2500)
	if !strings.Contains(prompt, "6000 words") || !strings.Contains(prompt, "2500 words") {
		t.Error("Prompt should mention word windows")
	}
	for _, s := range records.Statuses {
		if !strings.Contains(prompt, string(s)) {
			t.Errorf("Prompt missing status %q", s)
		}
	}
}

func TestParseResponse(t *testing.T) {
	raw := "```json\n" + `{
  "title": " Beloved ",
  "subtitle": null,
  "series": "",
  "author": "Toni Morrison",
  "translator": [],
  "isbn_13": ["978-1-4000-3341-6", null],
  "isbn_10": null,
  "publication_date": "2004",
  "status": "All Rights Reserved",
  "publisher": ["Vintage", " "]
}` + "\n```"

	rec, err := ParseResponse("beloved.txt", raw)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if rec.Filename != "beloved.txt" || rec.Title != "Beloved" {
		t.Errorf("Unexpected record %+v", rec)
	}
	if len(rec.Author) != 1 || rec.Author[0] != "Toni Morrison" {
		t.Errorf("Expected single author list, got %v", rec.Author)
	}
	md := rec.SourceMetadata
	if len(md.ISBN13) != 1 || md.ISBN13[0] != "9781400033416" {
		t.Errorf("Unexpected ISBN-13 %v", md.ISBN13)
	}
	if md.ISBN10 != nil || md.Translator != nil {
		t.Errorf("Expected empty lists to be nil, got %v %v", md.ISBN10, md.Translator)
	}
	if md.PublicationDate == nil || md.PublicationDate.String() != "2004-01-01" {
		t.Errorf("Unexpected date %v", md.PublicationDate)
	}
	if md.Status != records.StatusAllRightsReserved {
		t.Errorf("Unexpected status %q", md.Status)
	}
	if len(md.Publisher) != 1 {
		t.Errorf("Expected blank publisher dropped, got %v", md.Publisher)
	}
}

func TestParseResponseDropsUnknownStatus(t *testing.T) {
	rec, err := ParseResponse("x.txt", `{"title":"X","status":"copyleft"}`)
	if err != nil {
		t.Fatal(err)
	}
	if rec.SourceMetadata.Status != "" {
		t.Errorf("Expected status dropped, got %q", rec.SourceMetadata.Status)
	}
}

func TestParseResponseInvalid(t *testing.T) {
	if _, err := ParseResponse("x.txt", "I could not find a title."); err == nil {
		t.Error("Expected error for non-JSON reply")
	}
	if _, err := ParseResponse("x.txt", `{"author": 42}`); err == nil {
		t.Error("Expected error for numeric author")
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beloved.txt")
	if err := os.WriteFile(path, []byte("BELOVED a novel by Toni Morrison"), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := &stubProvider{reply: `{"title":"Beloved","author":["Toni Morrison"]}`}
	svc := NewService(stub, Options{Model: "m", HeadWords: 10, TailWords: 5})

	rec, err := svc.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if rec.Filename != "beloved.txt" || !rec.Enrichable() {
		t.Errorf("Unexpected record %+v", rec)
	}
	if !stub.got.JSON || stub.got.Model != "m" || !strings.Contains(stub.got.Prompt, "Toni Morrison") {
		t.Errorf("Unexpected provider config %+v", stub.got)
	}
	if stub.got.SystemPrompt == "" {
		t.Error("Expected system prompt")
	}
}

func TestExtractProviderError(t *testing.T) {
	svc := NewService(&stubProvider{err: errors.New("boom")}, Options{})
	if _, err := svc.Extract(context.Background(), "x.txt", "text"); err == nil {
		t.Error("Expected provider error to surface")
	}
}

func TestListTexts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.TXT", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListTexts(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "a.TXT" || filepath.Base(paths[1]) != "b.txt" {
		t.Errorf("Unexpected paths %v", paths)
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"ollama", "openai", "gemini"} {
		if _, err := NewProvider(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := NewProvider("claude"); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
