package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/resolver"
	"github.com/lehigh-university-libraries/firstedition/internal/testsupport"
)

type recordingResolver struct {
	got    resolver.Query
	result resolver.Result
}

func (r *recordingResolver) Resolve(_ context.Context, q resolver.Query) resolver.Result {
	r.got = q
	return r.result
}

func TestHealthcheck(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&recordingResolver{}, 0).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("Unexpected healthcheck response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandleResolveQueryParams(t *testing.T) {
	res := &recordingResolver{result: resolver.Result{Outcome: resolver.OutcomeNoMatch}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/resolve?title=Beloved&author=T.+Morrison&author=Toni+Morrison&isbn=9781400033416&isbn=", nil)

	New(res, 0).Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "no match" || body["outcome"] != "no_match" {
		t.Errorf("Unexpected body %v", body)
	}
	if len(res.got.Authors) != 2 || res.got.Authors[1] != "Toni Morrison" {
		t.Errorf("Expected authors in order, got %v", res.got.Authors)
	}
	if len(res.got.ISBNs) != 1 {
		t.Errorf("Expected blank ISBN dropped, got %v", res.got.ISBNs)
	}
}

func TestHandleResolveBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"missing author", http.MethodGet, "/api/resolve?title=Beloved", ""},
		{"empty query", http.MethodGet, "/api/resolve", ""},
		{"invalid json", http.MethodPost, "/api/resolve", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			New(&recordingResolver{}, 0).Routes().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandleResolveMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&recordingResolver{}, 0).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/resolve", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestHandleResolveEndToEnd(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	fake.Searches[testsupport.SearchKey("Beloved", "Toni Morrison")] = []testsupport.Work{
		{Key: "OL15308W", Title: "Beloved", AuthorKeys: []string{"OL31574A"}, FirstPublishYear: testsupport.Year(1987)},
	}
	fake.Authors["OL31574A"] = testsupport.Author{Name: "Toni Morrison"}
	fake.Editions["OL15308W"] = []testsupport.Edition{
		{Title: "Beloved", PublishDate: "1987"},
		{Title: "Beloved", PublishDate: "1987", Publishers: []string{"Knopf"}, ISBN13: []string{"9781400033416"}},
		{Title: "Beloved", PublishDate: "2004"},
	}
	client := catalog.NewClient(catalog.Options{BaseURL: fake.Start(t)})
	srv := httptest.NewServer(New(resolver.New(client, 0), 0).Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/resolve", "application/json",
		strings.NewReader(`{"title":"Beloved","authors":["Toni Morrison"]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var md struct {
		ISBN13          []string `json:"isbn_13"`
		PublicationDate string   `json:"publication_date"`
		Publisher       []string `json:"publisher"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		t.Fatal(err)
	}
	if md.PublicationDate != "1987-01-01" || len(md.Publisher) != 1 || md.Publisher[0] != "Knopf" || md.ISBN13[0] != "9781400033416" {
		t.Errorf("Unexpected metadata %+v", md)
	}
}

func TestHandleResolveTimeout(t *testing.T) {
	release := make(chan struct{})
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer stalled.Close()
	defer close(release)

	client := catalog.NewClient(catalog.Options{BaseURL: stalled.URL})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/resolve?title=Beloved&author=Toni+Morrison", nil)

	New(resolver.New(client, 0), 50*time.Millisecond).Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("Expected 504, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "no match") {
		t.Errorf("Timeout reported as no match: %s", rec.Body.String())
	}
}

func TestHandleResolveClientGone(t *testing.T) {
	res := &recordingResolver{result: resolver.Result{Outcome: resolver.OutcomeInterrupted}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/resolve?isbn=9781400033416", nil).WithContext(ctx)

	New(res, time.Minute).Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}
