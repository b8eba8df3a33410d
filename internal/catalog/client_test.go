package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/firstedition/internal/testsupport"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{BaseURL: baseURL, RetryWait: time.Millisecond})
}

func TestSearchWorks(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	fake.Searches[testsupport.SearchKey("Beloved", "Toni Morrison")] = []testsupport.Work{
		{Key: "OL1W", Title: "Beloved", AuthorKeys: []string{"OL1A"}, FirstPublishYear: testsupport.Year(1987)},
		{Key: "OL2W", Title: "Beloved (Anniversary)", AuthorKeys: []string{"OL1A"}},
		{Key: "OL3W", Title: "Beloved"},
	}
	client := newTestClient(fake.Start(t))

	works := client.SearchWorks(context.Background(), "Beloved", "Toni Morrison")
	if len(works) != 3 {
		t.Fatalf("Expected 3 works, got %d", len(works))
	}
	if works[0].Key != "OL1W" {
		t.Errorf("work key prefix not stripped: %q", works[0].Key)
	}
	if works[0].FirstPublishYear == nil || *works[0].FirstPublishYear != 1987 {
		t.Errorf("Expected first publish year 1987, got %v", works[0].FirstPublishYear)
	}
	if works[1].FirstPublishYear != nil {
		t.Errorf("Expected unknown year, got %d", *works[1].FirstPublishYear)
	}
	if len(works[2].AuthorRefs) != 0 {
		t.Errorf("Expected no author refs, got %v", works[2].AuthorRefs)
	}

	req := fake.Requests()[0]
	for _, want := range []string{"title=Beloved", "author=Toni+Morrison", "limit=100", "fields="} {
		if !strings.Contains(req, want) {
			t.Errorf("search request %q missing %q", req, want)
		}
	}
}

func TestSearchWorksToleratesOddYears(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"numFound":3,"docs":[
			{"key":"/works/OL1W","title":"A","author_key":["OL1A"],"first_publish_year":"1990"},
			{"key":"/works/OL2W","title":"B","author_key":null,"first_publish_year":null},
			{"key":"/works/OL3W","title":"C","first_publish_year":"unknown"}]}`))
	}))
	defer srv.Close()

	works := newTestClient(srv.URL).SearchWorks(context.Background(), "A", "B")
	if len(works) != 3 {
		t.Fatalf("Expected 3 works, got %d", len(works))
	}
	if works[0].FirstPublishYear == nil || *works[0].FirstPublishYear != 1990 {
		t.Errorf("string year not decoded: %v", works[0].FirstPublishYear)
	}
	if works[1].FirstPublishYear != nil || works[2].FirstPublishYear != nil {
		t.Errorf("null and garbage years should be unknown")
	}
}

func TestSearchWorksFailureIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"docs":[`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if works := newTestClient(srv.URL).SearchWorks(context.Background(), "x", "y"); len(works) != 0 {
				t.Errorf("Expected empty result, got %v", works)
			}
		})
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "slow down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Toni Morrison"}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, Retries: 2, RetryWait: time.Millisecond})
	identity, ok := client.FetchAuthorIdentity(context.Background(), "OL1A")
	if !ok || identity.PrimaryName != "Toni Morrison" {
		t.Fatalf("Expected success after retries, got %+v ok=%v", identity, ok)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, Retries: 3, RetryWait: time.Millisecond})
	if _, ok := client.FetchAuthorIdentity(context.Background(), "OL404A"); ok {
		t.Fatal("Expected lookup to fail")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected a single call, got %d", calls.Load())
	}
}

func TestFetchAuthorIdentity(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	fake.Authors["OL26320A"] = testsupport.Author{Name: "J. R. R. Tolkien", AlternateNames: []string{"J.R.R. Tolkien", "John Ronald Reuel Tolkien"}}
	fake.Authors["OL9A"] = testsupport.Author{}
	client := newTestClient(fake.Start(t))

	identity, ok := client.FetchAuthorIdentity(context.Background(), "/authors/OL26320A")
	if !ok {
		t.Fatal("Expected author to resolve")
	}
	if identity.PrimaryName != "J. R. R. Tolkien" || len(identity.AlternateNames) != 2 {
		t.Errorf("Unexpected identity: %+v", identity)
	}
	if got := identity.Names(); len(got) != 3 {
		t.Errorf("Expected 3 names, got %v", got)
	}

	empty, ok := client.FetchAuthorIdentity(context.Background(), "OL9A")
	if !ok {
		t.Fatal("Expected author with missing fields to resolve")
	}
	if len(empty.Names()) != 0 {
		t.Errorf("Expected no names, got %v", empty.Names())
	}
}

func TestListEditionsTwoStep(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	editions := make([]testsupport.Edition, 120)
	for i := range editions {
		editions[i] = testsupport.Edition{Title: "Beloved", PublishDate: "1987"}
	}
	fake.Editions["OL1W"] = editions
	client := newTestClient(fake.Start(t))

	got := client.ListEditions(context.Background(), "/works/OL1W", 0)
	if len(got) != 120 {
		t.Fatalf("Expected all 120 editions, got %d", len(got))
	}
	if got[0].WorkKey != "OL1W" {
		t.Errorf("Expected parent work key OL1W, got %q", got[0].WorkKey)
	}

	reqs := fake.Requests()
	if len(reqs) != 2 {
		t.Fatalf("Expected probe and bulk fetch, got %v", reqs)
	}
	if reqs[0] != "/works/OL1W/editions.json" {
		t.Errorf("unexpected probe %q", reqs[0])
	}
	if reqs[1] != "/works/OL1W/editions.json?limit=120" {
		t.Errorf("unexpected bulk fetch %q", reqs[1])
	}
}

func TestListEditionsCapacity(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	fake.Editions["OL1W"] = make([]testsupport.Edition, 30)
	client := newTestClient(fake.Start(t))

	got := client.ListEditions(context.Background(), "OL1W", 10)
	if len(got) != 10 {
		t.Fatalf("Expected capacity of 10 to be honored, got %d", len(got))
	}
	if last := fake.Requests()[1]; last != "/works/OL1W/editions.json?limit=10" {
		t.Errorf("unexpected bulk fetch %q", last)
	}
}

func TestListEditionsEmpty(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	client := newTestClient(fake.Start(t))

	if got := client.ListEditions(context.Background(), "OL404W", 0); len(got) != 0 {
		t.Errorf("Expected no editions, got %d", len(got))
	}
	if n := len(fake.Requests()); n != 1 {
		t.Errorf("Expected only the probe when size is 0, got %d requests", n)
	}
}

func TestListEditionsFields(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	fake.Editions["OL1W"] = []testsupport.Edition{
		{Title: "Beloved", PublishDate: "September 1987", Publishers: []string{"Knopf"}, ISBN13: []string{"9781400033416"}},
		{Title: "Beloved"},
	}
	client := newTestClient(fake.Start(t))

	got := client.ListEditions(context.Background(), "OL1W", 0)
	if len(got) != 2 {
		t.Fatalf("Expected 2 editions, got %d", len(got))
	}
	if got[0].PublishDate == nil || *got[0].PublishDate != "September 1987" {
		t.Errorf("unexpected publish date %v", got[0].PublishDate)
	}
	if !got[0].HasPublisher() || !got[0].HasISBN() {
		t.Errorf("Expected publisher and ISBN on first edition: %+v", got[0])
	}
	if got[1].PublishDate != nil || got[1].HasPublisher() || got[1].HasISBN() {
		t.Errorf("Expected bare second edition: %+v", got[1])
	}
}

func TestLookupISBN(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	fake.ISBNs["9781400033416"] = testsupport.ISBNRecord{Title: "Beloved", AuthorKeys: []string{"OL1A"}}
	fake.ISBNs["0000000000"] = testsupport.ISBNRecord{Title: "Orphan"}
	fake.Authors["OL1A"] = testsupport.Author{Name: "Toni Morrison"}
	client := newTestClient(fake.Start(t))

	title, author, ok := client.LookupISBN(context.Background(), "978-1-4000-3341-6")
	if !ok || title != "Beloved" || author != "Toni Morrison" {
		t.Errorf("LookupISBN = %q, %q, %v", title, author, ok)
	}

	if _, _, ok := client.LookupISBN(context.Background(), "0000000000"); ok {
		t.Error("Expected ISBN without authors to be unknown")
	}
	if _, _, ok := client.LookupISBN(context.Background(), "1111111111"); ok {
		t.Error("Expected missing ISBN to be unknown")
	}
}

func TestCleanISBN(t *testing.T) {
	tests := map[string]string{
		"978-1-4000-3341-6": "9781400033416",
		" 0 394 53597 9 ":   "0394535979",
		"":                  "",
	}
	for in, want := range tests {
		if got := CleanISBN(in); got != want {
			t.Errorf("CleanISBN(%q) = %q, want %q", in, got, want)
		}
	}
}
