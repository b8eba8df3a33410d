// Package catalog is a client for the Open Library read APIs used to resolve
// works, their authors and their editions.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "https://openlibrary.org"
	DefaultTimeout        = 30 * time.Second
	DefaultEditionCeiling = 2000
	DefaultSearchLimit    = 100
	DefaultUserAgent      = "firstedition/0.1 (+https://github.com/lehigh-university-libraries/firstedition)"

	searchFields = "title,author_key,author_name,author_alternative_name,first_publish_year,key"
)

var (
	// ErrNotFound is returned when the catalog answers 404.
	ErrNotFound = errors.New("catalog: not found")
	// ErrUnexpectedStatus is returned for any other non-200 answer.
	ErrUnexpectedStatus = errors.New("catalog: unexpected status")
)

// Doer is the part of *http.Client the catalog needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	EditionCeiling    int
	SearchLimit       int
	Retries           int
	RetryWait         time.Duration
	RequestsPerSecond float64
	UserAgent         string
	HTTPClient        Doer
}

// Client talks to the catalog. A single Client is shared by every stage of a
// resolution run; it holds no per-query state.
type Client struct {
	BaseURL        string
	EditionCeiling int

	searchLimit int
	retries     int
	retryWait   time.Duration
	userAgent   string
	httpClient  Doer
	limiter     *rate.Limiter
}

// NewClient creates a new catalog client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.EditionCeiling <= 0 {
		opts.EditionCeiling = DefaultEditionCeiling
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		BaseURL:        strings.TrimRight(opts.BaseURL, "/"),
		EditionCeiling: opts.EditionCeiling,
		searchLimit:    opts.SearchLimit,
		retries:        opts.Retries,
		retryWait:      opts.RetryWait,
		userAgent:      opts.UserAgent,
		httpClient:     opts.HTTPClient,
		limiter:        rate.NewLimiter(limit, 1),
	}
}

// SearchWorks runs a title/author work search. Transport and decode failures
// are logged and reported as an empty result.
func (c *Client) SearchWorks(ctx context.Context, title, author string) []WorkRecord {
	q := url.Values{}
	q.Set("title", title)
	q.Set("author", author)
	q.Set("fields", searchFields)
	q.Set("limit", strconv.Itoa(c.searchLimit))

	var resp searchResponse
	if err := c.getJSON(ctx, "/search.json", q, &resp); err != nil {
		slog.Warn("Work search failed", "title", title, "author", author, "error", err)
		return nil
	}

	works := make([]WorkRecord, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		works = append(works, doc.toWork())
	}
	slog.Debug("Work search complete", "title", title, "author", author, "num_found", resp.NumFound, "docs", len(works))
	return works
}

// FetchAuthorIdentity loads one author entity. Missing name fields come back
// empty; the boolean is false only when the author could not be fetched.
func (c *Client) FetchAuthorIdentity(ctx context.Context, ref AuthorRef) (AuthorIdentity, bool) {
	key := trimKey(string(ref), "/authors/")
	if key == "" {
		return AuthorIdentity{}, false
	}

	var resp authorResponse
	if err := c.getJSON(ctx, "/authors/"+url.PathEscape(key)+".json", nil, &resp); err != nil {
		slog.Warn("Author lookup failed", "author_key", key, "error", err)
		return AuthorIdentity{}, false
	}

	identity := AuthorIdentity{AlternateNames: resp.AlternateNames}
	if resp.Name != nil {
		identity.PrimaryName = *resp.Name
	}
	return identity, true
}

// ListEditions fetches the editions of a work in two calls: a probe that
// reports the total edition count, then one request sized to that count but
// never larger than capacity. A capacity of zero or less uses EditionCeiling.
func (c *Client) ListEditions(ctx context.Context, workKey string, capacity int) []EditionRecord {
	if capacity <= 0 {
		capacity = c.EditionCeiling
	}
	key := trimKey(workKey, "/works/")
	path := "/works/" + url.PathEscape(key) + "/editions.json"

	var probe editionsResponse
	if err := c.getJSON(ctx, path, nil, &probe); err != nil {
		slog.Warn("Edition count probe failed", "work_key", key, "error", err)
		return nil
	}
	if probe.Size <= 0 {
		slog.Debug("Work has no editions", "work_key", key)
		return nil
	}

	limit := min(probe.Size, capacity)
	if probe.Size > capacity {
		slog.Info("Capping edition fetch", "work_key", key, "available", probe.Size, "limit", limit)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var page editionsResponse
	if err := c.getJSON(ctx, path, q, &page); err != nil {
		slog.Warn("Edition fetch failed", "work_key", key, "limit", limit, "error", err)
		return nil
	}

	editions := make([]EditionRecord, 0, len(page.Entries))
	for _, entry := range page.Entries {
		editions = append(editions, entry.toEdition(key))
	}
	slog.Debug("Fetched editions", "work_key", key, "count", len(editions))
	return editions
}

// LookupISBN resolves an ISBN to the title of its edition and the primary
// name of the edition's first author. ok is false if either is unavailable.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (title, author string, ok bool) {
	clean := CleanISBN(isbn)
	if clean == "" {
		return "", "", false
	}

	var edition editionDoc
	if err := c.getJSON(ctx, "/isbn/"+url.PathEscape(clean)+".json", nil, &edition); err != nil {
		slog.Warn("ISBN lookup failed", "isbn", clean, "error", err)
		return "", "", false
	}
	if edition.Title == "" || len(edition.Authors) == 0 {
		slog.Debug("ISBN record lacks title or author", "isbn", clean)
		return "", "", false
	}

	identity, found := c.FetchAuthorIdentity(ctx, AuthorRef(edition.Authors[0].Key))
	if !found || identity.PrimaryName == "" {
		return "", "", false
	}
	return edition.Title, identity.PrimaryName, true
}

// getJSON performs a paced GET and decodes the body into out. Transport
// errors, 429 and 5xx answers are retried with exponential backoff up to the
// configured retry count; everything else fails immediately.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, endpoint))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, endpoint, string(body))
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, endpoint, string(body)))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode %s: %w", endpoint, err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryWait
	policy.MaxElapsedTime = 0
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retries)), ctx)

	return backoff.RetryNotify(op, retry, func(err error, wait time.Duration) {
		slog.Warn("Retrying catalog request", "url", endpoint, "wait", wait, "error", err)
	})
}

// CleanISBN removes hyphens and spaces from an ISBN.
func CleanISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	isbn = strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(isbn, " ", "")
}
