package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/firstedition/internal/resolver"
)

// HandleResolve answers GET /api/resolve?title=&author=&isbn=. author and
// isbn may repeat and are tried in the order given.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := resolver.Query{
		Title:   strings.TrimSpace(q.Get("title")),
		Authors: nonBlank(q["author"]),
		ISBNs:   nonBlank(q["isbn"]),
	}
	h.resolve(w, r, query)
}

// HandleResolveJSON answers POST /api/resolve with a JSON query body.
func (h *Handler) HandleResolveJSON(w http.ResponseWriter, r *http.Request) {
	var query resolver.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	query.Title = strings.TrimSpace(query.Title)
	query.Authors = nonBlank(query.Authors)
	query.ISBNs = nonBlank(query.ISBNs)
	h.resolve(w, r, query)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, query resolver.Query) {
	if len(query.ISBNs) == 0 && (query.Title == "" || len(query.Authors) == 0) {
		h.writeError(w, "title and author, or isbn, required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := h.resolver.Resolve(ctx, query)
	if result.Outcome == resolver.OutcomeInterrupted {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			h.writeError(w, "resolution timed out", http.StatusGatewayTimeout)
			return
		}
		h.writeError(w, "resolution cancelled", http.StatusServiceUnavailable)
		return
	}
	if !result.Resolved() {
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   "no match",
			"outcome": string(result.Outcome),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, result.Metadata)
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
