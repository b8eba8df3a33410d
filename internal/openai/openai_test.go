package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/firstedition/internal/providers"
)

func TestExtractText(t *testing.T) {
	var got struct {
		Messages       []map[string]string `json:"messages"`
		ResponseFormat map[string]string   `json:"response_format"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	out, err := NewWithURL(srv.URL, "sk-test").ExtractText(context.Background(), providers.Config{
		Model:        "gpt-4o",
		SystemPrompt: "extract",
		Prompt:       "text",
		JSON:         true,
	})
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if out != "{}" {
		t.Errorf("Unexpected output %q", out)
	}
	if len(got.Messages) != 2 || got.Messages[0]["role"] != "system" || got.Messages[1]["content"] != "text" {
		t.Errorf("Unexpected messages %v", got.Messages)
	}
	if got.ResponseFormat["type"] != "json_object" {
		t.Errorf("Expected json response format, got %v", got.ResponseFormat)
	}
}

func TestExtractTextNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	if _, err := NewWithURL(srv.URL, "sk-test").ExtractText(context.Background(), providers.Config{}); err == nil {
		t.Error("Expected error when no choices are returned")
	}
}

func TestExtractTextMissingKey(t *testing.T) {
	_, err := NewWithURL(DefaultURL, "").ExtractText(context.Background(), providers.Config{})
	if !errors.Is(err, providers.ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}
