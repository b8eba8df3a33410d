// Package extraction asks an LLM for the candidate bibliographic fields of a
// raw text file.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/firstedition/internal/gemini"
	"github.com/lehigh-university-libraries/firstedition/internal/ollama"
	"github.com/lehigh-university-libraries/firstedition/internal/openai"
	"github.com/lehigh-university-libraries/firstedition/internal/providers"
	"github.com/lehigh-university-libraries/firstedition/internal/records"
)

// NewProvider returns the named LLM backend.
func NewProvider(name string) (providers.Provider, error) {
	switch name {
	case "ollama":
		return ollama.New(), nil
	case "openai":
		return openai.New(), nil
	case "gemini":
		return gemini.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// Options tunes an extraction Service.
type Options struct {
	Model       string
	Temperature float64
	HeadWords   int
	TailWords   int
}

type Service struct {
	provider providers.Provider
	opts     Options
	system   string
}

func NewService(provider providers.Provider, opts Options) *Service {
	return &Service{
		provider: provider,
		opts:     opts,
		system:   SystemPrompt(opts.HeadWords, opts.TailWords),
	}
}

// ExtractFile reads path and returns a record keyed by its base name.
func (s *Service) ExtractFile(ctx context.Context, path string) (records.Record, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return records.Record{}, fmt.Errorf("failed to read text: %w", err)
	}
	return s.Extract(ctx, filepath.Base(path), string(text))
}

// Extract runs the model over an excerpt of text.
func (s *Service) Extract(ctx context.Context, filename, text string) (records.Record, error) {
	excerpt := Excerpt(text, s.opts.HeadWords, s.opts.TailWords)
	slog.Debug("Extracting metadata", "filename", filename, "excerpt_bytes", len(excerpt))

	raw, err := s.provider.ExtractText(ctx, providers.Config{
		Model:        s.opts.Model,
		Temperature:  s.opts.Temperature,
		SystemPrompt: s.system,
		Prompt:       excerpt,
		JSON:         true,
	})
	if err != nil {
		return records.Record{}, fmt.Errorf("failed to extract metadata for %s: %w", filename, err)
	}

	rec, err := ParseResponse(filename, raw)
	if err != nil {
		return records.Record{}, err
	}
	slog.Info("Extracted metadata", "filename", filename, "title", rec.Title, "authors", len(rec.Author))
	return rec, nil
}

// ListTexts returns the .txt files directly inside dir, sorted by name.
func ListTexts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
