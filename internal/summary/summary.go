// Package summary accumulates per-run counts and writes them as a YAML
// report and a terminal table.
package summary

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig describes how a run was invoked.
type RunConfig struct {
	RunID      string    `yaml:"run_id"`
	Command    string    `yaml:"command"`
	Input      string    `yaml:"input"`
	Output     string    `yaml:"output"`
	CatalogURL string    `yaml:"catalog_url,omitempty"`
	Provider   string    `yaml:"provider,omitempty"`
	Model      string    `yaml:"model,omitempty"`
	Limit      int       `yaml:"limit,omitempty"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at,omitempty"`
}

// Counts are the run totals.
type Counts struct {
	Total      int            `yaml:"total"`
	Processed  int            `yaml:"processed"`
	Skipped    int            `yaml:"skipped"`
	Malformed  int            `yaml:"malformed"`
	Incomplete int            `yaml:"incomplete"`
	Errors     int            `yaml:"errors"`
	Outcomes   map[string]int `yaml:"outcomes,omitempty"`
	Strategies map[string]int `yaml:"strategies,omitempty"`
}

// Entry is the result for one input.
type Entry struct {
	Filename        string `yaml:"filename"`
	Title           string `yaml:"title,omitempty"`
	Outcome         string `yaml:"outcome,omitempty"`
	Strategy        string `yaml:"strategy,omitempty"`
	PublicationDate string `yaml:"publication_date,omitempty"`
	Error           string `yaml:"error,omitempty"`
}

// Summary is the full run report.
type Summary struct {
	Config  RunConfig `yaml:"config"`
	Counts  Counts    `yaml:"counts"`
	Entries []Entry   `yaml:"entries"`
}

// New starts a summary for a run.
func New(cfg RunConfig) *Summary {
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = time.Now().UTC()
	}
	return &Summary{
		Config: cfg,
		Counts: Counts{
			Outcomes:   map[string]int{},
			Strategies: map[string]int{},
		},
	}
}

// Add records one processed input. Entries with an Error count as errors,
// everything else counts as processed.
func (s *Summary) Add(e Entry) {
	s.Entries = append(s.Entries, e)
	if e.Error != "" {
		s.Counts.Errors++
		return
	}
	s.Counts.Processed++
	if e.Outcome != "" {
		s.Counts.Outcomes[e.Outcome]++
	}
	if e.Strategy != "" {
		s.Counts.Strategies[e.Strategy]++
	}
}

// AddIncomplete records an input passed through without enrichment.
func (s *Summary) AddIncomplete(e Entry) {
	s.Entries = append(s.Entries, e)
	s.Counts.Incomplete++
}

// Finish stamps the end time.
func (s *Summary) Finish() {
	s.Config.FinishedAt = time.Now().UTC()
}

// Duration is the wall time of the run so far.
func (s *Summary) Duration() time.Duration {
	end := s.Config.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return end.Sub(s.Config.StartedAt)
}

// SaveYAML writes the summary under dir and returns the file path.
func (s *Summary) SaveYAML(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create runs directory: %w", err)
	}

	id := s.Config.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	name := s.Config.Command + "-" + s.Config.StartedAt.Format("2006-01-02_15-04-05")
	if id != "" {
		name += "-" + id
	}
	path := filepath.Join(dir, name+".yaml")

	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	slog.Info("Run summary saved", "path", path)
	return path, nil
}

// LoadYAML reads a summary written by SaveYAML.
func LoadYAML(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &s, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
