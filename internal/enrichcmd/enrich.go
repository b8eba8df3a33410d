package enrichcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/config"
	"github.com/lehigh-university-libraries/firstedition/internal/records"
	"github.com/lehigh-university-libraries/firstedition/internal/resolver"
	"github.com/lehigh-university-libraries/firstedition/internal/summary"
	"github.com/spf13/cobra"
)

type enrichOptions struct {
	input  string
	output string
	limit  int
	noSave bool
}

// NewEnrichCmd creates the enrich command
func NewEnrichCmd() *cobra.Command {
	var opts enrichOptions

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Resolve candidate records to their earliest known edition",
		Long: `Reads candidate records (JSONL or Parquet), looks each one up in Open Library,
and appends the record with its earliest edition metadata to the output file.

Records whose filename is already in the output are skipped, so an interrupted
run can simply be started again.`,
		Example: `  # Enrich extracted records
  firstedition enrich --input data/extracted.jsonl --output data/enriched.jsonl

  # Try the first 20 pending records with debug logging
  firstedition enrich -i data/extracted.jsonl -o data/enriched.jsonl --limit 20 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			res := resolver.New(catalog.NewClient(cfg.CatalogOptions()), cfg.Catalog.EditionCeiling)

			s, err := executeEnrich(cmd.Context(), opts, cfg, res)
			if err != nil {
				return err
			}
			return finishRun(cmd.OutOrStdout(), s, cfg, opts.noSave)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Candidate records (.jsonl or .parquet)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Enriched JSONL output (appended to)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "Process at most N pending records (0 for all)")
	cmd.Flags().BoolVar(&opts.noSave, "no-summary", false, "Do not write a run summary under the data directory")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func executeEnrich(ctx context.Context, opts enrichOptions, cfg *config.Config, res *resolver.Resolver) (*summary.Summary, error) {
	runID := uuid.NewString()
	defer withRunID(runID)()
	slog.Info("Starting enrichment run", "input", opts.input, "output", opts.output, "catalog", cfg.Catalog.BaseURL)

	batch, err := records.NewLoader(opts.input).Load()
	if err != nil {
		return nil, err
	}

	done, err := records.ProcessedKeys(opts.output)
	if err != nil {
		return nil, err
	}
	if len(done) > 0 {
		slog.Info("Found already processed records", "count", len(done))
	}

	w, err := records.OpenWriter(opts.output)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	s := summary.New(summary.RunConfig{
		RunID:      runID,
		Command:    "enrich",
		Input:      opts.input,
		Output:     opts.output,
		CatalogURL: cfg.Catalog.BaseURL,
		Limit:      opts.limit,
	})
	s.Counts.Total = len(batch.Records)
	s.Counts.Malformed = batch.Malformed

	attempted := 0
	for _, rec := range batch.Records {
		if _, ok := done[rec.Filename]; ok {
			s.Counts.Skipped++
			continue
		}
		if opts.limit > 0 && attempted >= opts.limit {
			break
		}
		if ctx.Err() != nil {
			slog.Warn("Run interrupted", "attempted", attempted)
			break
		}
		attempted++
		// a repeated filename in the input is written once
		done[rec.Filename] = struct{}{}

		if !rec.Enrichable() {
			slog.Info("Skipping enrichment, missing title or author", "filename", rec.Filename)
			if err := w.Write(rec); err != nil {
				return nil, err
			}
			s.AddIncomplete(summary.Entry{Filename: rec.Filename, Title: rec.Title})
			continue
		}

		result := res.Resolve(ctx, rec.Query())
		if result.Outcome == resolver.OutcomeInterrupted {
			// left out of the output so a resumed run picks it up again
			slog.Warn("Run interrupted", "filename", rec.Filename, "attempted", attempted)
			break
		}
		rec.OriginalMetadata = records.FromResolved(result.Metadata)
		if err := w.Write(rec); err != nil {
			return nil, err
		}

		entry := summary.Entry{
			Filename: rec.Filename,
			Title:    rec.Title,
			Outcome:  string(result.Outcome),
			Strategy: string(result.Strategy),
		}
		if result.Metadata != nil && result.Metadata.PublicationDate != nil {
			entry.PublicationDate = result.Metadata.PublicationDate.String()
		}
		s.Add(entry)
		slog.Debug("Record enriched", "filename", rec.Filename, "outcome", result.Outcome, "attempted", attempted)
	}

	s.Finish()
	slog.Info("Enrichment run finished", "processed", s.Counts.Processed, "skipped", s.Counts.Skipped, "duration", s.Duration())
	return s, nil
}

// finishRun prints the summary table and saves the YAML report.
func finishRun(out io.Writer, s *summary.Summary, cfg *config.Config, noSave bool) error {
	s.Render(out)
	if noSave {
		return nil
	}
	path, err := s.SaveYAML(cfg.RunsDir())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nRun summary saved to: %s\n", path)
	return nil
}
