package enrichcmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/firstedition/internal/config"
	"github.com/lehigh-university-libraries/firstedition/internal/extraction"
	"github.com/lehigh-university-libraries/firstedition/internal/records"
	"github.com/lehigh-university-libraries/firstedition/internal/summary"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	dir       string
	output    string
	provider  string
	model     string
	headWords int
	tailWords int
	limit     int
	noSave    bool
}

// NewExtractCmd creates the extract command
func NewExtractCmd() *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract candidate title, author and ISBNs from raw text files with an LLM",
		Long: `Sends the beginning and end of every .txt file in a directory to an LLM and
appends the extracted bibliographic fields to a JSONL file, keyed by file name.

Files already present in the output are skipped.`,
		Example: `  # Extract with the default provider (CATALOGING_PROVIDER or ollama)
  firstedition extract --dir data/texts --output data/extracted.jsonl

  # Extract 10 files with OpenAI
  firstedition extract --dir data/texts --output data/extracted.jsonl --provider openai --model gpt-4o --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts = opts.withDefaults(cfg)

			provider, err := extraction.NewProvider(opts.provider)
			if err != nil {
				return err
			}
			svc := extraction.NewService(provider, extraction.Options{
				Model:       opts.model,
				Temperature: cfg.Extraction.Temperature,
				HeadWords:   opts.headWords,
				TailWords:   opts.tailWords,
			})

			s, err := executeExtract(cmd.Context(), opts, svc)
			if err != nil {
				return err
			}
			return finishRun(cmd.OutOrStdout(), s, cfg, opts.noSave)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "Directory of .txt files")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Extracted JSONL output (appended to)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider (ollama, openai, or gemini)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().IntVar(&opts.headWords, "head-words", 0, "Words taken from the start of each text (default from config)")
	cmd.Flags().IntVar(&opts.tailWords, "tail-words", 0, "Words taken from the end of each text (default from config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "Process at most N pending files (0 for all)")
	cmd.Flags().BoolVar(&opts.noSave, "no-summary", false, "Do not write a run summary under the data directory")
	_ = cmd.MarkFlagRequired("dir")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (o extractOptions) withDefaults(cfg *config.Config) extractOptions {
	if o.provider == "" {
		o.provider = cfg.Extraction.Provider
	}
	if o.model == "" {
		o.model = cfg.ModelFor(o.provider)
	}
	if o.headWords <= 0 {
		o.headWords = cfg.Extraction.HeadWords
	}
	if o.tailWords <= 0 {
		o.tailWords = cfg.Extraction.TailWords
	}
	return o
}

func executeExtract(ctx context.Context, opts extractOptions, svc *extraction.Service) (*summary.Summary, error) {
	runID := uuid.NewString()
	defer withRunID(runID)()
	slog.Info("Starting extraction run", "dir", opts.dir, "provider", opts.provider, "model", opts.model)

	paths, err := extraction.ListTexts(opts.dir)
	if err != nil {
		return nil, err
	}

	done, err := records.ProcessedKeys(opts.output)
	if err != nil {
		return nil, err
	}

	w, err := records.OpenWriter(opts.output)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	s := summary.New(summary.RunConfig{
		RunID:    runID,
		Command:  "extract",
		Input:    opts.dir,
		Output:   opts.output,
		Provider: opts.provider,
		Model:    opts.model,
		Limit:    opts.limit,
	})
	s.Counts.Total = len(paths)

	attempted := 0
	for _, path := range paths {
		name := filepath.Base(path)
		if _, ok := done[name]; ok {
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

		rec, err := svc.ExtractFile(ctx, path)
		if err != nil && ctx.Err() != nil {
			slog.Warn("Run interrupted", "filename", name, "attempted", attempted)
			break
		}
		if err != nil {
			slog.Error("Extraction failed", "filename", name, "err", err)
			s.Add(summary.Entry{Filename: name, Error: err.Error()})
			continue
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}

		entry := summary.Entry{Filename: name, Title: rec.Title}
		if rec.SourceMetadata.PublicationDate != nil {
			entry.PublicationDate = rec.SourceMetadata.PublicationDate.String()
		}
		if !rec.Enrichable() {
			s.AddIncomplete(entry)
			continue
		}
		s.Add(entry)
	}

	s.Finish()
	slog.Info("Extraction run finished", "processed", s.Counts.Processed, "errors", s.Counts.Errors, "duration", s.Duration())
	return s, nil
}
