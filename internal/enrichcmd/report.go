package enrichcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/firstedition/internal/records"
	"github.com/lehigh-university-libraries/firstedition/internal/summary"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var input string
	var runSummary string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize enrichment coverage of an output file or a saved run",
		Example: `  # Coverage of an enriched file
  firstedition report --input data/enriched.jsonl

  # Per-record CSV
  firstedition report --input data/enriched.jsonl --format csv > enriched.csv

  # Re-render a saved run summary
  firstedition report --summary data/runs/enrich-2024-03-01_12-00-00-0a1b2c3d.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if runSummary != "" {
				s, err := summary.LoadYAML(runSummary)
				if err != nil {
					return err
				}
				s.Render(out)
				return nil
			}
			if input == "" {
				return fmt.Errorf("--input or --summary is required")
			}
			return executeReport(out, input, format)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Enriched JSONL file")
	cmd.Flags().StringVar(&runSummary, "summary", "", "Run summary YAML written by enrich or extract")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, csv)")

	return cmd
}

func executeReport(out io.Writer, input, format string) error {
	batch, err := records.NewLoader(input).Load()
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	switch format {
	case "text":
		summary.RenderCoverage(out, summary.MeasureCoverage(batch.Records))
		if batch.Malformed > 0 {
			fmt.Fprintf(out, "\n%d malformed lines skipped\n", batch.Malformed)
		}
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary.MeasureCoverage(batch.Records))
	case "csv":
		return writeCSVReport(out, batch.Records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeCSVReport(out io.Writer, recs []records.Record) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"filename", "title", "author", "copy_date", "earliest_date", "earliest_publisher", "earliest_isbn_13", "earliest_isbn_10"}); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{rec.Filename, rec.Title, strings.Join(rec.Author, "; "), dateString(rec.SourceMetadata), "", "", "", ""}
		if orig := rec.OriginalMetadata; orig != nil {
			row[4] = dateString(*orig)
			row[5] = strings.Join(orig.Publisher, "; ")
			row[6] = strings.Join(orig.ISBN13, "; ")
			row[7] = strings.Join(orig.ISBN10, "; ")
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func dateString(md records.BookMetadata) string {
	if md.PublicationDate == nil {
		return ""
	}
	return md.PublicationDate.String()
}
