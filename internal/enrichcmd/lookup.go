package enrichcmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/resolver"
	"github.com/spf13/cobra"
)

// NewLookupCmd creates the lookup command
func NewLookupCmd() *cobra.Command {
	var title string
	var authors []string
	var isbns []string

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolve one book to its earliest edition and print the result as JSON",
		Example: `  firstedition lookup --title "Beloved" --author "Toni Morrison"

  # Fall back to ISBNs when the title/author search misses
  firstedition lookup --title "Beloved (Vintage International)" --author "Toni Morrison" --isbn 9781400033416`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			res := resolver.New(catalog.NewClient(cfg.CatalogOptions()), cfg.Catalog.EditionCeiling)
			return executeLookup(cmd.Context(), cmd.OutOrStdout(), res, resolver.Query{
				Title:   title,
				Authors: authors,
				ISBNs:   isbns,
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Book title")
	cmd.Flags().StringArrayVarP(&authors, "author", "a", nil, "Author name (repeatable, tried in order)")
	cmd.Flags().StringArrayVar(&isbns, "isbn", nil, "ISBN to fall back on (repeatable, tried in order)")

	return cmd
}

func executeLookup(ctx context.Context, out io.Writer, res *resolver.Resolver, q resolver.Query) error {
	if len(q.ISBNs) == 0 && (q.Title == "" || len(q.Authors) == 0) {
		return errors.New("--title and --author, or --isbn, are required")
	}

	result := res.Resolve(ctx, q)
	if result.Outcome == resolver.OutcomeInterrupted {
		return fmt.Errorf("lookup interrupted: %w", ctx.Err())
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
