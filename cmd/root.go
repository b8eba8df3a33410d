package cmd

import (
	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/firstedition/internal/enrichcmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool
	var logFormat string

	cmd := &cobra.Command{
		Use:   "firstedition",
		Short: "Resolve books to their earliest known published edition",
		Long: `firstedition enriches bibliographic records extracted from raw book texts
with the earliest known edition from Open Library.

It extracts candidate title, author and ISBN fields from texts with an LLM,
matches them against Open Library works, and records the publisher, ISBNs and
publication date of the earliest dated edition.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return enrichcmd.SetupLogging(cmd.ErrOrStderr(), verbose, logFormat)
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "Log format (auto, text, json)")

	cmd.AddCommand(enrichcmd.NewExtractCmd())
	cmd.AddCommand(enrichcmd.NewEnrichCmd())
	cmd.AddCommand(enrichcmd.NewLookupCmd())
	cmd.AddCommand(enrichcmd.NewReportCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
