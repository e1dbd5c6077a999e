package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ByLCY/quire/document"
)

// Environment variables providing flag defaults (also read from .env).
const (
	envOutDir   = "QUIRE_OUT_DIR"
	envAssetDir = "QUIRE_ASSET_DIR"
)

// NewRootCmd builds the quire command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "quire",
		Short: "Assemble rendered page images into print-ready PDFs",
		Long: `Quire turns a sequence of rendered page images into a print-ready PDF.

It adds bleed and crop marks, flows a text story across pages, and writes
imposed exports as reader spreads or saddle-stitch signatures.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			document.SetLogger(logger)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newConvertCmd())

	return cmd
}

// envDefault returns the value of key, or fallback when unset.
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
