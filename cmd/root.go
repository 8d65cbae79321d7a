package cmd

import (
	"github.com/SgtSeamonkey/fbauto123/internal/runcmd"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fbauto",
		Short: "Facebook Marketplace listing automation from item photos",
		Long: `fbauto turns a folder of item photos into ready-to-post Facebook
Marketplace listing drafts.

Each image is analyzed with Gemini vision models, related photos are grouped
into per-item folders, and every item gets a listing.txt draft plus a row in
a cumulative summary spreadsheet. Runs are rate-limited, fail over across
models, and resume cleanly after quota exhaustion or interruption.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(runcmd.NewRunCmd())
	cmd.AddCommand(runcmd.NewExportCmd())

	return cmd
}
