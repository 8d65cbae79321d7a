package runcmd

import (
	"fmt"
	"path/filepath"

	"github.com/SgtSeamonkey/fbauto123/internal/config"
	"github.com/SgtSeamonkey/fbauto123/internal/report"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command: convert the summary spreadsheet
// into a Parquet dataset for downstream analysis.
func NewExportCmd() *cobra.Command {
	var outputDir string
	var exportPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the listing summary as a Parquet dataset",
		Example: `  # Write output/listings.parquet from output/summary.xlsx
  fbauto export

  # Choose the destination file
  fbauto export --file /tmp/listings.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputFolder = outputDir
			}
			if exportPath == "" {
				exportPath = filepath.Join(cfg.OutputFolder, "listings.parquet")
			}

			excel := report.NewExcel(cfg.OutputFolder)
			summaries, err := excel.Read()
			if err != nil {
				return fmt.Errorf("failed to read %s (run `fbauto run` first): %w", excel.Path(), err)
			}
			if len(summaries) == 0 {
				return fmt.Errorf("no listings found in %s", excel.Path())
			}

			if err := report.WriteParquet(exportPath, summaries); err != nil {
				return err
			}
			fmt.Printf("Exported %d listing(s) to %s\n", len(summaries), exportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "Output folder containing summary.xlsx (default: output/)")
	cmd.Flags().StringVar(&exportPath, "file", "", "Destination parquet file (default: <output>/listings.parquet)")

	return cmd
}
