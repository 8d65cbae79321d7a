// Package runcmd wires the CLI commands to the batch pipeline.
package runcmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SgtSeamonkey/fbauto123/internal/analyzer"
	"github.com/SgtSeamonkey/fbauto123/internal/catalog"
	"github.com/SgtSeamonkey/fbauto123/internal/config"
	"github.com/SgtSeamonkey/fbauto123/internal/organizer"
	"github.com/SgtSeamonkey/fbauto123/internal/pipeline"
	"github.com/SgtSeamonkey/fbauto123/internal/progress"
	"github.com/SgtSeamonkey/fbauto123/internal/quota"
	"github.com/SgtSeamonkey/fbauto123/internal/report"
	"github.com/spf13/cobra"
)

const (
	logFile      = "fbauto.log"
	progressFile = "progress.json"
)

// NewRunCmd creates the run command: analyze the input folder, organize
// items, and update the summary spreadsheet.
func NewRunCmd() *cobra.Command {
	var inputDir string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze images and generate marketplace listing drafts",
		Long: `Processes every image in the input folder through Gemini vision models,
groups related images into per-item folders, writes listing drafts, and
updates the cumulative summary spreadsheet.

Runs are resumable: images already moved to the processed archive (or
referenced by prior output folders) are skipped, and daily quota usage is
carried across restarts on the same day. When every configured model has
hit its daily quota the run stops gracefully; rerun the next day to
continue.`,
		Example: `  # Process the default images_to_process/ folder
  fbauto run

  # Use custom folders
  fbauto run --input ~/photos/garage-sale --output ~/listings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := setupLogging(logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			return executeRun(cmd.Context(), inputDir, outputDir)
		},
	}

	cmd.Flags().StringVar(&inputDir, "input", "", "Input folder containing images (default: images_to_process/)")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output folder for organized items (default: output/)")

	return cmd
}

func executeRun(ctx context.Context, inputOverride, outputOverride string) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if inputOverride != "" {
		cfg.InputFolder = inputOverride
	}
	if outputOverride != "" {
		cfg.OutputFolder = outputOverride
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("  Facebook Marketplace Listing Automation")
	fmt.Println(strings.Repeat("=", 60))

	// Setup failures are the only fatal errors; everything past this point
	// is handled per item.
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set: add it to .env or the environment (get a free key at https://aistudio.google.com/app/apikey)")
	}
	if _, err := os.Stat(cfg.InputFolder); err != nil {
		return fmt.Errorf("input folder not found: %s", cfg.InputFolder)
	}

	resolver := &pipeline.Resolver{
		InputDir:      cfg.InputFolder,
		ProcessedDir:  cfg.ProcessedFolder,
		OutputDir:     cfg.OutputFolder,
		QuarantineDir: cfg.QuarantineFolder,
	}

	allImages, err := resolver.AllInputImages()
	if err != nil {
		return err
	}
	if len(allImages) == 0 {
		fmt.Printf("\nNo supported images found in %s/\n", cfg.InputFolder)
		fmt.Println("Supported formats: JPG, JPEG, PNG, GIF, BMP, WEBP, TIFF, HEIC")
		return nil
	}

	if err := os.MkdirAll(cfg.OutputFolder, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	if err := os.MkdirAll(cfg.ProcessedFolder, 0755); err != nil {
		return fmt.Errorf("failed to create processed folder: %w", err)
	}

	pending, err := resolver.PendingItems()
	if err != nil {
		return err
	}

	chain := quota.NewChain(cfg.Models)

	fmt.Printf("\nInput folder    : %s/\n", cfg.InputFolder)
	fmt.Printf("Output folder   : %s/\n", cfg.OutputFolder)
	fmt.Printf("Processed folder: %s/\n", cfg.ProcessedFolder)
	fmt.Printf("Images found    : %d\n", len(allImages))
	fmt.Printf("Models          : %s\n", strings.Join(chain.Models(), ", "))
	fmt.Printf("Rate limit      : %d requests/minute\n", cfg.MaxRPM)

	if skipped := len(allImages) - len(pending); skipped > 0 {
		fmt.Printf("\nResuming: %d image(s) already processed, %d remaining.\n", skipped, len(pending))
	}
	if len(pending) == 0 {
		fmt.Println("\nAll images have already been processed!")
		return nil
	}

	// Quota state: the chain restarts from the first model every run, but
	// day counters persist across restarts on the same day.
	today := time.Now().Format("2006-01-02")
	store := progress.NewStore(progressFile)
	record := store.Load()

	limits := make([]quota.ModelLimits, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		limits = append(limits, quota.ModelLimits{Model: model, RPM: cfg.MaxRPM, RPD: cfg.RPDFor(model)})
	}
	ledger := quota.NewLedger(limits)
	for model, calls := range record.CallsToday(today) {
		ledger.SeedCallsToday(model, calls)
	}

	gemini, err := analyzer.NewGemini(ctx, cfg.APIKey)
	if err != nil {
		return err
	}
	defer gemini.Close()

	driver := &pipeline.Driver{
		Analyzer:      gemini,
		Ledger:        ledger,
		Chain:         chain,
		ProcessedDir:  cfg.ProcessedFolder,
		QuarantineDir: cfg.QuarantineFolder,
		BatchSize:     cfg.BatchSize,
		BatchDelay:    cfg.BatchDelay,
	}

	fmt.Printf("\nStarting with model: %s\n", chain.Current())
	fmt.Printf("Processing %d image(s)...\n\n", len(pending))

	summary, err := driver.Run(ctx, pending)
	if err != nil {
		return err
	}

	// Organize items and write listings/spreadsheet for whatever the run
	// managed to analyze, even when it stopped on quota exhaustion.
	if len(summary.Analyses) > 0 {
		fmt.Println("\nOrganizing items and generating listings...")

		org, err := organizer.New(cfg.OutputFolder)
		if err != nil {
			return err
		}
		cat := catalog.Load(catalogPath(cfg), cfg.DuplicateMergeThreshold)

		summaries := organizeAndList(org, cat, summary.Analyses, today)

		if err := cat.Save(); err != nil {
			fmt.Printf("Warning: could not save item catalog: %v\n", err)
		}

		excel := report.NewExcel(cfg.OutputFolder)
		if err := excel.AppendOrUpdate(summaries); err != nil {
			fmt.Printf("Warning: could not write summary spreadsheet: %v\n", err)
		} else {
			fmt.Printf("\nSummary spreadsheet saved: %s\n", excel.Path())
		}
	} else {
		fmt.Println("\nNo items were successfully processed.")
	}

	// Persist advisory progress statistics.
	remaining, err := resolver.AllInputImages()
	if err != nil {
		return err
	}
	record.ProcessedCount += summary.Processed
	record.TotalImages = record.ProcessedCount + len(remaining)
	record.LastRun = today
	record.ModelsUsed = make(map[string]int, len(cfg.Models))
	for _, model := range cfg.Models {
		if calls := ledger.CallsToday(model); calls > 0 {
			record.ModelsUsed[model] = calls
		}
	}
	if err := store.Save(record); err != nil {
		fmt.Printf("Warning: could not save progress file: %v\n", err)
	}

	fmt.Println("\nProcessing complete!")
	fmt.Printf("  - Images processed this run: %d\n", summary.Processed)
	fmt.Printf("  - Images moved to %s/: %d\n", cfg.ProcessedFolder, summary.Moved)
	fmt.Printf("  - Images remaining in %s/: %d\n", cfg.InputFolder, len(remaining))
	if summary.Skipped > 0 {
		fmt.Printf("  - Images skipped (will retry next run): %d\n", summary.Skipped)
	}
	if summary.Quarantined > 0 {
		fmt.Printf("  - Images quarantined in %s/: %d\n", cfg.QuarantineFolder, summary.Quarantined)
	}
	if summary.AllExhausted {
		fmt.Println("  - All available models have reached their daily limits")
		fmt.Println("  - Run again tomorrow to continue processing")
	}
	fmt.Printf("\nDone! Check the '%s/' folder for organized items.\n", cfg.OutputFolder)
	fmt.Printf("Log file: %s\n", logFile)

	return nil
}
