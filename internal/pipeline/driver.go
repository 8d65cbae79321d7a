package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SgtSeamonkey/fbauto123/internal/analyzer"
	"github.com/SgtSeamonkey/fbauto123/internal/listing"
	"github.com/SgtSeamonkey/fbauto123/internal/quota"
)

const (
	// Transient failures are retried this many times per item before the
	// item is skipped and left pending for a future run.
	maxAttempts = 3

	defaultRetryBackoff = 2 * time.Second
)

// Driver runs the strictly sequential batch loop. All per-item failures
// stay inside the loop; only setup errors abort a run.
type Driver struct {
	Analyzer      analyzer.Analyzer
	Ledger        *quota.Ledger
	Chain         *quota.Chain
	ProcessedDir  string
	QuarantineDir string

	BatchSize    int
	BatchDelay   time.Duration
	RetryBackoff time.Duration

	// Sleep is the single suspension point, injectable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RunSummary reports what a single run accomplished. It is printed at run
// end and never persisted.
type RunSummary struct {
	Processed    int // items successfully analyzed this run
	Moved        int // items moved into the processed archive
	Skipped      int // transient failures left pending
	Quarantined  int // permanent failures moved aside
	AllExhausted bool

	// Analyses carries the successful results, with ImagePath pointing at
	// each image's archived location, for the organizer and report writer.
	Analyses []*listing.Analysis
}

// Run consumes the pending items one by one. It returns a non-nil summary
// unless the context is cancelled mid-run.
func (d *Driver) Run(ctx context.Context, items []Item) (*RunSummary, error) {
	summary := &RunSummary{}
	sleep := d.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	backoff := d.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	for i, item := range items {
		if summary.AllExhausted {
			break
		}

		// Inter-batch pacing between groups of items.
		if d.BatchSize > 0 && d.BatchDelay > 0 && i > 0 && i%d.BatchSize == 0 {
			slog.Debug("Inter-batch delay", "delay", d.BatchDelay)
			if err := sleep(ctx, d.BatchDelay); err != nil {
				return summary, err
			}
		}

		if err := d.processItem(ctx, item, summary, sleep, backoff); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// processItem runs the per-item state machine: wait for a rate slot, fail
// over when the day budget is gone, call the analyzer, and interpret the
// outcome. The same item is retried against the next model after a quota
// rejection, and retried a bounded number of times after transient
// failures.
func (d *Driver) processItem(ctx context.Context, item Item, summary *RunSummary, sleep func(context.Context, time.Duration) error, backoff time.Duration) error {
	attempts := 0

	for {
		model := d.Chain.Current()
		if model == "" {
			summary.AllExhausted = true
			return nil
		}

		// Proactive failover: the day budget is spent, no point calling.
		if d.Ledger.DayExhausted(model) {
			slog.Warn("Daily quota reached for model", "model", model, "calls", d.Ledger.CallsToday(model))
			if !d.Chain.Advance() {
				slog.Warn("All models have reached their daily limits")
				summary.AllExhausted = true
				return nil
			}
			slog.Info("Switching to next model", "model", d.Chain.Current())
			continue
		}

		// The one blocking point: wait for the minute window to open.
		if !d.Ledger.CanCall(model) {
			wait := d.Ledger.TimeUntilNextSlot(model)
			slog.Debug("Rate limit pacing", "model", model, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		result, err := d.Analyzer.Analyze(ctx, item.Path, model)
		// The remote service counts attempts, not successes.
		d.Ledger.RecordCall(model)

		if err == nil {
			summary.Processed++
			if archived, moveErr := moveWithSuffix(item.Path, d.ProcessedDir); moveErr != nil {
				slog.Warn("Could not move image to processed folder", "image", item.Name, "err", moveErr)
			} else {
				summary.Moved++
				result.ImagePath = archived
			}
			summary.Analyses = append(summary.Analyses, result)
			return nil
		}

		var quotaErr *analyzer.QuotaError
		var permErr *analyzer.PermanentError
		switch {
		case errors.As(err, &quotaErr):
			// Reactive failover; the item is not consumed and is retried
			// against the next model.
			slog.Warn("Rate limit hit for model", "model", quotaErr.Model)
			if !d.Chain.Advance() {
				slog.Warn("All models have reached their daily limits")
				summary.AllExhausted = true
				return nil
			}
			slog.Info("Switching to next model", "model", d.Chain.Current())

		case errors.As(err, &permErr):
			summary.Quarantined++
			slog.Error("Quarantining image", "image", item.Name, "reason", permErr.Error())
			if _, moveErr := moveWithSuffix(item.Path, d.QuarantineDir); moveErr != nil {
				slog.Warn("Could not quarantine image", "image", item.Name, "err", moveErr)
			}
			return nil

		default:
			attempts++
			if attempts >= maxAttempts {
				summary.Skipped++
				slog.Warn("Skipping image after repeated failures, will retry next run", "image", item.Name, "attempts", attempts, "err", err)
				return nil
			}
			slog.Warn("Analysis failed, retrying", "image", item.Name, "attempt", attempts, "err", err)
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}
}

// moveWithSuffix moves a file into destDir, appending a numeric suffix
// when the name is already taken.
func moveWithSuffix(source, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	base := filepath.Base(source)
	dest := filepath.Join(destDir, base)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		for counter := 1; ; counter++ {
			candidate := filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				dest = candidate
				break
			}
		}
	}

	if err := os.Rename(source, dest); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", source, err)
	}
	slog.Info("Moved image", "source", filepath.Base(source), "dest", dest)
	return dest, nil
}

// sleepCtx blocks for the duration or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
