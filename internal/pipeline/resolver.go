// Package pipeline drives the batch analysis loop: resolving pending work
// across runs, throttling calls, failing over between models, and keeping
// the processed archive authoritative.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/SgtSeamonkey/fbauto123/internal/analyzer"
)

// Item is one pending input image.
type Item struct {
	Name string // stable identifier: the file name
	Path string
}

// Resolver computes the pending set from the three sources of truth on
// disk: the input folder, the processed archive, and prior output folders.
// The progress file plays no part here, so a lost or corrupt progress file
// never breaks resumption.
type Resolver struct {
	InputDir      string
	ProcessedDir  string
	OutputDir     string
	QuarantineDir string
}

// AllInputImages returns the supported images in the input folder, sorted
// by name.
func (r *Resolver) AllInputImages() ([]Item, error) {
	entries, err := os.ReadDir(r.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input folder: %w", err)
	}

	var items []Item
	for _, entry := range entries {
		if entry.IsDir() || !analyzer.IsSupportedImage(entry.Name()) {
			continue
		}
		items = append(items, Item{
			Name: entry.Name(),
			Path: filepath.Join(r.InputDir, entry.Name()),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// PendingItems returns the input images not yet handled: everything in the
// input folder minus names found in the processed archive, in prior output
// item folders (runs made before the archive existed left originals
// referenced only there), and in quarantine. Matching is case-sensitive on
// the exact file name. The scan is cheap and restartable; nothing is
// cached.
func (r *Resolver) PendingItems() ([]Item, error) {
	all, err := r.AllInputImages()
	if err != nil {
		return nil, err
	}

	done, err := r.doneNames()
	if err != nil {
		return nil, err
	}

	var pending []Item
	for _, item := range all {
		if _, ok := done[item.Name]; ok {
			continue
		}
		pending = append(pending, item)
	}
	return pending, nil
}

// doneNames unions the file names found in the processed archive, output
// item folders, and quarantine.
func (r *Resolver) doneNames() (map[string]struct{}, error) {
	done := make(map[string]struct{})

	addDir := func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && analyzer.IsSupportedImage(entry.Name()) {
				done[entry.Name()] = struct{}{}
			}
		}
		return nil
	}

	if err := addDir(r.ProcessedDir); err != nil {
		return nil, err
	}
	if r.QuarantineDir != "" {
		if err := addDir(r.QuarantineDir); err != nil {
			return nil, err
		}
	}

	// Legacy compatibility: images copied into output item folders count as
	// done even when they never reached the archive.
	outputs, err := os.ReadDir(r.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return done, nil
		}
		return nil, fmt.Errorf("failed to read output folder: %w", err)
	}
	for _, entry := range outputs {
		if !entry.IsDir() {
			continue
		}
		if err := addDir(filepath.Join(r.OutputDir, entry.Name())); err != nil {
			return nil, err
		}
	}
	return done, nil
}
