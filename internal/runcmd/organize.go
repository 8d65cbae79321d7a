package runcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SgtSeamonkey/fbauto123/internal/catalog"
	"github.com/SgtSeamonkey/fbauto123/internal/config"
	"github.com/SgtSeamonkey/fbauto123/internal/listing"
	"github.com/SgtSeamonkey/fbauto123/internal/organizer"
)

func catalogPath(cfg *config.Config) string {
	return filepath.Join(cfg.OutputFolder, cfg.CatalogFilename)
}

// organizeAndList groups the run's analyses into items, merges items that
// match a known catalog entry into the existing folder, creates folders
// and listing files for the rest, and returns the spreadsheet rows.
// Failures are reported per item and never stop the loop.
func organizeAndList(org *organizer.Organizer, cat *catalog.Catalog, analyses []*listing.Analysis, today string) []listing.Summary {
	groups, order := organizer.GroupByItem(analyses)

	for _, warning := range organizer.DetectSimilarGroups(groups) {
		fmt.Printf("  ! %s\n", warning)
	}

	var summaries []listing.Summary
	for _, key := range order {
		group := groups[key]
		canonical := catalog.BuildCanonicalText(key, group)

		var imageNames []string
		for _, a := range group {
			if a.ImageName != "" {
				imageNames = append(imageNames, a.ImageName)
			}
		}

		// Cross-run duplicate: fold the new photos into the known item's
		// folder instead of creating a sibling.
		if entry, score, ok := cat.FindMatch(canonical, key); ok {
			if folder := org.ExistingItemFolder(entry.ItemKey); folder != "" {
				fmt.Printf("  ~ '%s' matches existing item '%s' (%.0f%% similar), merging\n", key, entry.ItemKey, score*100)
				copyGroupImages(org, group, folder)
				if _, err := listing.WriteUpdate(folder, entry.ItemKey, score, today, group); err != nil {
					fmt.Printf("  ! Could not write listing update for %s: %v\n", entry.ItemKey, err)
				}
				cat.AddEntryImages(entry.ItemKey, imageNames)
				summaries = append(summaries, listing.Summarize(folder, group))
				continue
			}
		}

		if folder := org.ExistingItemFolder(key); folder != "" && org.IsAlreadyProcessed(folder) {
			fmt.Printf("  - Skipping '%s': folder already has a listing\n", key)
			continue
		}

		folder, err := org.CreateItemFolder(key)
		if err != nil {
			fmt.Printf("  ! Could not create folder for %s: %v\n", key, err)
			continue
		}
		copyGroupImages(org, group, folder)
		if _, err := listing.WriteListing(folder, group); err != nil {
			fmt.Printf("  ! Could not write listing for %s: %v\n", key, err)
			continue
		}

		merged := listing.Merge(group)
		cat.AddEntry(key, merged.Title, canonical, imageNames)

		summaries = append(summaries, listing.Summarize(folder, group))
		fmt.Printf("  + %s (%d image(s))\n", filepath.Base(folder), len(group))
	}
	return summaries
}

// copyGroupImages copies each analyzed image from its archived location
// into the item folder. Images the archive move lost track of are skipped.
func copyGroupImages(org *organizer.Organizer, group []*listing.Analysis, folder string) {
	for _, a := range group {
		if a.ImagePath == "" {
			continue
		}
		if _, err := os.Stat(a.ImagePath); err != nil {
			fmt.Printf("  ! Image no longer available, skipping copy: %s\n", a.ImageName)
			continue
		}
		if _, err := org.CopyImage(a.ImagePath, folder); err != nil {
			fmt.Printf("  ! Could not copy %s: %v\n", a.ImageName, err)
		}
	}
}
