// Package organizer groups analyzed images by item and materializes the
// per-item folder structure under the output directory.
package organizer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SgtSeamonkey/fbauto123/internal/analyzer"
	"github.com/SgtSeamonkey/fbauto123/internal/listing"
)

// Minimum token-overlap similarity between item keys to warn about a
// possible duplicate within a single run.
const duplicateSimilarityThreshold = 0.6

// Organizer creates and fills item folders in the output directory.
type Organizer struct {
	outputDir string
}

// New creates an organizer rooted at outputDir, creating it if needed.
func New(outputDir string) (*Organizer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	return &Organizer{outputDir: outputDir}, nil
}

// GroupByItem groups analyses by their item key, preserving the order in
// which keys were first seen.
func GroupByItem(analyses []*listing.Analysis) (map[string][]*listing.Analysis, []string) {
	groups := make(map[string][]*listing.Analysis)
	var order []string
	for _, a := range analyses {
		key := a.ItemKey
		if key == "" {
			key = "unknown_item"
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], a)
	}
	return groups, order
}

// DetectSimilarGroups returns warnings for pairs of item keys that look
// like the same item split across groups.
func DetectSimilarGroups(groups map[string][]*listing.Analysis) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var warnings []string
	for i, keyA := range keys {
		for _, keyB := range keys[i+1:] {
			similarity := KeySimilarity(keyA, keyB)
			if similarity >= duplicateSimilarityThreshold {
				warnings = append(warnings, fmt.Sprintf(
					"Possible duplicate items detected: '%s' and '%s' (similarity: %.0f%%). Please review these folders.",
					keyA, keyB, similarity*100))
			}
		}
	}
	return warnings
}

// KeySimilarity is the Jaccard overlap of the underscore-separated tokens
// of two item keys.
func KeySimilarity(keyA, keyB string) float64 {
	tokensA := keyTokens(keyA)
	tokensB := keyTokens(keyB)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	intersection := 0
	union := len(tokensB)
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}

func keyTokens(key string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Split(key, "_") {
		if token != "" {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

// CreateItemFolder creates a uniquely named folder for an item, appending
// a numeric suffix on collision.
func (o *Organizer) CreateItemFolder(itemKey string) (string, error) {
	name := analyzer.NormalizeKey(itemKey)
	path := filepath.Join(o.outputDir, name)

	if _, err := os.Stat(path); err == nil {
		for counter := 2; ; counter++ {
			candidate := filepath.Join(o.outputDir, fmt.Sprintf("%s_%d", name, counter))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				path = candidate
				break
			}
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create item folder: %w", err)
	}
	slog.Debug("Created item folder", "path", path)
	return path, nil
}

// ExistingItemFolder returns the path of an existing folder matching
// itemKey, or "" when none exists.
func (o *Organizer) ExistingItemFolder(itemKey string) string {
	path := filepath.Join(o.outputDir, analyzer.NormalizeKey(itemKey))
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return ""
}

// IsAlreadyProcessed reports whether an item folder already has a listing
// written for it.
func (o *Organizer) IsAlreadyProcessed(itemFolder string) bool {
	_, err := os.Stat(filepath.Join(itemFolder, "listing.txt"))
	return err == nil
}

// CopyImage copies an image into the destination folder, appending a
// numeric suffix rather than overwriting on a name collision.
func (o *Organizer) CopyImage(source, destFolder string) (string, error) {
	base := filepath.Base(source)
	dest := filepath.Join(destFolder, base)

	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		for counter := 2; ; counter++ {
			candidate := filepath.Join(destFolder, fmt.Sprintf("%s_%d%s", stem, counter, ext))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				dest = candidate
				break
			}
		}
	}

	if err := copyFile(source, dest); err != nil {
		return "", err
	}
	slog.Debug("Copied image", "source", source, "dest", dest)
	return dest, nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dest, err)
	}
	return out.Close()
}
