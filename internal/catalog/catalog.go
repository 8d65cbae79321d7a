// Package catalog maintains a persistent record of known items so that the
// same item photographed across multiple runs merges into one folder
// instead of producing duplicates.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SgtSeamonkey/fbauto123/internal/listing"
)

// Entry is one known item.
type Entry struct {
	ItemKey       string   `json:"item_key"`
	Title         string   `json:"title"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	CanonicalText string   `json:"canonical_text"`
	ImageNames    []string `json:"representative_image_names"`
}

// Catalog is the in-memory view of the catalog file.
type Catalog struct {
	path      string
	threshold float64
	entries   []Entry
}

// Load reads the catalog at path, starting fresh if it is missing or
// unreadable. threshold is the minimum similarity that counts as the same
// item.
func Load(path string, threshold float64) *Catalog {
	c := &Catalog{path: path, threshold: threshold}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Could not load item catalog, starting fresh", "path", path, "err", err)
		}
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		slog.Warn("Item catalog has unexpected format, starting fresh", "path", path, "err", err)
		c.entries = nil
		return c
	}
	slog.Info("Loaded item catalog", "path", path, "items", len(c.entries))
	return c
}

// Save persists the catalog entries.
func (c *Catalog) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog folder: %w", err)
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	slog.Debug("Saved item catalog", "path", c.path, "items", len(c.entries))
	return nil
}

// Len returns the number of known items.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// BuildCanonicalText builds the text used for similarity comparison from
// an item's key and its analyses.
func BuildCanonicalText(itemKey string, analyses []*listing.Analysis) string {
	parts := []string{strings.ReplaceAll(itemKey, "_", " ")}
	if len(analyses) > 0 {
		base := analyses[0]
		if base.ItemName != "" {
			parts = append(parts, base.ItemName)
		}
		if base.Category != "" {
			parts = append(parts, base.Category)
		}
		if base.Condition != "" {
			parts = append(parts, base.Condition)
		}
		// The longest description carries the most signal.
		best := ""
		for _, a := range analyses {
			if len(a.Description) > len(best) {
				best = a.Description
			}
		}
		if best != "" {
			parts = append(parts, best)
		}
	}
	return strings.Join(parts, " ")
}

// FindMatch returns the best matching entry at or above the threshold, and
// its similarity score. ok is false when nothing matches.
func (c *Catalog) FindMatch(canonicalText, itemKey string) (Entry, float64, bool) {
	var best Entry
	bestScore := 0.0

	for _, entry := range c.entries {
		score := similarity(canonicalText, itemKey, entry.CanonicalText, entry.ItemKey)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}

	if bestScore >= c.threshold {
		return best, bestScore, true
	}
	return Entry{}, 0, false
}

// AddEntry adds a new item, or updates an existing entry with the same key
// in place.
func (c *Catalog) AddEntry(itemKey, title, canonicalText string, imageNames []string) {
	now := time.Now().UTC().Format(time.RFC3339)
	for i := range c.entries {
		if c.entries[i].ItemKey == itemKey {
			c.entries[i].Title = title
			c.entries[i].CanonicalText = canonicalText
			c.entries[i].UpdatedAt = now
			c.entries[i].ImageNames = appendUnique(c.entries[i].ImageNames, imageNames)
			return
		}
	}
	c.entries = append(c.entries, Entry{
		ItemKey:       itemKey,
		Title:         title,
		CreatedAt:     now,
		UpdatedAt:     now,
		CanonicalText: canonicalText,
		ImageNames:    imageNames,
	})
}

// AddEntryImages appends new image names to an existing entry.
func (c *Catalog) AddEntryImages(itemKey string, imageNames []string) {
	now := time.Now().UTC().Format(time.RFC3339)
	for i := range c.entries {
		if c.entries[i].ItemKey == itemKey {
			c.entries[i].ImageNames = appendUnique(c.entries[i].ImageNames, imageNames)
			c.entries[i].UpdatedAt = now
			return
		}
	}
}

func appendUnique(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		seen[name] = struct{}{}
	}
	for _, name := range extra {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		existing = append(existing, name)
	}
	return existing
}

// similarity combines text similarity (60%), key similarity (20%) and key
// token overlap (20%). The token component keeps cross-run matching stable
// when the model orders key words differently (blue_ceramic_mug vs
// ceramic_blue_mug).
func similarity(textA, keyA, textB, keyB string) float64 {
	textScore := ratio(strings.ToLower(textA), strings.ToLower(textB))
	keyScore := ratio(strings.ToLower(keyA), strings.ToLower(keyB))
	tokenScore := tokenOverlap(strings.ToLower(keyA), strings.ToLower(keyB))
	return 0.60*textScore + 0.20*keyScore + 0.20*tokenScore
}

// ratio converts Levenshtein edit distance into a 0..1 similarity.
// Distances and lengths are in runes so accented descriptions compare at
// character level.
func ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(ra, rb))/float64(longest)
}

func tokenOverlap(keyA, keyB string) float64 {
	tokensA := splitTokens(keyA)
	tokensB := splitTokens(keyB)
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

func splitTokens(key string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Split(key, "_") {
		if token != "" {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

func levenshteinDistance(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	rows := len(s1) + 1
	cols := len(s2) + 1
	matrix := make([][]int, rows)
	for i := range matrix {
		matrix[i] = make([]int, cols)
	}

	for i := 0; i < rows; i++ {
		matrix[i][0] = i
	}
	for j := 0; j < cols; j++ {
		matrix[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			deletion := matrix[i-1][j] + 1
			insertion := matrix[i][j-1] + 1
			substitution := matrix[i-1][j-1] + cost

			min := deletion
			if insertion < min {
				min = insertion
			}
			if substitution < min {
				min = substitution
			}
			matrix[i][j] = min
		}
	}

	return matrix[rows-1][cols-1]
}
