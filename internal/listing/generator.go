package listing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const defaultPrice = 10.0

// Merged is a single coherent listing built from every analysis of the
// same item.
type Merged struct {
	Title       string
	Description string
	Price       float64
	Condition   string
	Category    string
	Images      string
}

// Summary is one row of the cumulative spreadsheet.
type Summary struct {
	ItemName    string
	Title       string
	Description string
	Price       float64
	Condition   string
	Category    string
	ImageCount  int
	FolderPath  string
}

// Merge combines multiple image analyses of one item: the longest
// description wins, prices are averaged, condition and category are the
// most commonly cited values.
func Merge(analyses []*Analysis) Merged {
	if len(analyses) == 0 {
		return Merged{
			Title:       "Item for Sale",
			Description: "No description available.",
			Price:       defaultPrice,
			Condition:   "Good",
			Category:    "Other",
			Images:      "N/A",
		}
	}

	base := analyses[0]

	description := ""
	for _, a := range analyses {
		if len(a.Description) > len(description) {
			description = a.Description
		}
	}
	if description == "" {
		description = "No description available."
	}

	var priceSum float64
	priceCount := 0
	for _, a := range analyses {
		if a.Price >= 0 {
			priceSum += a.Price
			priceCount++
		}
	}
	price := defaultPrice
	if priceCount > 0 {
		price = priceSum / float64(priceCount)
	}

	condition := mostCommon(analyses, func(a *Analysis) string { return a.Condition }, "Good")
	category := mostCommon(analyses, func(a *Analysis) string { return a.Category }, "Other")

	var imageNames []string
	for _, a := range analyses {
		if a.ImageName != "" {
			imageNames = append(imageNames, a.ImageName)
		}
	}
	images := "N/A"
	if len(imageNames) > 0 {
		images = strings.Join(imageNames, ", ")
	}

	return Merged{
		Title:       BuildTitle(base.ItemName, condition),
		Description: description,
		Price:       price,
		Condition:   condition,
		Category:    category,
		Images:      images,
	}
}

// mostCommon returns the most frequently cited value, breaking ties by
// first appearance.
func mostCommon(analyses []*Analysis, field func(*Analysis) string, fallback string) string {
	counts := make(map[string]int)
	var order []string
	for _, a := range analyses {
		v := field(a)
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best := fallback
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// BuildTitle builds a concise marketplace title, appending the condition
// unless the name already mentions it.
func BuildTitle(itemName, condition string) string {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" || strings.EqualFold(itemName, "unknown item") {
		return "Item for Sale"
	}
	if !strings.Contains(strings.ToLower(itemName), strings.ToLower(condition)) {
		return fmt.Sprintf("%s - %s Condition", itemName, condition)
	}
	return itemName
}

// Render formats the merged listing as the listing.txt body.
func (m Merged) Render() string {
	return fmt.Sprintf(`TITLE: %s

DESCRIPTION:
%s

PRICE: $%.2f

CONDITION: %s

CATEGORY: %s

IMAGES: %s
`, m.Title, m.Description, m.Price, m.Condition, m.Category, m.Images)
}

// WriteListing writes the merged listing for an item into its folder.
func WriteListing(itemFolder string, analyses []*Analysis) (string, error) {
	merged := Merge(analyses)
	path := filepath.Join(itemFolder, "listing.txt")
	if err := os.WriteFile(path, []byte(merged.Render()), 0644); err != nil {
		return "", fmt.Errorf("failed to write listing: %w", err)
	}
	slog.Info("Generated listing", "path", path)
	return path, nil
}

// WriteUpdate writes a dated listing_update file into an existing item
// folder after a cross-run merge. listing.txt is never overwritten; same-
// day updates get a numeric suffix.
func WriteUpdate(itemFolder, mergedIntoKey string, similarity float64, date string, analyses []*Analysis) (string, error) {
	merged := Merge(analyses)

	path := filepath.Join(itemFolder, fmt.Sprintf("listing_update_%s.txt", date))
	if _, err := os.Stat(path); err == nil {
		for counter := 2; ; counter++ {
			candidate := filepath.Join(itemFolder, fmt.Sprintf("listing_update_%s_%d.txt", date, counter))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				path = candidate
				break
			}
		}
	}

	body := fmt.Sprintf(`MERGED INTO: %s
SIMILARITY SCORE: %.4f
MERGE DATE: %s

--- New Analysis Summary ---
%s`, mergedIntoKey, similarity, date, merged.Render())

	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write listing update: %w", err)
	}
	slog.Info("Wrote listing update", "path", path)
	return path, nil
}

// Summarize builds the spreadsheet row for an item.
func Summarize(itemFolder string, analyses []*Analysis) Summary {
	merged := Merge(analyses)
	itemName := "Unknown"
	if len(analyses) > 0 && analyses[0].ItemName != "" {
		itemName = analyses[0].ItemName
	}
	return Summary{
		ItemName:    itemName,
		Title:       merged.Title,
		Description: merged.Description,
		Price:       merged.Price,
		Condition:   merged.Condition,
		Category:    merged.Category,
		ImageCount:  len(analyses),
		FolderPath:  itemFolder,
	}
}
