package analyzer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/SgtSeamonkey/fbauto123/internal/listing"
)

const defaultPrice = 10.0

var conditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

var categories = []string{
	"Electronics",
	"Home & Garden",
	"Clothing & Accessories",
	"Collectibles",
	"Sports & Outdoors",
	"Toys & Games",
	"Furniture",
	"Appliances",
	"Tools",
	"Books & Media",
	"Antiques",
	"Other",
}

var (
	nonKeyChars   = regexp.MustCompile(`[^\w\s-]`)
	keySeparators = regexp.MustCompile(`[\s-]+`)
	jsonObject    = regexp.MustCompile(`(?s)\{.*\}`)
	nonPriceChars = regexp.MustCompile(`[^\d.]`)
)

// rawAnalysis tolerates the model returning the price as either a number
// or a string.
type rawAnalysis struct {
	ItemName    string          `json:"item_name"`
	ItemKey     string          `json:"item_key"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	Condition   string          `json:"condition"`
	Category    string          `json:"category"`
}

// ParseAnalysis parses a model response into a normalized Analysis. It
// strips markdown code fences, and if the remaining text is not valid JSON
// it falls back to extracting the first brace-delimited object.
func ParseAnalysis(raw string) (*listing.Analysis, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		match := jsonObject.FindString(text)
		if match == "" {
			return nil, fmt.Errorf("no JSON object in response")
		}
		if err := json.Unmarshal([]byte(match), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse JSON object: %w", err)
		}
	}

	itemName := strings.TrimSpace(parsed.ItemName)
	if itemName == "" {
		itemName = "Unknown Item"
	}
	key := parsed.ItemKey
	if key == "" {
		key = itemName
	}

	return &listing.Analysis{
		ItemName:    itemName,
		ItemKey:     NormalizeKey(key),
		Description: strings.TrimSpace(parsed.Description),
		Price:       parsePrice(parsed.Price),
		Condition:   normalizeCondition(parsed.Condition),
		Category:    normalizeCategory(parsed.Category),
	}, nil
}

// NormalizeKey converts a string to a snake_case item key.
func NormalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = nonKeyChars.ReplaceAllString(key, "")
	key = keySeparators.ReplaceAllString(key, "_")
	key = strings.Trim(key, "_")
	if key == "" {
		return "unknown_item"
	}
	return key
}

// parsePrice accepts a JSON number or a string like "$25.00", falling back
// to a sensible default.
func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return defaultPrice
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num >= 0 {
			return num
		}
		return defaultPrice
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		cleaned := nonPriceChars.ReplaceAllString(str, "")
		if err := json.Unmarshal([]byte(cleaned), &num); err == nil && num >= 0 {
			return num
		}
	}
	return defaultPrice
}

func normalizeCondition(condition string) string {
	for _, c := range conditions {
		if strings.EqualFold(c, strings.TrimSpace(condition)) {
			return c
		}
	}
	return "Good"
}

func normalizeCategory(category string) string {
	for _, c := range categories {
		if strings.EqualFold(c, strings.TrimSpace(category)) {
			return c
		}
	}
	return "Other"
}
