package analyzer

import (
	"errors"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantName      string
		wantKey       string
		wantPrice     float64
		wantCondition string
		wantCategory  string
		wantErr       bool
	}{
		{
			name:          "plain JSON",
			raw:           `{"item_name":"Vintage Wooden Rocking Chair","item_key":"vintage_wooden_rocking_chair","description":"A chair.","price":45,"condition":"Good","category":"Furniture"}`,
			wantName:      "Vintage Wooden Rocking Chair",
			wantKey:       "vintage_wooden_rocking_chair",
			wantPrice:     45,
			wantCondition: "Good",
			wantCategory:  "Furniture",
		},
		{
			name:          "markdown fenced JSON",
			raw:           "```json\n{\"item_name\":\"Lamp\",\"item_key\":\"lamp\",\"price\":12.5,\"condition\":\"Like New\",\"category\":\"Home & Garden\"}\n```",
			wantName:      "Lamp",
			wantKey:       "lamp",
			wantPrice:     12.5,
			wantCondition: "Like New",
			wantCategory:  "Home & Garden",
		},
		{
			name:          "JSON embedded in prose",
			raw:           "Here is the listing:\n{\"item_name\":\"Mug\",\"item_key\":\"mug\",\"price\":5,\"condition\":\"good\",\"category\":\"other\"}\nHope that helps!",
			wantName:      "Mug",
			wantKey:       "mug",
			wantPrice:     5,
			wantCondition: "Good",
			wantCategory:  "Other",
		},
		{
			name:          "string price with dollar sign",
			raw:           `{"item_name":"Desk","item_key":"desk","price":"$80.00","condition":"Fair","category":"Furniture"}`,
			wantName:      "Desk",
			wantKey:       "desk",
			wantPrice:     80,
			wantCondition: "Fair",
			wantCategory:  "Furniture",
		},
		{
			name:          "invalid price falls back to default",
			raw:           `{"item_name":"Desk","item_key":"desk","price":"call me","condition":"Fair","category":"Furniture"}`,
			wantName:      "Desk",
			wantKey:       "desk",
			wantPrice:     10,
			wantCondition: "Fair",
			wantCategory:  "Furniture",
		},
		{
			name:          "unknown condition and category normalized",
			raw:           `{"item_name":"Widget","item_key":"widget","price":1,"condition":"Mint","category":"Gadgets"}`,
			wantName:      "Widget",
			wantKey:       "widget",
			wantPrice:     1,
			wantCondition: "Good",
			wantCategory:  "Other",
		},
		{
			name:          "missing key derived from name",
			raw:           `{"item_name":"Blue Ceramic Mug","price":8,"condition":"Good","category":"Other"}`,
			wantName:      "Blue Ceramic Mug",
			wantKey:       "blue_ceramic_mug",
			wantPrice:     8,
			wantCondition: "Good",
			wantCategory:  "Other",
		},
		{
			name:    "no JSON at all",
			raw:     "I cannot identify this item.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected parse error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAnalysis failed: %v", err)
			}
			if got.ItemName != tt.wantName {
				t.Errorf("Expected item name %q, got %q", tt.wantName, got.ItemName)
			}
			if got.ItemKey != tt.wantKey {
				t.Errorf("Expected item key %q, got %q", tt.wantKey, got.ItemKey)
			}
			if got.Price != tt.wantPrice {
				t.Errorf("Expected price %v, got %v", tt.wantPrice, got.Price)
			}
			if got.Condition != tt.wantCondition {
				t.Errorf("Expected condition %q, got %q", tt.wantCondition, got.Condition)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Expected category %q, got %q", tt.wantCategory, got.Category)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Vintage Wooden Rocking Chair", "vintage_wooden_rocking_chair"},
		{"  Blue-Ceramic   Mug!! ", "blue_ceramic_mug"},
		{"___", "unknown_item"},
		{"", "unknown_item"},
	}

	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.expected {
			t.Errorf("NormalizeKey(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestIsSupportedImage(t *testing.T) {
	supported := []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.HEIC"}
	for _, name := range supported {
		if !IsSupportedImage(name) {
			t.Errorf("Expected %s to be supported", name)
		}
	}

	unsupported := []string{"a.txt", "b.pdf", "noext", "c.jpg.zip"}
	for _, name := range unsupported {
		if IsSupportedImage(name) {
			t.Errorf("Expected %s to be unsupported", name)
		}
	}
}

func TestClassifyAPIError(t *testing.T) {
	quotaHTTP := classifyAPIError("m", &googleapi.Error{Code: http.StatusTooManyRequests})
	var qe *QuotaError
	if !errors.As(quotaHTTP, &qe) || qe.Model != "m" {
		t.Errorf("Expected 429 to classify as QuotaError, got %v", quotaHTTP)
	}

	quotaGRPC := classifyAPIError("m", errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"))
	if !errors.As(quotaGRPC, &qe) {
		t.Errorf("Expected RESOURCE_EXHAUSTED to classify as QuotaError, got %v", quotaGRPC)
	}

	transient := classifyAPIError("m", errors.New("connection reset by peer"))
	var te *TransientError
	if !errors.As(transient, &te) {
		t.Errorf("Expected network error to classify as TransientError, got %v", transient)
	}
}
