// Package analyzer extracts structured marketplace listing data from
// product images using Google Gemini vision models.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/SgtSeamonkey/fbauto123/internal/listing"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Analyzer produces a structured listing analysis for a single image.
// Failures are classified via *QuotaError, *TransientError and
// *PermanentError so the batch driver can decide what to do with the item.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath, model string) (*listing.Analysis, error)
}

const analysisPrompt = `Analyze this image of a household item or collectible for a Facebook Marketplace listing.
Respond ONLY with a valid JSON object (no markdown, no extra text) with these exact fields:
{
  "item_name": "A descriptive name for the item (e.g., 'Vintage Wooden Rocking Chair')",
  "item_key": "snake_case_key (e.g., 'vintage_wooden_rocking_chair')",
  "description": "A detailed description suitable for a Facebook Marketplace listing (2-4 sentences)",
  "price": <recommended price as a number (no $ sign)>,
  "condition": "One of: New, Like New, Good, Fair, Poor",
  "category": "One of: Electronics, Home & Garden, Clothing & Accessories, Collectibles, Sports & Outdoors, Toys & Games, Furniture, Appliances, Tools, Books & Media, Antiques, Other"
}`

// supportedFormats maps file extensions to the image format label the
// Gemini API expects.
var supportedFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".bmp":  "bmp",
	".webp": "webp",
	".tiff": "tiff",
	".heic": "heic",
}

// IsSupportedImage reports whether the filename has a supported image
// extension. Matching is case-insensitive on the extension only.
func IsSupportedImage(name string) bool {
	_, ok := supportedFormats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Gemini analyzes images with the Google Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates an analyzer backed by a Gemini client.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Analyze sends the image to the given Gemini model and parses the
// structured listing fields out of the response.
func (g *Gemini) Analyze(ctx context.Context, imagePath, model string) (*listing.Analysis, error) {
	format, ok := supportedFormats[strings.ToLower(filepath.Ext(imagePath))]
	if !ok {
		return nil, &PermanentError{Reason: fmt.Sprintf("unsupported image format: %s", filepath.Ext(imagePath))}
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, &PermanentError{Reason: "failed to read image", Err: err}
	}
	if len(data) == 0 {
		return nil, &PermanentError{Reason: "image file is empty"}
	}

	gm := g.client.GenerativeModel(model)
	resp, err := gm.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(analysisPrompt))
	if err != nil {
		return nil, classifyAPIError(model, err)
	}

	raw, err := responseText(resp)
	if err != nil {
		return nil, &TransientError{Reason: "unusable gemini response", Err: err}
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		return nil, &TransientError{Reason: "failed to parse gemini response", Err: err}
	}

	analysis.ImageName = filepath.Base(imagePath)
	analysis.ImagePath = imagePath
	slog.Info("Analyzed image", "image", analysis.ImageName, "item", analysis.ItemName, "price", analysis.Price, "model", model)
	return analysis, nil
}

// responseText extracts the text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("unexpected response format")
}

// classifyAPIError maps an API call failure onto the outcome taxonomy. A
// 429 / RESOURCE_EXHAUSTED means the model's quota is spent; anything else
// from the network or service is treated as transient.
func classifyAPIError(model string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return &QuotaError{Model: model}
	}
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return &QuotaError{Model: model}
	}
	return &TransientError{Reason: "gemini call failed", Err: err}
}
