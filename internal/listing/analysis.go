// Package listing holds the structured listing data produced by image
// analysis and renders per-item listing files.
package listing

// Analysis is the structured result of analyzing a single image.
type Analysis struct {
	ItemName    string  `json:"item_name"`
	ItemKey     string  `json:"item_key"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Condition   string  `json:"condition"`
	Category    string  `json:"category"`

	// Set by the pipeline, not the model.
	ImageName string `json:"image_name,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}
