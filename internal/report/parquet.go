package report

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/SgtSeamonkey/fbauto123/internal/listing"
	"github.com/parquet-go/parquet-go"
)

// ListingRow is the Parquet schema for one listed item.
type ListingRow struct {
	ItemName    string  `parquet:"item_name"`
	Title       string  `parquet:"title"`
	Description string  `parquet:"description"`
	Price       float64 `parquet:"price"`
	Condition   string  `parquet:"condition"`
	Category    string  `parquet:"category"`
	ImageCount  int32   `parquet:"image_count"`
	FolderPath  string  `parquet:"folder_path"`
}

// WriteParquet exports the summary rows as a Parquet dataset at path.
func WriteParquet(path string, summaries []listing.Summary) error {
	rows := make([]ListingRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, ListingRow{
			ItemName:    s.ItemName,
			Title:       s.Title,
			Description: s.Description,
			Price:       s.Price,
			Condition:   s.Condition,
			Category:    s.Category,
			ImageCount:  int32(s.ImageCount),
			FolderPath:  s.FolderPath,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[ListingRow](f)
	if _, err := writer.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}

	slog.Info("Exported listings dataset", "path", path, "rows", len(rows))
	return nil
}

// ReadParquet loads an exported dataset, mostly for verification.
func ReadParquet(path string) ([]ListingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[ListingRow](pf)
	defer reader.Close()

	var rows []ListingRow
	batch := make([]ListingRow, 128)
	for {
		n, err := reader.Read(batch)
		if n > 0 {
			rows = append(rows, batch[:n]...)
		}
		if err != nil {
			break
		}
	}
	return rows, nil
}
