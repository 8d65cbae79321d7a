package report

import (
	"path/filepath"
	"testing"

	"github.com/SgtSeamonkey/fbauto123/internal/listing"
)

func sampleSummaries() []listing.Summary {
	return []listing.Summary{
		{
			ItemName:    "Blue Mug",
			Title:       "Blue Mug - Good Condition",
			Description: "a blue ceramic mug",
			Price:       9.5,
			Condition:   "Good",
			Category:    "Home & Kitchen",
			ImageCount:  2,
			FolderPath:  "output/blue_mug",
		},
		{
			ItemName:    "Desk Lamp",
			Title:       "Desk Lamp - Like New Condition",
			Description: "adjustable desk lamp",
			Price:       25,
			Condition:   "Like New",
			Category:    "Home & Kitchen",
			ImageCount:  1,
			FolderPath:  "output/desk_lamp",
		},
	}
}

func TestExcelGenerateAndRead(t *testing.T) {
	e := NewExcel(t.TempDir())

	if err := e.Generate(sampleSummaries()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	rows, err := e.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ItemName != "Blue Mug" || rows[0].Price != 9.5 || rows[0].ImageCount != 2 {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].FolderPath != "output/desk_lamp" {
		t.Errorf("second row folder = %s", rows[1].FolderPath)
	}
}

func TestAppendOrUpdateMergesByFolderPath(t *testing.T) {
	e := NewExcel(t.TempDir())

	if err := e.AppendOrUpdate(sampleSummaries()); err != nil {
		t.Fatalf("AppendOrUpdate() error = %v", err)
	}

	// Second run: one updated item, one new item.
	update := []listing.Summary{
		{
			ItemName:   "Blue Mug",
			Title:      "Blue Mug - Good Condition",
			Price:      12,
			Condition:  "Good",
			Category:   "Home & Kitchen",
			ImageCount: 3,
			FolderPath: "output/blue_mug",
		},
		{
			ItemName:   "Bookshelf",
			Title:      "Bookshelf - Fair Condition",
			Price:      30,
			Condition:  "Fair",
			Category:   "Furniture",
			ImageCount: 2,
			FolderPath: "output/bookshelf",
		},
	}
	if err := e.AppendOrUpdate(update); err != nil {
		t.Fatalf("AppendOrUpdate() error = %v", err)
	}

	rows, err := e.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (update in place, one appended)", len(rows))
	}

	byPath := make(map[string]listing.Summary)
	for _, row := range rows {
		byPath[row.FolderPath] = row
	}
	if got := byPath["output/blue_mug"]; got.Price != 12 || got.ImageCount != 3 {
		t.Errorf("blue_mug row not updated: %+v", got)
	}
	if _, ok := byPath["output/bookshelf"]; !ok {
		t.Error("bookshelf row missing")
	}
}

func TestAppendOrUpdateCreatesMissingFile(t *testing.T) {
	e := NewExcel(t.TempDir())
	if err := e.AppendOrUpdate(sampleSummaries()); err != nil {
		t.Fatalf("AppendOrUpdate() error = %v", err)
	}
	rows, err := e.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestParquetExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.parquet")

	if err := WriteParquet(path, sampleSummaries()); err != nil {
		t.Fatalf("WriteParquet() error = %v", err)
	}

	rows, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ItemName != "Blue Mug" || rows[0].ImageCount != 2 {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Price != 25 {
		t.Errorf("second row price = %v, want 25", rows[1].Price)
	}
}
