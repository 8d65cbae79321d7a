// Package report renders the cumulative listing summary: an Excel
// spreadsheet for the operator and a Parquet dataset for downstream
// analysis.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/SgtSeamonkey/fbauto123/internal/listing"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Listings"

var summaryColumns = []string{
	"Item Name",
	"Title",
	"Description",
	"Price",
	"Condition",
	"Category",
	"Image Count",
	"Folder Path",
}

// Excel writes and updates the master summary spreadsheet.
type Excel struct {
	path string
}

// NewExcel creates a writer for summary.xlsx in the output folder.
func NewExcel(outputDir string) *Excel {
	return &Excel{path: filepath.Join(outputDir, "summary.xlsx")}
}

// Path returns the spreadsheet location.
func (e *Excel) Path() string {
	return e.path
}

// AppendOrUpdate merges the new summaries into the existing spreadsheet,
// updating rows with a matching folder path, and rewrites the file. A
// missing or unreadable spreadsheet is rebuilt from the new rows alone.
func (e *Excel) AppendOrUpdate(summaries []listing.Summary) error {
	if _, err := os.Stat(e.path); err == nil {
		existing, err := e.Read()
		if err != nil {
			slog.Warn("Could not read existing summary spreadsheet, overwriting", "path", e.path, "err", err)
			return e.Generate(summaries)
		}

		byPath := make(map[string]int, len(existing))
		for i, row := range existing {
			byPath[row.FolderPath] = i
		}
		for _, row := range summaries {
			if i, ok := byPath[row.FolderPath]; ok {
				existing[i] = row
			} else {
				byPath[row.FolderPath] = len(existing)
				existing = append(existing, row)
			}
		}
		return e.Generate(existing)
	}
	return e.Generate(summaries)
}

// Generate writes the spreadsheet from scratch with sized columns and a
// frozen header row.
func (e *Excel) Generate(summaries []listing.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range summaryColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	widths := make([]int, len(summaryColumns))
	for col, header := range summaryColumns {
		widths[col] = len(header)
	}

	for i, row := range summaries {
		values := []interface{}{
			row.ItemName,
			row.Title,
			row.Description,
			row.Price,
			row.Condition,
			row.Category,
			row.ImageCount,
			row.FolderPath,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
			if n := len(fmt.Sprint(value)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	// Approximate auto-fit, capped so descriptions stay readable.
	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to build column name: %w", err)
		}
		w := float64(width + 2)
		if w > 60 {
			w = 60
		}
		if err := f.SetColWidth(sheetName, name, name, w); err != nil {
			return fmt.Errorf("failed to size column: %w", err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	slog.Info("Generated summary spreadsheet", "path", e.path, "items", len(summaries))
	return nil
}

// Read loads the summary rows back out of the spreadsheet.
func (e *Excel) Read() ([]listing.Summary, error) {
	f, err := excelize.OpenFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var summaries []listing.Summary
	for _, row := range rows[1:] {
		summaries = append(summaries, listing.Summary{
			ItemName:    cellAt(row, 0),
			Title:       cellAt(row, 1),
			Description: cellAt(row, 2),
			Price:       parseFloat(cellAt(row, 3)),
			Condition:   cellAt(row, 4),
			Category:    cellAt(row, 5),
			ImageCount:  parseInt(cellAt(row, 6)),
			FolderPath:  cellAt(row, 7),
		})
	}
	return summaries, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
