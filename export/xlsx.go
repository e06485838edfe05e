package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/use-agent/newslinks/models"
	"github.com/xuri/excelize/v2"
)

// Extension is appended to every output name.
const Extension = ".xlsx"

// DefaultFilename is the output name used when none is given:
// "{website}_{ddmm}_{HHMM}", from now.
func DefaultFilename(website string, now time.Time) string {
	return website + "_" + now.Format("0201_1504")
}

// Path joins dir and name, adding Extension unless name already has it.
func Path(dir, name string) string {
	if !strings.EqualFold(filepath.Ext(name), Extension) {
		name += Extension
	}
	return filepath.Join(dir, name)
}

// WriteArticles writes one row per record under the ArticleColumns header.
func WriteArticles(path string, records []models.ArticleRecord) error {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	return writeSheet(path, models.ArticleColumns, rows)
}

// WriteLinks writes one row per record under the LinkColumns header.
func WriteLinks(path string, records []models.LinkRecord) error {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	return writeSheet(path, models.LinkColumns, rows)
}

// writeSheet writes header as row 1 followed by rows, unstyled, to the
// workbook's only sheet. The parent directory is created if needed.
func writeSheet(path string, header []string, rows [][]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return models.NewScrapeError(models.ErrCodeExport, "failed to create output directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := setRow(f, sheet, 1, headerRow); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return models.NewScrapeError(models.ErrCodeExport, "failed to save spreadsheet", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeExport, fmt.Sprintf("row %d", n), err)
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return models.NewScrapeError(models.ErrCodeExport, fmt.Sprintf("failed to write row %d", n), err)
	}
	return nil
}
