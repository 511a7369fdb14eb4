package exporter

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/dendralab/dendra/pkg/models"
)

// Workbook sheet names.
const (
	featureSheet = "features"
	summarySheet = "summary"
)

// WriteWorkbook writes the feature table, and optionally one group summary,
// as an xlsx workbook
func WriteWorkbook(path string, rows []models.FeatureRow, feature string, stats []models.FeatureGroupStat) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", featureSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSheet(f, featureSheet, FeatureHeaders(), FeatureRecords(rows)); err != nil {
		return err
	}

	if len(stats) > 0 {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return fmt.Errorf("failed to add summary sheet: %w", err)
		}
		if err := writeSheet(f, summarySheet, SummaryHeaders(), SummaryRecords(feature, stats)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(rows)).
		Msg("Wrote xlsx export")
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, records [][]string) error {
	for col, header := range headers {
		cell, err := cellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
	}
	for row, record := range records {
		for col, value := range record {
			cell, err := cellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func cellName(col, row int) (string, error) {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "", fmt.Errorf("failed to name column %d: %w", col, err)
	}
	return fmt.Sprintf("%s%d", name, row), nil
}
