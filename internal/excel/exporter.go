package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/example/spanishbot/pkg/models"
)

const exportSheet = "Sheet1"

// ExportVocabulary writes the word list as an xlsx workbook. The layout
// matches what ParseWordList reads back.
func ExportVocabulary(words []models.Vocabulary, lang models.NativeLanguage) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	nativeHeader := "Translation"
	if lang.Valid() {
		nativeHeader = lang.Label()
	}
	header := []interface{}{"Spanish", nativeHeader, "Type", "Added"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", "D1", style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, w := range words {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		added := ""
		if !w.CreatedAt.IsZero() {
			added = w.CreatedAt.Format("2006-01-02")
		}
		row := []interface{}{w.WordSpanish, w.WordNative, string(w.WordType), added}
		if err := f.SetSheetRow(exportSheet, cellName, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "B", 24); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
