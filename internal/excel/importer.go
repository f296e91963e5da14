package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/pkg/models"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv
var ErrUnsupportedFormat = errors.New("unsupported file format, use .xlsx or .csv")

// ImportConfig defines which columns hold the word data
type ImportConfig struct {
	SpanishColumn string // Column with the Spanish word
	NativeColumn  string // Column with the translation
	TypeColumn    string // Column with the word type, optional
	SheetName     string // Sheet to read, first sheet when empty
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SpanishColumn: "A",
		NativeColumn:  "B",
		TypeColumn:    "C",
	}
}

// ParseWordList reads a word list from an xlsx or csv file. The format is
// chosen by the file name. A header row is skipped, and a row holding only
// a word type ("verb,,") sets the type of the rows below it.
func ParseWordList(r io.Reader, filename string, config ImportConfig) ([]learning.WordDraft, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(r, config.SheetName)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows, config), nil
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

func parseRows(rows [][]string, config ImportConfig) []learning.WordDraft {
	spanishIdx := columnToIndex(config.SpanishColumn)
	nativeIdx := columnToIndex(config.NativeColumn)
	typeIdx := -1
	if config.TypeColumn != "" {
		typeIdx = columnToIndex(config.TypeColumn)
	}

	currentType := models.WordNoun
	drafts := make([]learning.WordDraft, 0, len(rows))
	for i, row := range rows {
		spanish := cleanWord(cell(row, spanishIdx))
		native := cleanWord(cell(row, nativeIdx))

		if spanish == "" && native == "" {
			continue
		}
		if i == 0 && isHeader(spanish, native) {
			continue
		}
		// Section header such as "verb,," switches the default type
		if native == "" && cell(row, typeIdx) == "" {
			if wt, err := models.ParseWordType(strings.ToLower(spanish)); err == nil {
				currentType = wt
				continue
			}
		}

		wordType := currentType
		if raw := strings.ToLower(strings.TrimSpace(cell(row, typeIdx))); raw != "" {
			// Unknown types are kept so the row is reported as invalid
			wordType = models.WordType(raw)
		}
		drafts = append(drafts, learning.WordDraft{
			Spanish: spanish,
			Native:  native,
			Type:    wordType,
		})
	}
	return drafts
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isHeader(spanish, native string) bool {
	switch strings.ToLower(spanish) {
	case "spanish", "español", "espanol", "word", "word_spanish":
	default:
		return false
	}
	return native != ""
}

// cleanWord drops trailing notes in parentheses, "ir (irregular)" -> "ir"
func cleanWord(word string) string {
	word = strings.TrimSpace(strings.Trim(word, "\""))
	if idx := strings.Index(word, "("); idx > 0 {
		return strings.TrimSpace(word[:idx])
	}
	return word
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
