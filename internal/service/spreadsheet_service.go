package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// SpreadsheetService parses user-supplied spreadsheet/CSV files into raw
// records. The first row is the header; data cells keep their string form so
// the field mapper owns all type coercion.
type SpreadsheetService struct{}

func NewSpreadsheetService() *SpreadsheetService {
	return &SpreadsheetService{}
}

// ParseResult is the parsed shape handed back to the mapping UI.
type ParseResult struct {
	Columns   []string           `json:"columns"`
	Records   []models.RawRecord `json:"records"`
	TotalRows int                `json:"total_rows"`
}

// ParseFile dispatches on the file extension. Supported: .xlsx, .csv.
func (s *SpreadsheetService) ParseFile(filename string, r io.Reader) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return s.parseExcel(r)
	case ".csv":
		return s.parseCSV(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q: only .xlsx and .csv are allowed", filepath.Ext(filename))
	}
}

func (s *SpreadsheetService) parseExcel(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return buildResult(rows)
}

func (s *SpreadsheetService) parseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, short rows just omit fields
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return buildResult(rows)
}

func buildResult(rows [][]string) (*ParseResult, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	columns := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		columns = append(columns, strings.TrimSpace(h))
	}

	var records []models.RawRecord
	for _, row := range rows[1:] {
		record := make(models.RawRecord, len(columns))
		for i, col := range columns {
			if col == "" || i >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[i])
			if value == "" {
				// empty cells are omitted so mapping treats them as missing
				continue
			}
			record[col] = value
		}
		if len(record) == 0 {
			continue
		}
		records = append(records, record)
	}

	return &ParseResult{
		Columns:   columns,
		Records:   records,
		TotalRows: len(records),
	}, nil
}
