package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"Customer Name,E-Mail,Phone",
		"Acme Plumbing,ops@acme.test,555-0100",
		"Beta HVAC,,555-0200",
		",,",
		"Gamma Roofing,info@gamma.test,",
	}, "\n")

	svc := NewSpreadsheetService()
	result, err := svc.ParseFile("upload.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer Name", "E-Mail", "Phone"}, result.Columns)
	require.Equal(t, 3, result.TotalRows, "fully empty rows are dropped")

	assert.Equal(t, "Acme Plumbing", result.Records[0]["Customer Name"])
	assert.Equal(t, "555-0100", result.Records[0]["Phone"])

	// empty cells are omitted entirely
	_, ok := result.Records[1]["E-Mail"]
	assert.False(t, ok)
	_, ok = result.Records[2]["Phone"]
	assert.False(t, ok)
}

func TestParseCSVRaggedRows(t *testing.T) {
	csvData := "Name,Email,Phone\nAcme,a@acme.test\n"

	svc := NewSpreadsheetService()
	result, err := svc.ParseFile("ragged.csv", strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalRows)

	_, ok := result.Records[0]["Phone"]
	assert.False(t, ok)
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"Customer Name", "E-Mail"},
		{"Acme Plumbing", "ops@acme.test"},
		{"Beta HVAC", ""},
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	svc := NewSpreadsheetService()
	result, err := svc.ParseFile("upload.xlsx", &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer Name", "E-Mail"}, result.Columns)
	require.Equal(t, 2, result.TotalRows)
	assert.Equal(t, "Acme Plumbing", result.Records[0]["Customer Name"])

	_, ok := result.Records[1]["E-Mail"]
	assert.False(t, ok)
}

func TestParseCSVAndExcelAgree(t *testing.T) {
	svc := NewSpreadsheetService()

	csvData := "Name,Email\nAcme,a@acme.test\nBeta,b@beta.test\n"
	fromCSV, err := svc.ParseFile("data.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range [][]interface{}{
		{"Name", "Email"},
		{"Acme", "a@acme.test"},
		{"Beta", "b@beta.test"},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	fromExcel, err := svc.ParseFile("data.xlsx", &buf)
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Columns, fromExcel.Columns)
	assert.Equal(t, fromCSV.Records, fromExcel.Records)
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	svc := NewSpreadsheetService()

	_, err := svc.ParseFile("data.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestParseFileHeaderOnly(t *testing.T) {
	svc := NewSpreadsheetService()

	_, err := svc.ParseFile("empty.csv", strings.NewReader("Name,Email\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one data row")
}
