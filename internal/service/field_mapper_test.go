package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

func TestMapRecordBasic(t *testing.T) {
	mapper := NewFieldMapper()

	record := models.RawRecord{
		"Customer Name": "  Acme Plumbing  ",
		"E-Mail":        "ops@acme.test",
		"Ignored":       "unused column",
	}
	mappings := []models.FieldMapping{
		{SourceColumn: "Customer Name", TargetField: "name"},
		{SourceColumn: "E-Mail", TargetField: "email", Transform: models.TransformString},
		{SourceColumn: "Does Not Exist", TargetField: "phone"},
	}

	out := mapper.MapRecord(record, 4, mappings)

	assert.Equal(t, 4, out.RowIndex)
	assert.Equal(t, "Acme Plumbing", out.Fields["name"])
	assert.Equal(t, "ops@acme.test", out.Fields["email"])

	// missing source column means the field is omitted, not an error
	_, ok := out.Fields["phone"]
	assert.False(t, ok)
}

func TestMapRecordLastWriteWins(t *testing.T) {
	mapper := NewFieldMapper()

	record := models.RawRecord{"A": "first", "B": "second"}
	mappings := []models.FieldMapping{
		{SourceColumn: "A", TargetField: "name"},
		{SourceColumn: "B", TargetField: "name"},
	}

	out := mapper.MapRecord(record, 0, mappings)
	assert.Equal(t, "second", out.Fields["name"])
}

func TestMapRecordNumberTransform(t *testing.T) {
	mapper := NewFieldMapper()
	mappings := []models.FieldMapping{
		{SourceColumn: "Amount", TargetField: "amount", Transform: models.TransformNumber},
	}

	out := mapper.MapRecord(models.RawRecord{"Amount": "$1,234.50"}, 0, mappings)
	assert.Equal(t, 1234.50, out.Fields["amount"])

	out = mapper.MapRecord(models.RawRecord{"Amount": 88}, 0, mappings)
	assert.Equal(t, 88.0, out.Fields["amount"])

	out = mapper.MapRecord(models.RawRecord{"Amount": "not a number"}, 0, mappings)
	assert.Equal(t, models.Unparseable, out.Fields["amount"])
}

func TestMapRecordBooleanTransform(t *testing.T) {
	mapper := NewFieldMapper()
	mappings := []models.FieldMapping{
		{SourceColumn: "Active", TargetField: "active", Transform: models.TransformBoolean},
	}

	for input, want := range map[string]bool{
		"yes": true, "Y": true, "true": true, "Active": true,
		"no": false, "N": false, "false": false, "disabled": false,
	} {
		out := mapper.MapRecord(models.RawRecord{"Active": input}, 0, mappings)
		assert.Equal(t, want, out.Fields["active"], "input %q", input)
	}

	out := mapper.MapRecord(models.RawRecord{"Active": "maybe"}, 0, mappings)
	assert.Equal(t, models.Unparseable, out.Fields["active"])
}

func TestMapRecordDateTransform(t *testing.T) {
	mapper := NewFieldMapper()

	noFormat := []models.FieldMapping{
		{SourceColumn: "Date", TargetField: "scheduled_at", Transform: models.TransformDate},
	}
	out := mapper.MapRecord(models.RawRecord{"Date": "03/15/2024"}, 0, noFormat)
	assert.Equal(t, "2024-03-15", out.Fields["scheduled_at"])

	explicit := []models.FieldMapping{
		{SourceColumn: "Date", TargetField: "scheduled_at", Transform: models.TransformDate, DateFormat: "02.01.2006"},
	}
	out = mapper.MapRecord(models.RawRecord{"Date": "15.03.2024"}, 0, explicit)
	assert.Equal(t, "2024-03-15", out.Fields["scheduled_at"])

	out = mapper.MapRecord(models.RawRecord{"Date": "yesterday"}, 0, noFormat)
	assert.Equal(t, models.Unparseable, out.Fields["scheduled_at"])
}

func TestMapRecordEnumTransform(t *testing.T) {
	mapper := NewFieldMapper()
	mappings := []models.FieldMapping{
		{
			SourceColumn: "Status",
			TargetField:  "status",
			Transform:    models.TransformEnum,
			EnumValues:   map[string]string{"Open": "scheduled", "Done": "completed"},
		},
	}

	out := mapper.MapRecord(models.RawRecord{"Status": "Open"}, 0, mappings)
	assert.Equal(t, "scheduled", out.Fields["status"])

	// enum lookup is case-insensitive
	out = mapper.MapRecord(models.RawRecord{"Status": "done"}, 0, mappings)
	assert.Equal(t, "completed", out.Fields["status"])

	out = mapper.MapRecord(models.RawRecord{"Status": "cancelled"}, 0, mappings)
	assert.Equal(t, models.Unparseable, out.Fields["status"])
}

func TestMapperIsPure(t *testing.T) {
	mapper := NewFieldMapper()

	record := models.RawRecord{"Name": "Jane", "Total": "42.5", "Date": "2024-01-31"}
	mappings := []models.FieldMapping{
		{SourceColumn: "Name", TargetField: "name"},
		{SourceColumn: "Total", TargetField: "total", Transform: models.TransformNumber},
		{SourceColumn: "Date", TargetField: "date", Transform: models.TransformDate},
	}

	first := mapper.MapRecord(record, 9, mappings)
	second := mapper.MapRecord(record, 9, mappings)
	assert.Equal(t, first, second)
}

func TestMapAllPreservesOrderAndIndexes(t *testing.T) {
	mapper := NewFieldMapper()
	records := []models.RawRecord{
		{"Name": "one"},
		{"Name": "two"},
		{"Name": "three"},
	}
	mappings := []models.FieldMapping{{SourceColumn: "Name", TargetField: "name"}}

	out := mapper.MapAll(records, mappings)
	require.Len(t, out, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, i, out[i].RowIndex)
		assert.Equal(t, want, out[i].Fields["name"])
	}
}
