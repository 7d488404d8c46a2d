package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Unparseable marks a field whose transform could not coerce the source
// value. The field mapper never fails a row outright; the validator surfaces
// this marker as a field error instead.
const Unparseable = "__unparseable__"

// Transform hints understood by the field mapper.
const (
	TransformString  = "string"
	TransformNumber  = "number"
	TransformBoolean = "boolean"
	TransformDate    = "date"
	TransformEnum    = "enum"
)

// RawRecord is one input row exactly as submitted: arbitrary source column
// keys, untyped values.
type RawRecord map[string]interface{}

// FieldMapping pairs a source column with a canonical field, with an optional
// transform hint. Immutable once an import starts.
type FieldMapping struct {
	SourceColumn string            `json:"source_column"`
	TargetField  string            `json:"target_field"`
	Transform    string            `json:"transform,omitempty"`
	DateFormat   string            `json:"date_format,omitempty"`
	EnumValues   map[string]string `json:"enum_values,omitempty"`
}

// FieldMappingList is stored as a JSON column on jobs and saved mappings.
type FieldMappingList []FieldMapping

func (m FieldMappingList) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(FieldMappingList{})
	}
	return json.Marshal(m)
}

func (m *FieldMappingList) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported mappings column type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// TransformedRecord is a RawRecord after mapping: canonical field names and
// coerced primitive values, keeping the original row index for error
// attribution.
type TransformedRecord struct {
	RowIndex int                    `json:"row_index"`
	Fields   map[string]interface{} `json:"fields"`
}

// FieldError is one validation failure on one field of one record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidRecord pairs a record with the reasons it was rejected.
type InvalidRecord struct {
	Record TransformedRecord `json:"record"`
	Errors []FieldError      `json:"errors"`
}

// ValidationOutcome partitions a job's records after validation.
type ValidationOutcome struct {
	Valid   []TransformedRecord
	Invalid []InvalidRecord
}

// InvalidRatio is the share of records that failed validation.
func (o ValidationOutcome) InvalidRatio() float64 {
	total := len(o.Valid) + len(o.Invalid)
	if total == 0 {
		return 0
	}
	return float64(len(o.Invalid)) / float64(total)
}

// TotalCount is the number of records the validator saw.
func (o ValidationOutcome) TotalCount() int {
	return len(o.Valid) + len(o.Invalid)
}

// BatchResult is the per-batch outcome reported by the batch writer.
type BatchResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Errors    []ImportError
}

// JSONMap is a generic JSON object column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(JSONMap{})
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// EntityRecord is one canonical business record in the tenant store,
// addressed by its natural key (company, entity type, external key).
type EntityRecord struct {
	ID          int64     `db:"id" json:"id"`
	CompanyID   string    `db:"company_id" json:"company_id"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	ExternalKey string    `db:"external_key" json:"external_key"`
	Attributes  JSONMap   `db:"attributes" json:"attributes"`
	ImportJobID int       `db:"import_job_id" json:"import_job_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StagedRecord is one submitted row staged for the background worker.
type StagedRecord struct {
	ID       int64   `db:"id" json:"id"`
	JobID    int     `db:"job_id" json:"job_id"`
	RowIndex int     `db:"row_index" json:"row_index"`
	Payload  JSONMap `db:"payload" json:"payload"`
}
