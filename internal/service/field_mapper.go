package service

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// FieldMapper converts raw input rows into canonical records using the
// caller-supplied column mappings. It is pure: no I/O, no shared state, and
// identical inputs always yield identical outputs.
type FieldMapper struct{}

func NewFieldMapper() *FieldMapper {
	return &FieldMapper{}
}

// Date layouts tried in order when a mapping carries no explicit format.
var commonDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"January 2, 2006",
}

// MapRecord applies every mapping to one raw row. A missing source column
// means the canonical field is omitted, not an error. When two mappings
// target the same canonical field the later one wins. Coercion failures are
// written as the Unparseable marker so the validator can surface them
// uniformly; mapping itself never fails a row.
func (m *FieldMapper) MapRecord(record models.RawRecord, rowIndex int, mappings []models.FieldMapping) models.TransformedRecord {
	out := models.TransformedRecord{
		RowIndex: rowIndex,
		Fields:   make(map[string]interface{}, len(mappings)),
	}

	for _, fm := range mappings {
		value, ok := record[fm.SourceColumn]
		if !ok {
			continue
		}
		out.Fields[fm.TargetField] = applyTransform(value, fm)
	}

	return out
}

// MapAll maps a full submission, preserving submission order and row indexes.
func (m *FieldMapper) MapAll(records []models.RawRecord, mappings []models.FieldMapping) []models.TransformedRecord {
	out := make([]models.TransformedRecord, 0, len(records))
	for i, record := range records {
		out = append(out, m.MapRecord(record, i, mappings))
	}
	return out
}

func applyTransform(value interface{}, fm models.FieldMapping) interface{} {
	switch fm.Transform {
	case models.TransformString:
		s, err := cast.ToStringE(value)
		if err != nil {
			return models.Unparseable
		}
		return strings.TrimSpace(s)

	case models.TransformNumber:
		return coerceNumber(value)

	case models.TransformBoolean:
		return coerceBool(value)

	case models.TransformDate:
		return coerceDate(value, fm.DateFormat)

	case models.TransformEnum:
		return coerceEnum(value, fm.EnumValues)

	default:
		// No hint: pass primitives through, trimming string noise.
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s)
		}
		return value
	}
}

func coerceNumber(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		// Spreadsheet exports often carry currency formatting.
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimPrefix(s, "$")
		value = s
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return models.Unparseable
	}
	return f
}

func coerceBool(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y", "active", "enabled":
			return true
		case "no", "n", "inactive", "disabled":
			return false
		}
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return models.Unparseable
	}
	return b
}

func coerceDate(value interface{}, layout string) interface{} {
	if t, ok := value.(time.Time); ok {
		return t.Format("2006-01-02")
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		return models.Unparseable
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Unparseable
	}

	layouts := commonDateLayouts
	if layout != "" {
		layouts = []string{layout}
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return models.Unparseable
}

func coerceEnum(value interface{}, enum map[string]string) interface{} {
	s, err := cast.ToStringE(value)
	if err != nil {
		return models.Unparseable
	}
	s = strings.TrimSpace(s)

	if mapped, ok := enum[s]; ok {
		return mapped
	}
	for k, mapped := range enum {
		if strings.EqualFold(k, s) {
			return mapped
		}
	}
	return models.Unparseable
}
