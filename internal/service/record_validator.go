package service

import (
	"fmt"
	"strings"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// RuleFunc checks one canonical record and returns zero or more field
// errors. Rules see records independently; there is no cross-record state.
type RuleFunc func(fields map[string]interface{}) []models.FieldError

// AbortPolicy decides whether a whole import should be rejected before any
// write, given the share of invalid records and the submission size.
type AbortPolicy func(invalidRatio float64, totalCount int) bool

// DefaultAbortPolicy aborts when the invalid ratio strictly exceeds
// threshold, once at least minRows records were submitted.
func DefaultAbortPolicy(threshold float64, minRows int) AbortPolicy {
	return func(invalidRatio float64, totalCount int) bool {
		if totalCount < minRows {
			return false
		}
		return invalidRatio > threshold
	}
}

// RecordValidator checks transformed records against entity-specific rules.
// The validation protocol is uniform across entity types: unparseable field
// markers first, then the registered rule set; a record with zero errors is
// valid.
type RecordValidator struct {
	rules map[string]RuleFunc
}

func NewRecordValidator() *RecordValidator {
	v := &RecordValidator{rules: make(map[string]RuleFunc)}
	v.Register("customers", validateCustomer)
	v.Register("jobs", validateJob)
	v.Register("invoices", validateInvoice)
	v.Register("properties", validateProperty)
	return v
}

// Register installs or replaces the rule set for an entity type.
func (v *RecordValidator) Register(entityType string, rule RuleFunc) {
	v.rules[entityType] = rule
}

// Validate partitions records into valid and invalid sets.
func (v *RecordValidator) Validate(records []models.TransformedRecord, entityType string) models.ValidationOutcome {
	rule, ok := v.rules[entityType]
	if !ok {
		rule = validateGeneric
	}

	outcome := models.ValidationOutcome{}
	for _, record := range records {
		errs := unparseableErrors(record.Fields)
		errs = append(errs, rule(record.Fields)...)

		if len(errs) == 0 {
			outcome.Valid = append(outcome.Valid, record)
		} else {
			outcome.Invalid = append(outcome.Invalid, models.InvalidRecord{
				Record: record,
				Errors: errs,
			})
		}
	}
	return outcome
}

func unparseableErrors(fields map[string]interface{}) []models.FieldError {
	var errs []models.FieldError
	for field, value := range fields {
		if value == models.Unparseable {
			errs = append(errs, models.FieldError{
				Field:   field,
				Message: "value could not be parsed",
			})
		}
	}
	return errs
}

func validateCustomer(fields map[string]interface{}) []models.FieldError {
	var errs []models.FieldError
	if stringField(fields, "name") == "" {
		errs = append(errs, required("name"))
	}
	if stringField(fields, "email") == "" && stringField(fields, "phone") == "" {
		errs = append(errs, models.FieldError{
			Field:   "email",
			Message: "at least one contact channel (email or phone) is required",
		})
	}
	return errs
}

func validateJob(fields map[string]interface{}) []models.FieldError {
	var errs []models.FieldError
	if stringField(fields, "title") == "" {
		errs = append(errs, required("title"))
	}
	if stringField(fields, "customer_ref") == "" && stringField(fields, "customer_name") == "" {
		errs = append(errs, models.FieldError{
			Field:   "customer_ref",
			Message: "a customer reference is required",
		})
	}
	return errs
}

func validateInvoice(fields map[string]interface{}) []models.FieldError {
	var errs []models.FieldError
	if stringField(fields, "invoice_number") == "" {
		errs = append(errs, required("invoice_number"))
	}
	amount, ok := fields["amount"]
	if !ok || amount == models.Unparseable {
		// missing amount is its own error; the unparseable case was already
		// reported by the marker scan
		if !ok {
			errs = append(errs, required("amount"))
		}
		return errs
	}
	if f, isNum := amount.(float64); !isNum {
		errs = append(errs, models.FieldError{Field: "amount", Message: "amount must be a number"})
	} else if f < 0 {
		errs = append(errs, models.FieldError{Field: "amount", Message: "amount must not be negative"})
	}
	return errs
}

func validateProperty(fields map[string]interface{}) []models.FieldError {
	var errs []models.FieldError
	if stringField(fields, "address") == "" {
		errs = append(errs, required("address"))
	}
	return errs
}

// validateGeneric is the fallback for entity types without a registered rule
// set: the record must carry at least one non-empty field.
func validateGeneric(fields map[string]interface{}) []models.FieldError {
	for _, value := range fields {
		if value == models.Unparseable {
			continue
		}
		if s, ok := value.(string); ok {
			if strings.TrimSpace(s) != "" {
				return nil
			}
			continue
		}
		if value != nil {
			return nil
		}
	}
	return []models.FieldError{{Field: "", Message: "record has no usable fields"}}
}

func stringField(fields map[string]interface{}, name string) string {
	value, ok := fields[name]
	if !ok || value == models.Unparseable {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func required(field string) models.FieldError {
	return models.FieldError{Field: field, Message: fmt.Sprintf("%s is required", field)}
}
