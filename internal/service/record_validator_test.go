package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

func rec(index int, fields map[string]interface{}) models.TransformedRecord {
	return models.TransformedRecord{RowIndex: index, Fields: fields}
}

func TestValidateCustomers(t *testing.T) {
	v := NewRecordValidator()

	records := []models.TransformedRecord{
		rec(0, map[string]interface{}{"name": "Acme", "email": "a@acme.test"}),
		rec(1, map[string]interface{}{"name": "No Contact"}),
		rec(2, map[string]interface{}{"email": "nameless@acme.test"}),
		rec(3, map[string]interface{}{"name": "Phone Only", "phone": "555-0100"}),
	}

	outcome := v.Validate(records, "customers")

	require.Len(t, outcome.Valid, 2)
	require.Len(t, outcome.Invalid, 2)
	assert.Equal(t, 0.5, outcome.InvalidRatio())
	assert.Equal(t, 4, outcome.TotalCount())

	assert.Equal(t, 1, outcome.Invalid[0].Record.RowIndex)
	assert.Equal(t, "email", outcome.Invalid[0].Errors[0].Field)
	assert.Equal(t, 2, outcome.Invalid[1].Record.RowIndex)
	assert.Equal(t, "name", outcome.Invalid[1].Errors[0].Field)
}

func TestValidateSurfacesUnparseableMarkers(t *testing.T) {
	v := NewRecordValidator()

	outcome := v.Validate([]models.TransformedRecord{
		rec(0, map[string]interface{}{
			"name":  "Acme",
			"email": "a@acme.test",
			"since": models.Unparseable,
		}),
	}, "customers")

	require.Len(t, outcome.Invalid, 1)
	require.Len(t, outcome.Invalid[0].Errors, 1)
	assert.Equal(t, "since", outcome.Invalid[0].Errors[0].Field)
	assert.Equal(t, "value could not be parsed", outcome.Invalid[0].Errors[0].Message)
}

func TestValidateInvoices(t *testing.T) {
	v := NewRecordValidator()

	records := []models.TransformedRecord{
		rec(0, map[string]interface{}{"invoice_number": "INV-1", "amount": 120.0}),
		rec(1, map[string]interface{}{"invoice_number": "INV-2"}),
		rec(2, map[string]interface{}{"invoice_number": "INV-3", "amount": -5.0}),
		rec(3, map[string]interface{}{"amount": 10.0}),
	}

	outcome := v.Validate(records, "invoices")
	require.Len(t, outcome.Valid, 1)
	require.Len(t, outcome.Invalid, 3)
}

func TestValidateUnknownEntityFallsBackToGeneric(t *testing.T) {
	v := NewRecordValidator()

	outcome := v.Validate([]models.TransformedRecord{
		rec(0, map[string]interface{}{"anything": "value"}),
		rec(1, map[string]interface{}{"empty": "   "}),
	}, "equipment")

	assert.Len(t, outcome.Valid, 1)
	assert.Len(t, outcome.Invalid, 1)
}

func TestRegisterOverridesRules(t *testing.T) {
	v := NewRecordValidator()
	v.Register("customers", func(fields map[string]interface{}) []models.FieldError {
		return nil // accept everything
	})

	outcome := v.Validate([]models.TransformedRecord{
		rec(0, map[string]interface{}{}),
	}, "customers")
	assert.Len(t, outcome.Valid, 1)
}

func TestDefaultAbortPolicy(t *testing.T) {
	policy := DefaultAbortPolicy(0.10, 0)

	assert.False(t, policy(0.10, 100), "exactly at threshold must not abort")
	assert.True(t, policy(0.101, 100), "strictly above threshold aborts")
	assert.False(t, policy(0.0, 100))

	// a minimum-count floor suppresses the breaker for tiny submissions
	floored := DefaultAbortPolicy(0.10, 50)
	assert.False(t, floored(1.0, 10))
	assert.True(t, floored(0.5, 50))
}

func TestInvalidRatioEmpty(t *testing.T) {
	var outcome models.ValidationOutcome
	assert.Zero(t, outcome.InvalidRatio())
}
