package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotRequest struct {
	Service string `json:"service" validate:"required,catalog_service"`
	Time    string `json:"time" validate:"required,timeslot"`
	Doc     string `json:"doc" validate:"omitempty,document_type"`
}

func TestDomainRules(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(slotRequest{Service: "Teeth Cleaning", Time: "09:00 AM", Doc: "xray"}))

	err := v.Struct(slotRequest{Service: "Braces", Time: "12:30 PM", Doc: "selfie"})
	require.Error(t, err)

	fields := Describe(err)
	require.Len(t, fields, 3)
	assert.Equal(t, "service", fields[0].Field)
	assert.Equal(t, "must be a service from the catalog", fields[0].Message)
	assert.Equal(t, "time", fields[1].Field)
	assert.Equal(t, "doc", fields[2].Field)
	assert.Contains(t, Summary(err), "time must be one of the clinic's time slots")
}

func TestDescribe_NonValidationError(t *testing.T) {
	assert.Nil(t, Describe(assert.AnError))
	assert.Equal(t, assert.AnError.Error(), Summary(assert.AnError))
}
