package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/eforms/internal/validation"
)

func TestValidateJSON(t *testing.T) {
	v := validation.New(validation.Options{Profile: validation.ProfileIngest})

	errs, err := validateJSON(strings.NewReader(`{
		"payerName": "SC DEMO SRL", "payerCUI": "12345678",
		"beneficiaryName": "ANAF", "beneficiaryCUI": "12345679",
		"beneficiaryAccount": "RO49AAAA1B31007593840000",
		"baseAmount": 5000, "vatRate": 19, "taxRate": 5,
		"paymentDate": "2024-01-10", "paymentPurpose": "taxe"
	}`), v)
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = validateJSON(strings.NewReader(`{"payerCUI": "x", "baseAmount": 0}`), v)
	require.NoError(t, err)
	assert.True(t, errs.Has("payerCUI"))
	assert.True(t, errs.Has("baseAmount"))
	assert.True(t, errs.Has("payerName"))

	_, err = validateJSON(strings.NewReader(`[1,2]`), v)
	assert.Error(t, err)
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"seed", "report", "validate"})
}
