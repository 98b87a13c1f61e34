package orderxml

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/eforms/internal/model"
)

func TestMarshal(t *testing.T) {
	order := model.PaymentOrder{
		ID:                 1704879000000,
		Reference:          "REF-12345678-20240110-42",
		PayerName:          "SC DEMO & FIUL SRL",
		PayerCUI:           "12345678",
		BeneficiaryName:    "ANAF",
		BeneficiaryCUI:     "12345679",
		BeneficiaryAccount: "RO49AAAA1B31007593840000",
		PaymentDate:        "2024-01-10",
		PaymentPurpose:     model.PurposeTaxes,
		BaseAmount:         decimal.RequireFromString("5000"),
		VATRate:            decimal.RequireFromString("19"),
		TaxRate:            decimal.RequireFromString("5"),
		VATAmount:          decimal.RequireFromString("950"),
		TaxAmount:          decimal.RequireFromString("250"),
		TotalAmount:        decimal.RequireFromString("6200"),
		Status:             model.StatusPending,
		Files:              []model.Attachment{{Filename: "1-ordin.pdf", OriginalName: "ordin.pdf", Size: 10}},
	}
	generated := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)

	out, err := Marshal(order, generated)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "<?xml"))
	assert.Contains(t, text, `<OrdinPlata versiune="1.0" generat="2024-01-11T08:00:00Z">`)
	assert.Contains(t, text, "SC DEMO &amp; FIUL SRL")
	assert.Contains(t, text, `<Sume moneda="RON">`)
	assert.Contains(t, text, "<Total>6200.00</Total>")
	assert.NotContains(t, text, "<Observatii>")

	var doc Document
	require.NoError(t, xml.Unmarshal(out, &doc))
	assert.Equal(t, order.Reference, doc.Referinta)
	assert.Equal(t, "950.00", doc.Sume.TVA)
	assert.Equal(t, []string{"ordin.pdf"}, doc.Atasamente)
	assert.Equal(t, "RO49AAAA1B31007593840000", doc.Beneficiar.IBAN)
}
