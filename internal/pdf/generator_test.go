package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/report"
)

func sampleOrders() []model.PaymentOrder {
	base := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	purposes := []string{model.PurposeTaxes, model.PurposeFines, "donatie", model.PurposeTaxes}
	orders := make([]model.PaymentOrder, 0, len(purposes))
	for i, p := range purposes {
		created := base.AddDate(0, 0, i)
		orders = append(orders, model.PaymentOrder{
			ID:                 created.UnixMilli(),
			Reference:          "REF-DEMO-00" + string(rune('1'+i)),
			PayerName:          "SC DEMO ȘTEFĂNEȘTI SRL",
			PayerCUI:           "12345678",
			BeneficiaryName:    "Primăria Sectorului 1",
			BeneficiaryCUI:     "12345679",
			BeneficiaryAccount: "RO49AAAA1B31007593840000",
			PaymentDate:        created.Format("2006-01-02"),
			PaymentPurpose:     p,
			Currency:           "RON",
			BaseAmount:         decimal.NewFromInt(1000),
			VATRate:            decimal.NewFromInt(19),
			TaxRate:            decimal.NewFromInt(5),
			VATAmount:          decimal.NewFromInt(190),
			TaxAmount:          decimal.NewFromInt(50),
			TotalAmount:        decimal.NewFromInt(1240),
			Status:             model.StatusPending,
			Files:              []model.Attachment{{Filename: "1-doc.pdf", OriginalName: "doc.pdf", Size: 100}},
			CreatedAt:          created,
			UpdatedAt:          created,
		})
	}
	return orders
}

func TestNewGenerator_MissingFont(t *testing.T) {
	_, err := NewGenerator("/nonexistent/font.ttf")
	assert.Error(t, err)
}

func TestGenerateReport(t *testing.T) {
	g, err := NewGenerator("")
	require.NoError(t, err)

	bundle, err := report.Aggregate(sampleOrders(), report.Filter{}, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	out, err := g.GenerateReport(*bundle)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Greater(t, len(out), 1000)
}

func TestGenerateOrder(t *testing.T) {
	g, err := NewGenerator("")
	require.NoError(t, err)

	order := sampleOrders()[0]
	order.Notes = "Verificat de operator"
	out, err := g.GenerateOrder(order)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTextFolding(t *testing.T) {
	g := &Generator{fontName: fallbackFont}
	assert.Equal(t, "Taxe si impozite - Platitor", g.text("Taxe și impozite — Plătitor"))

	g.fontData = []byte{1}
	assert.Equal(t, "Plătitor", g.text("Plătitor"))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "-", safeValue("  "))
	assert.Equal(t, "-", formatDate(time.Time{}))
	assert.Equal(t, "05.01.2024", formatDate(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12.50", formatAmount(decimal.RequireFromString("12.5")))
}
