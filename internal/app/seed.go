package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/repository"
	"github.com/nurpe/eforms/internal/validation"
)

// DemoRecords returns the two sample payment orders used for a fresh install.
func DemoRecords(now time.Time) []model.PaymentOrder {
	now = now.UTC()
	first := validation.ComputeAmounts(decimal.NewFromInt(5000), decimal.NewFromInt(19), decimal.NewFromInt(5))
	second := validation.ComputeAmounts(decimal.NewFromInt(2500), decimal.NewFromInt(19), decimal.Zero)

	return []model.PaymentOrder{
		{
			ID:                 1,
			Reference:          "REF-DEMO-001",
			PayerName:          "SC DEMO SRL",
			PayerCUI:           "12345678",
			BeneficiaryName:    "ANAF",
			BeneficiaryCUI:     "12345679",
			BeneficiaryAccount: "RO49AAAA1B31007593840000",
			PaymentDate:        now.Format("2006-01-02"),
			PaymentPurpose:     model.PurposeTaxes,
			Currency:           model.DefaultCurrency,
			BaseAmount:         decimal.NewFromInt(5000),
			VATRate:            decimal.NewFromInt(19),
			TaxRate:            decimal.NewFromInt(5),
			VATAmount:          first.VAT,
			TaxAmount:          first.Tax,
			TotalAmount:        first.Total,
			Status:             model.StatusPending,
			Files:              []model.Attachment{},
			CreatedAt:          now,
			UpdatedAt:          now,
		},
		{
			ID:                 2,
			Reference:          "REF-DEMO-002",
			PayerName:          "SC EXEMPLU SA",
			PayerCUI:           "87654321",
			BeneficiaryName:    "Primăria Sector 1",
			BeneficiaryCUI:     "87654322",
			BeneficiaryAccount: "RO09BCYP0000001234567890",
			PaymentDate:        now.Add(-24 * time.Hour).Format("2006-01-02"),
			PaymentPurpose:     model.PurposeServices,
			Currency:           model.DefaultCurrency,
			BaseAmount:         decimal.NewFromInt(2500),
			VATRate:            decimal.NewFromInt(19),
			TaxRate:            decimal.Zero,
			VATAmount:          second.VAT,
			TaxAmount:          second.Tax,
			TotalAmount:        second.Total,
			Status:             model.StatusApproved,
			Files:              []model.Attachment{},
			CreatedAt:          now.Add(-24 * time.Hour),
			UpdatedAt:          now.Add(-time.Hour),
		},
	}
}

// Seed writes the demo records into an empty store. With force it replaces
// existing content. It reports whether anything was written.
func Seed(ctx context.Context, store repository.Store, now time.Time, force bool) (bool, error) {
	existing, err := store.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 && !force {
		return false, nil
	}
	if err := store.SaveAll(ctx, DemoRecords(now)); err != nil {
		return false, err
	}
	return true, nil
}
