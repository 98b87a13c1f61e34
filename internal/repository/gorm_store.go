package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/eforms/internal/model"
)

type paymentOrderRow struct {
	ID                 int64 `gorm:"primaryKey;autoIncrement:false"`
	Reference          string
	PaymentReference   string
	PayerName          string
	PayerCUI           string `gorm:"column:payer_cui"`
	PayerAddress       string
	PayerPhone         string
	BeneficiaryName    string
	BeneficiaryCUI     string `gorm:"column:beneficiary_cui"`
	BeneficiaryAddress string
	BeneficiaryAccount string
	PaymentDate        string
	PaymentPurpose     string
	Currency           string
	BaseAmount         decimal.Decimal
	VATRate            decimal.Decimal `gorm:"column:vat_rate"`
	TaxRate            decimal.Decimal
	VATAmount          decimal.Decimal `gorm:"column:vat_amount"`
	TaxAmount          decimal.Decimal
	TotalAmount        decimal.Decimal
	Status             string
	Notes              string
	Files              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (paymentOrderRow) TableName() string {
	return "payment_orders"
}

// GormStore keeps payment orders in the payment_orders table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) LoadAll(ctx context.Context) ([]model.PaymentOrder, error) {
	var rows []paymentOrderRow
	if err := s.db.WithContext(ctx).Raw(`
		SELECT *
		FROM payment_orders
		ORDER BY created_at ASC, id ASC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]model.PaymentOrder, 0, len(rows))
	for _, row := range rows {
		record, err := row.toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

const deleteChunkSize = 1000

// SaveAll upserts every record and removes rows that are no longer present,
// inside one transaction. Stale ids are found by diffing against the table
// and deleted in chunks to stay under the bind parameter limit.
func (s *GormStore) SaveAll(ctx context.Context, records []model.PaymentOrder) error {
	rows := make([]paymentOrderRow, 0, len(records))
	keep := make([]int64, 0, len(records))
	for _, record := range records {
		row, err := fromModel(record)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		keep = append(keep, record.ID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(keep) == 0 {
			return tx.Exec(`DELETE FROM payment_orders`).Error
		}

		var existing []int64
		if err := tx.Model(&paymentOrderRow{}).Pluck("id", &existing).Error; err != nil {
			return err
		}
		for _, chunk := range chunkIDs(staleIDs(existing, keep), deleteChunkSize) {
			if err := tx.Exec(`DELETE FROM payment_orders WHERE id IN ?`, chunk).Error; err != nil {
				return err
			}
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 200).Error
	})
}

// staleIDs returns the ids in existing that are missing from keep.
func staleIDs(existing, keep []int64) []int64 {
	wanted := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		wanted[id] = struct{}{}
	}
	stale := make([]int64, 0)
	for _, id := range existing {
		if _, ok := wanted[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}

func chunkIDs(ids []int64, size int) [][]int64 {
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func fromModel(o model.PaymentOrder) (paymentOrderRow, error) {
	files := o.Files
	if files == nil {
		files = []model.Attachment{}
	}
	encoded, err := json.Marshal(files)
	if err != nil {
		return paymentOrderRow{}, fmt.Errorf("encode files of %d: %w", o.ID, err)
	}
	return paymentOrderRow{
		ID:                 o.ID,
		Reference:          o.Reference,
		PaymentReference:   o.PaymentReference,
		PayerName:          o.PayerName,
		PayerCUI:           o.PayerCUI,
		PayerAddress:       o.PayerAddress,
		PayerPhone:         o.PayerPhone,
		BeneficiaryName:    o.BeneficiaryName,
		BeneficiaryCUI:     o.BeneficiaryCUI,
		BeneficiaryAddress: o.BeneficiaryAddress,
		BeneficiaryAccount: o.BeneficiaryAccount,
		PaymentDate:        o.PaymentDate,
		PaymentPurpose:     o.PaymentPurpose,
		Currency:           o.Currency,
		BaseAmount:         o.BaseAmount,
		VATRate:            o.VATRate,
		TaxRate:            o.TaxRate,
		VATAmount:          o.VATAmount,
		TaxAmount:          o.TaxAmount,
		TotalAmount:        o.TotalAmount,
		Status:             string(o.Status),
		Notes:              o.Notes,
		Files:              string(encoded),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}, nil
}

func (r paymentOrderRow) toModel() (model.PaymentOrder, error) {
	files := []model.Attachment{}
	if r.Files != "" {
		if err := json.Unmarshal([]byte(r.Files), &files); err != nil {
			return model.PaymentOrder{}, fmt.Errorf("decode files of %d: %w", r.ID, err)
		}
	}
	return model.PaymentOrder{
		ID:                 r.ID,
		Reference:          r.Reference,
		PaymentReference:   r.PaymentReference,
		PayerName:          r.PayerName,
		PayerCUI:           r.PayerCUI,
		PayerAddress:       r.PayerAddress,
		PayerPhone:         r.PayerPhone,
		BeneficiaryName:    r.BeneficiaryName,
		BeneficiaryCUI:     r.BeneficiaryCUI,
		BeneficiaryAddress: r.BeneficiaryAddress,
		BeneficiaryAccount: r.BeneficiaryAccount,
		PaymentDate:        r.PaymentDate,
		PaymentPurpose:     r.PaymentPurpose,
		Currency:           r.Currency,
		BaseAmount:         r.BaseAmount,
		VATRate:            r.VATRate,
		TaxRate:            r.TaxRate,
		VATAmount:          r.VATAmount,
		TaxAmount:          r.TaxAmount,
		TotalAmount:        r.TotalAmount,
		Status:             model.Status(r.Status),
		Notes:              r.Notes,
		Files:              files,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}, nil
}
