package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusProcessed Status = "processed"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusProcessed}

func ParseStatus(raw string) (Status, bool) {
	for _, s := range Statuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

const (
	PurposeTaxes    = "taxe"
	PurposeFines    = "amenzi"
	PurposeServices = "servicii"
	PurposeOther    = "alte"
)

const DefaultCurrency = "RON"

// Attachment describes an uploaded file stored next to the record.
type Attachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
}

type PaymentOrder struct {
	ID                 int64           `json:"id"`
	Reference          string          `json:"reference"`
	PaymentReference   string          `json:"paymentReference,omitempty"`
	PayerName          string          `json:"payerName"`
	PayerCUI           string          `json:"payerCUI"`
	PayerAddress       string          `json:"payerAddress"`
	PayerPhone         string          `json:"payerPhone"`
	BeneficiaryName    string          `json:"beneficiaryName"`
	BeneficiaryCUI     string          `json:"beneficiaryCUI"`
	BeneficiaryAddress string          `json:"beneficiaryAddress"`
	BeneficiaryAccount string          `json:"beneficiaryAccount"`
	PaymentDate        string          `json:"paymentDate"`
	PaymentPurpose     string          `json:"paymentPurpose"`
	Currency           string          `json:"currency"`
	BaseAmount         decimal.Decimal `json:"baseAmount"`
	VATRate            decimal.Decimal `json:"vatRate"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	VATAmount          decimal.Decimal `json:"vatAmount"`
	TaxAmount          decimal.Decimal `json:"taxAmount"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Status             Status          `json:"status"`
	Notes              string          `json:"notes,omitempty"`
	Files              []Attachment    `json:"files"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// UnmarshalJSON accepts amounts and rates written as numbers, numeric strings,
// empty strings or null. Empty values decode as zero.
func (o *PaymentOrder) UnmarshalJSON(data []byte) error {
	type alias PaymentOrder
	aux := struct {
		*alias
		BaseAmount  json.RawMessage `json:"baseAmount"`
		VATRate     json.RawMessage `json:"vatRate"`
		TaxRate     json.RawMessage `json:"taxRate"`
		VATAmount   json.RawMessage `json:"vatAmount"`
		TaxAmount   json.RawMessage `json:"taxAmount"`
		TotalAmount json.RawMessage `json:"totalAmount"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *decimal.Decimal
	}{
		{"baseAmount", aux.BaseAmount, &o.BaseAmount},
		{"vatRate", aux.VATRate, &o.VATRate},
		{"taxRate", aux.TaxRate, &o.TaxRate},
		{"vatAmount", aux.VATAmount, &o.VATAmount},
		{"taxAmount", aux.TaxAmount, &o.TaxAmount},
		{"totalAmount", aux.TotalAmount, &o.TotalAmount},
	}
	for _, f := range fields {
		d, err := lenientDecimal(f.raw)
		if err != nil {
			return fmt.Errorf("%s of %d: %w", f.name, o.ID, err)
		}
		*f.dst = d
	}
	return nil
}

func lenientDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, err
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(text)
}
