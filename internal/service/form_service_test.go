package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/validation"
)

type memoryStore struct {
	mu      sync.Mutex
	records []model.PaymentOrder
	loadErr error
	saveErr error
	saves   int
}

func (m *memoryStore) LoadAll(context.Context) ([]model.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]model.PaymentOrder, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memoryStore) SaveAll(_ context.Context, records []model.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append([]model.PaymentOrder(nil), records...)
	m.saves++
	return nil
}

type fakePDF struct {
	reports int
	orders  []string
}

func (f *fakePDF) GenerateReport(model.ReportBundle) ([]byte, error) {
	f.reports++
	return []byte("%PDF-report"), nil
}

func (f *fakePDF) GenerateOrder(order model.PaymentOrder) ([]byte, error) {
	f.orders = append(f.orders, order.Reference)
	return []byte("%PDF-order"), nil
}

type fakeExcel struct{}

func (fakeExcel) Generate(model.ReportBundle) ([]byte, error) {
	return []byte("PK"), nil
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(store *memoryStore, clk *clock) (*FormService, *fakePDF) {
	v := validation.New(validation.Options{
		Profile: validation.ProfileIngest,
		Now:     clk.Now,
		Intn:    func(int) int { return 42 },
	})
	pdf := &fakePDF{}
	svc := NewFormService(store, v, pdf, fakeExcel{}, Options{
		Location:    time.UTC,
		MaxPageSize: 50,
		Now:         clk.Now,
	}, zerolog.Nop())
	return svc, pdf
}

func fields() map[string]string {
	return map[string]string{
		"payerName":          "SC DEMO SRL",
		"payerCUI":           "12345678",
		"beneficiaryName":    "ANAF",
		"beneficiaryCUI":     "12345679",
		"beneficiaryAccount": "RO49 AAAA 1B31 0075 9384 0000",
		"baseAmount":         "5000",
		"vatRate":            "19",
		"taxRate":            "5",
		"paymentDate":        "2024-01-10",
		"paymentPurpose":     "taxe",
	}
}

func TestSubmit_StoresPendingRecord(t *testing.T) {
	store := &memoryStore{}
	clk := &clock{now: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)}
	svc, _ := newTestService(store, clk)

	res, err := svc.Submit(context.Background(), SubmitInput{
		Fields: fields(),
		Files:  []model.Attachment{{Filename: "1704879000000-ordin.pdf", OriginalName: "ordin.pdf", Size: 2048}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1704879000000), res.ID)
	assert.Equal(t, "REF-12345678-20240110-42", res.Reference)

	require.Len(t, store.records, 1)
	stored := store.records[0]
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, "6200.00", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, "RO49AAAA1B31007593840000", stored.BeneficiaryAccount)
	assert.Len(t, stored.Files, 1)
}

func TestSubmit_ValidationErrorsAreNotStored(t *testing.T) {
	store := &memoryStore{}
	svc, _ := newTestService(store, &clock{now: time.Now().UTC()})

	in := fields()
	in["payerCUI"] = "1"
	in["baseAmount"] = "0"

	_, err := svc.Submit(context.Background(), SubmitInput{Fields: in})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("payerCUI"))
	assert.True(t, verrs.Has("baseAmount"))
	assert.Equal(t, 0, store.saves)
}

func TestSubmit_CollisionsGetFreshIdentity(t *testing.T) {
	store := &memoryStore{}
	clk := &clock{now: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)}
	svc, _ := newTestService(store, clk)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitInput{Fields: fields()})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, SubmitInput{Fields: fields()})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Reference, second.Reference)
	assert.Equal(t, first.ID+1, second.ID)
	assert.Len(t, store.records, 2)
}

func TestSubmit_DuplicatePaymentReference(t *testing.T) {
	store := &memoryStore{}
	clk := &clock{now: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)}
	svc, _ := newTestService(store, clk)
	ctx := context.Background()

	in := fields()
	in["paymentReference"] = "OP-2024-001"
	res, err := svc.Submit(ctx, SubmitInput{Fields: in})
	require.NoError(t, err)
	assert.Equal(t, "OP-2024-001", res.Reference)

	clk.Advance(time.Second)
	_, err = svc.Submit(ctx, SubmitInput{Fields: in})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, validation.Errors{{Field: "paymentReference", Reason: validation.ReasonDuplicate}}, verrs)
	assert.Len(t, store.records, 1)
}

func TestSubmit_StoreFailure(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("disk full")}
	svc, _ := newTestService(store, &clock{now: time.Now().UTC()})

	_, err := svc.Submit(context.Background(), SubmitInput{Fields: fields()})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	store.saveErr = nil
	store.loadErr = errors.New("permission denied")
	_, err = svc.GetStatus(context.Background(), "REF-1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestValidateOnly(t *testing.T) {
	store := &memoryStore{}
	svc, _ := newTestService(store, &clock{now: time.Now().UTC()})

	assert.Empty(t, svc.ValidateOnly(fields()))

	in := fields()
	in["beneficiaryAccount"] = "DE89370400440532013000"
	errs := svc.ValidateOnly(in)
	assert.Equal(t, validation.Errors{{Field: "beneficiaryAccount", Reason: validation.ReasonInvalidIBAN}}, errs)
	assert.Equal(t, 0, store.saves)
}

func TestUpdateStatus(t *testing.T) {
	store := &memoryStore{}
	clk := &clock{now: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)}
	svc, _ := newTestService(store, clk)
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{Fields: fields()})
	require.NoError(t, err)

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, res.ID, "archived", "")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, 42, "approved", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("approve", func(t *testing.T) {
		clk.Advance(2 * time.Hour)
		updated, err := svc.UpdateStatus(ctx, res.ID, "approved", "verificat")
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, updated.Status)
		assert.Equal(t, "verificat", updated.Notes)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

		view, err := svc.GetStatus(ctx, res.Reference)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, view.Status)
		require.Len(t, view.Logs, 2)
		assert.Equal(t, "form_submitted", view.Logs[0].Action)
		assert.Equal(t, "status_changed", view.Logs[1].Action)
	})

	t.Run("back to pending", func(t *testing.T) {
		updated, err := svc.UpdateStatus(ctx, res.ID, "pending", "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, updated.Status)
		assert.Equal(t, "verificat", updated.Notes)
	})
}

func TestGetStatus_NotFound(t *testing.T) {
	svc, _ := newTestService(&memoryStore{}, &clock{now: time.Now().UTC()})

	_, err := svc.GetStatus(context.Background(), "REF-MISSING")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetStatus(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func seeded(days ...int) *memoryStore {
	store := &memoryStore{}
	for i, day := range days {
		created := time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC)
		status := model.StatusPending
		if i%2 == 1 {
			status = model.StatusApproved
		}
		store.records = append(store.records, model.PaymentOrder{
			ID:             created.UnixMilli(),
			Reference:      created.Format("REF-20060102"),
			PaymentPurpose: model.PurposeTaxes,
			Currency:       "RON",
			TotalAmount:    decimal.NewFromInt(int64(100 * (i + 1))),
			Status:         status,
			Files:          []model.Attachment{},
			CreatedAt:      created,
			UpdatedAt:      created,
		})
	}
	return store
}

func TestList(t *testing.T) {
	store := seeded(1, 2, 3, 4, 5)
	svc, _ := newTestService(store, &clock{now: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	res, err := svc.List(ctx, ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Forms, 2)
	assert.Equal(t, "REF-20240105", res.Forms[0].Reference)
	assert.Equal(t, "REF-20240104", res.Forms[1].Reference)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 5, Pages: 3}, res.Pagination)

	res, err = svc.List(ctx, ListQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Forms, 1)
	assert.Equal(t, "REF-20240101", res.Forms[0].Reference)

	res, err = svc.List(ctx, ListQuery{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Forms)

	res, err = svc.List(ctx, ListQuery{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.Total)

	res, err = svc.List(ctx, ListQuery{DateFrom: "2024-01-02", DateTo: "2024-01-03"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.Total)

	res, err = svc.List(ctx, ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Pagination.Limit)

	_, err = svc.List(ctx, ListQuery{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.List(ctx, ListQuery{DateFrom: "10/01/2024"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReport(t *testing.T) {
	store := seeded(1, 2, 3)
	svc, pdf := newTestService(store, &clock{now: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	bundle, err := svc.Report(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, bundle.GeneralStats.TotalForms)
	assert.Equal(t, "600.00", bundle.GeneralStats.TotalAmount)

	_, err = svc.Report(ctx, "2025-01-01", "")
	assert.ErrorIs(t, err, ErrNoData)

	file, err := svc.ReportPDF(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "raport-formulare-20240101-20240131.pdf", file.FileName)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, 1, pdf.reports)

	file, err = svc.ReportExcel(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "raport-formulare-20240201.xlsx", file.FileName)
}

func TestOrderExports(t *testing.T) {
	store := seeded(7)
	svc, pdf := newTestService(store, &clock{now: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	file, err := svc.OrderPDF(ctx, "REF-20240107")
	require.NoError(t, err)
	assert.Equal(t, "Ordin_Plata_REF-20240107.pdf", file.FileName)
	assert.Equal(t, []string{"REF-20240107"}, pdf.orders)

	file, err = svc.OrderXML(ctx, "REF-20240107")
	require.NoError(t, err)
	assert.Equal(t, "Ordin_Plata_REF-20240107.xml", file.FileName)
	assert.Contains(t, string(file.Content), "<Referinta>REF-20240107</Referinta>")

	_, err = svc.OrderPDF(ctx, "REF-NONE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "REF-1-2", sanitizeFileName("REF/1 2"))
	assert.Equal(t, "abc_1", sanitizeFileName("..abc_1.."))
}
