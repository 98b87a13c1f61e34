package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/eforms/internal/model"
)

func sampleOrder(id int64) model.PaymentOrder {
	created := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	return model.PaymentOrder{
		ID:                 id,
		Reference:          "REF-12345678-20240110-1",
		PayerName:          "SC DEMO SRL",
		PayerCUI:           "12345678",
		BeneficiaryName:    "ANAF",
		BeneficiaryCUI:     "12345679",
		BeneficiaryAccount: "RO49AAAA1B31007593840000",
		PaymentDate:        "2024-01-10",
		PaymentPurpose:     "taxe",
		Currency:           "RON",
		BaseAmount:         decimal.RequireFromString("5000"),
		VATRate:            decimal.RequireFromString("19"),
		TaxRate:            decimal.RequireFromString("5"),
		VATAmount:          decimal.RequireFromString("950"),
		TaxAmount:          decimal.RequireFromString("250"),
		TotalAmount:        decimal.RequireFromString("6200"),
		Status:             model.StatusPending,
		Files:              []model.Attachment{{Filename: "1-a.pdf", OriginalName: "a.pdf", Size: 12}},
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "forms-data.json"))

	records, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "forms-data.json")
	store := NewFileStore(path)
	ctx := context.Background()

	want := []model.PaymentOrder{sampleOrder(1), sampleOrder(2)}
	require.NoError(t, store.SaveAll(ctx, want))

	got, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.True(t, want[0].TotalAmount.Equal(got[0].TotalAmount))
	assert.True(t, want[0].CreatedAt.Equal(got[0].CreatedAt))
	assert.Equal(t, want[0].Files, got[0].Files)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_ReadsLegacyNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms-data.json")
	legacy := `[{"id":1,"reference":"REF-DEMO-001","payerName":"SC DEMO SRL","totalAmount":6200.00,
		"currency":"RON","status":"pending","createdAt":"2024-01-05T10:00:00.000Z","updatedAt":"2024-01-05T10:00:00.000Z"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	records, err := NewFileStore(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "6200.00", records[0].TotalAmount.StringFixed(2))
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), records[0].CreatedAt.UTC())
}

func TestFileStore_ReadsLegacyEmptyRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms-data.json")
	legacy := `[
		{"id":1,"reference":"REF-1","baseAmount":"5000","vatRate":"","taxRate":"  ","totalAmount":"5000.00","status":"pending"},
		{"id":2,"reference":"REF-2","baseAmount":100,"vatRate":null,"totalAmount":100,"status":"approved"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	records, err := NewFileStore(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].VATRate.IsZero())
	assert.True(t, records[0].TaxRate.IsZero())
	assert.Equal(t, "5000", records[0].BaseAmount.String())
	assert.Equal(t, "REF-1", records[0].Reference)
	assert.True(t, records[1].VATRate.IsZero())
	assert.True(t, records[1].TaxAmount.IsZero())
	assert.Equal(t, model.StatusApproved, records[1].Status)
}

func TestFileStore_RejectsNonNumericAmount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms-data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":3,"baseAmount":"abc"}]`), 0o644))

	_, err := NewFileStore(path).LoadAll(context.Background())
	assert.ErrorContains(t, err, "baseAmount of 3")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms-data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).LoadAll(context.Background())
	assert.Error(t, err)
}

func TestFileStore_SaveFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewFileStore(filepath.Join(blocker, "forms-data.json"))
	err := store.SaveAll(context.Background(), []model.PaymentOrder{sampleOrder(1)})
	assert.Error(t, err)
}

func TestPaymentOrderRow_Mapping(t *testing.T) {
	order := sampleOrder(7)

	row, err := fromModel(order)
	require.NoError(t, err)
	assert.Equal(t, "payment_orders", row.TableName())
	assert.JSONEq(t, `[{"filename":"1-a.pdf","originalname":"a.pdf","size":12}]`, row.Files)

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, order, back)
}

func TestStaleIDs(t *testing.T) {
	assert.Equal(t, []int64{2, 5}, staleIDs([]int64{1, 2, 3, 5}, []int64{3, 1, 9}))
	assert.Empty(t, staleIDs([]int64{1, 2}, []int64{1, 2}))
	assert.Empty(t, staleIDs(nil, []int64{1}))
}

func TestChunkIDs(t *testing.T) {
	ids := make([]int64, 2500)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	chunks := chunkIDs(ids, deleteChunkSize)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
	assert.Equal(t, int64(2500), chunks[2][499])

	assert.Empty(t, chunkIDs(nil, deleteChunkSize))
	assert.Len(t, chunkIDs(ids[:1000], deleteChunkSize), 1)
}
