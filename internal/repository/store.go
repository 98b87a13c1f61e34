package repository

import (
	"context"

	"github.com/nurpe/eforms/internal/model"
)

// Store persists the whole collection of payment orders. LoadAll returns the
// records in stored order; SaveAll replaces the collection.
type Store interface {
	LoadAll(ctx context.Context) ([]model.PaymentOrder, error)
	SaveAll(ctx context.Context, records []model.PaymentOrder) error
}
