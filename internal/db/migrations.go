package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_order_status') THEN
			CREATE TYPE payment_order_status AS ENUM ('pending', 'approved', 'rejected', 'processed');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS payment_orders (
		id BIGINT PRIMARY KEY,
		reference VARCHAR(128) NOT NULL,
		payment_reference VARCHAR(128) NOT NULL DEFAULT '',
		payer_name TEXT NOT NULL,
		payer_cui VARCHAR(10) NOT NULL,
		payer_address TEXT NOT NULL DEFAULT '',
		payer_phone VARCHAR(64) NOT NULL DEFAULT '',
		beneficiary_name TEXT NOT NULL,
		beneficiary_cui VARCHAR(10) NOT NULL,
		beneficiary_address TEXT NOT NULL DEFAULT '',
		beneficiary_account VARCHAR(34) NOT NULL,
		payment_date VARCHAR(10) NOT NULL,
		payment_purpose TEXT NOT NULL,
		currency VARCHAR(3) NOT NULL,
		base_amount NUMERIC(18,4) NOT NULL,
		vat_rate NUMERIC(9,4) NOT NULL DEFAULT 0,
		tax_rate NUMERIC(9,4) NOT NULL DEFAULT 0,
		vat_amount NUMERIC(18,2) NOT NULL,
		tax_amount NUMERIC(18,2) NOT NULL,
		total_amount NUMERIC(18,2) NOT NULL,
		status payment_order_status NOT NULL DEFAULT 'pending',
		notes TEXT NOT NULL DEFAULT '',
		files JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_payment_orders_updated CHECK (created_at <= updated_at)
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'payment_orders' AND column_name = 'notes') THEN
			ALTER TABLE payment_orders ADD COLUMN notes TEXT NOT NULL DEFAULT '';
		END IF;
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'payment_orders' AND column_name = 'payment_reference') THEN
			ALTER TABLE payment_orders ADD COLUMN payment_reference VARCHAR(128) NOT NULL DEFAULT '';
		END IF;
	END
	$$;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_payment_orders_reference ON payment_orders (reference);`,
	`CREATE INDEX IF NOT EXISTS idx_payment_orders_created_at ON payment_orders (created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_payment_orders_status ON payment_orders (status);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
