package db

import (
	"context"
	"database/sql"
)

const checkoutMigration = `
CREATE TABLE IF NOT EXISTS carts (
    id bigserial PRIMARY KEY,
    is_active boolean NOT NULL DEFAULT true,
    reserved_reference text NOT NULL DEFAULT '',
    payment_method text NOT NULL DEFAULT '',
    payment_reference text NOT NULL DEFAULT '',
    grand_total numeric(12,2) NOT NULL DEFAULT 0,
    currency text NOT NULL DEFAULT 'EUR',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cart_items (
    id bigserial PRIMARY KEY,
    cart_id bigint NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    sku text NOT NULL,
    qty integer NOT NULL CHECK (qty > 0),
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS cart_items_cart_id_idx
ON cart_items (cart_id);

CREATE TABLE IF NOT EXISTS orders (
    id bigserial PRIMARY KEY,
    reference text NOT NULL,
    cart_id bigint NOT NULL REFERENCES carts(id),
    payment_method text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT orders_reference_unique UNIQUE (reference)
);

CREATE INDEX IF NOT EXISTS orders_cart_id_idx
ON orders (cart_id, id DESC);

CREATE SEQUENCE IF NOT EXISTS order_reference_seq START 100000001;

CREATE TABLE IF NOT EXISTS payment_methods (
    code text PRIMARY KEY,
    title text NOT NULL,
    enabled boolean NOT NULL DEFAULT true
);
`

func RunCheckoutMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, checkoutMigration)
	return err
}
