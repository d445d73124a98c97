package db

import (
	"context"
	"database/sql"
)

// Schema is the subset of the hosted POS database the sync service writes
// to. The hosted store owns it; EnsureSchema exists for local development
// and integration tests.
const Schema = `
create table if not exists pos_customers (
    id         text primary key,
    name       text not null,
    phone      text,
    email      text,
    gstin      text,
    created_at timestamptz
);

create table if not exists pos_sales (
    id          text primary key,
    customer_id text,
    lines       jsonb not null default '[]',
    subtotal    numeric(12,2),
    gst_amount  numeric(12,2),
    total       numeric(12,2),
    created_at  timestamptz
);

create table if not exists pos_bills (
    id          text primary key,
    sale_id     text,
    bill_number text,
    customer_id text,
    total       numeric(12,2),
    created_at  timestamptz
);

create table if not exists pos_payments (
    id         text primary key,
    bill_id    text,
    method     text,
    amount     numeric(12,2),
    reference  text,
    created_at timestamptz
);

create table if not exists pos_products (
    id         text primary key,
    name       text,
    barcode    text,
    category   text,
    price      numeric(12,2),
    gst_rate   numeric(5,2),
    stock      integer not null default 0,
    updated_at timestamptz
);
`

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
