package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// columnas de pos_products que un update parcial puede tocar
var updatableProductColumns = map[string]bool{
	"stock":    true,
	"name":     true,
	"price":    true,
	"barcode":  true,
	"gst_rate": true,
	"category": true,
}

// PgRemoteStore is the hosted POS database.
type PgRemoteStore struct {
	db *sql.DB
}

func NewPgRemoteStore(db *sql.DB) *PgRemoteStore {
	return &PgRemoteStore{db: db}
}

// Insert maps the payload's keys onto the kind's table columns. Keys with no
// matching column are ignored by jsonb_populate_record.
func (r *PgRemoteStore) Insert(
	ctx context.Context,
	kind domain.EntityKind,
	payload json.RawMessage,
) error {
	table := kind.RemoteTable()
	if table == "" {
		return fmt.Errorf("%w: %s has no remote table", domain.ErrUnknownKind, kind)
	}

	// table comes from the kind whitelist, never from the payload
	q := fmt.Sprintf(`
        insert into %[1]s
        select * from jsonb_populate_record(null::%[1]s, $1::jsonb)
    `, table)
	_, err := r.db.ExecContext(ctx, q, string(payload))
	return err
}

func (r *PgRemoteStore) FetchStock(ctx context.Context, productID string) (int, error) {
	row := r.db.QueryRowContext(ctx,
		`select stock from pos_products where id = $1`,
		productID,
	)
	var stock int
	if err := row.Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
		}
		return 0, err
	}
	return stock, nil
}

func (r *PgRemoteStore) UpdateProduct(
	ctx context.Context,
	productID string,
	update map[string]any,
) error {
	q, args, err := buildProductUpdate(productID, update)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return nil
}

func buildProductUpdate(productID string, update map[string]any) (string, []any, error) {
	if len(update) == 0 {
		return "", nil, fmt.Errorf("%w: empty update", domain.ErrInvalidUpdate)
	}

	cols := make([]string, 0, len(update))
	for col := range update {
		if !updatableProductColumns[col] {
			return "", nil, fmt.Errorf("%w: column %q is not updatable", domain.ErrInvalidUpdate, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	args = append(args, productID)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+2))
		args = append(args, sqlValue(update[col]))
	}
	sets = append(sets, "updated_at = now()")

	q := fmt.Sprintf(`update pos_products set %s where id = $1`, strings.Join(sets, ", "))
	return q, args, nil
}

// sqlValue turns JSON-decoded numbers back into integers when they have no
// fractional part, so integer columns accept them.
func sqlValue(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
