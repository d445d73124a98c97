package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

const sqliteSchema = `
create table if not exists local_records (
    seq        integer primary key autoincrement,
    collection text    not null,
    id         text    not null,
    type       text    not null default '',
    data       blob    not null,
    created_at integer not null,
    unique (collection, id)
)`

// SqliteMedium keeps every collection in one SQLite file on the till.
type SqliteMedium struct {
	db *sql.DB
}

// OpenSqliteMedium opens (or creates) the queue database at path.
func OpenSqliteMedium(ctx context.Context, path string) (*SqliteMedium, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create queue data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	// un solo escritor
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure queue database: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate queue database: %w", err)
	}

	return &SqliteMedium{db: db}, nil
}

func (m *SqliteMedium) Close() error {
	return m.db.Close()
}

func (m *SqliteMedium) Add(
	ctx context.Context,
	collection string,
	rec domain.StoredRecord,
) error {
	if rec.ID == "" {
		return errors.New("record id is empty")
	}

	// upsert: same id keeps its seq, so a replaced record keeps its place
	q := `
        insert into local_records (collection, id, type, data, created_at)
        values (?, ?, ?, ?, ?)
        on conflict (collection, id) do update
        set type = excluded.type,
            data = excluded.data,
            created_at = excluded.created_at
    `
	_, err := m.db.ExecContext(
		ctx, q,
		collection,
		rec.ID,
		rec.Type,
		[]byte(rec.Data),
		rec.CreatedAt,
	)
	return err
}

func (m *SqliteMedium) ListAll(
	ctx context.Context,
	collection string,
) ([]domain.StoredRecord, error) {
	q := `
        select id, type, data, created_at
        from local_records
        where collection = ?
        order by seq asc
    `
	rows, err := m.db.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StoredRecord
	for rows.Next() {
		var rec domain.StoredRecord
		var data []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.Type,
			&data,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Data = data
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (m *SqliteMedium) DeleteByID(ctx context.Context, collection, id string) error {
	_, err := m.db.ExecContext(ctx,
		`delete from local_records where collection = ? and id = ?`,
		collection, id,
	)
	return err
}

func (m *SqliteMedium) Clear(ctx context.Context, collection string) error {
	_, err := m.db.ExecContext(ctx,
		`delete from local_records where collection = ?`,
		collection,
	)
	return err
}
