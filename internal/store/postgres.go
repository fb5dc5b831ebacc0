// Package store persists listings in PostgreSQL so the dashboard can read
// from a database instead of a file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/KaramelBytes/rentdash/internal/dataset"
)

const batchSize = 500

// columnsPerRow is the number of bind parameters each listing consumes.
const columnsPerRow = 6

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is empty (set pg_dsn)")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rental_listings (
            id          BIGSERIAL PRIMARY KEY,
            city        TEXT NOT NULL,
            area        DOUBLE PRECISION NOT NULL,
            rooms       INTEGER NOT NULL,
            animal      TEXT NOT NULL,
            rent        DOUBLE PRECISION NOT NULL,
            total       DOUBLE PRECISION NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_rental_listings_city ON rental_listings(city);`,
		`CREATE TABLE IF NOT EXISTS rental_imports (
            id          BIGSERIAL PRIMARY KEY,
            source      TEXT NOT NULL,
            rows_read   INTEGER NOT NULL,
            rows_dropped INTEGER NOT NULL,
            imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ReplaceAll swaps the stored listings for ds in one transaction and records the import.
func (s *Store) ReplaceAll(ctx context.Context, ds *dataset.Dataset) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rental_listings`); err != nil {
		return fmt.Errorf("clear listings: %w", err)
	}
	for i := 0; i < len(ds.Listings); i += batchSize {
		end := i + batchSize
		if end > len(ds.Listings) {
			end = len(ds.Listings)
		}
		query, args := buildInsert(ds.Listings[i:end])
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert batch at %d: %w", i, err)
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO rental_imports (source, rows_read, rows_dropped) VALUES ($1,$2,$3)`,
		ds.Source, ds.Read, ds.Dropped); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// buildInsert renders a multi-row INSERT for batch with positional parameters.
func buildInsert(batch []dataset.Listing) (string, []any) {
	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*columnsPerRow)
	for idx, l := range batch {
		base := idx * columnsPerRow
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, l.City, l.Area, l.Rooms, l.Animal, l.Rent, l.Total)
	}
	query := "INSERT INTO rental_listings (city, area, rooms, animal, rent, total) VALUES " + strings.Join(values, ",")
	return query, args
}

// Loader reads the stored listings as a dataset.Loader.
type Loader struct {
	Store *Store
}

func (l Loader) Load(ctx context.Context) (*dataset.Dataset, error) {
	ds := &dataset.Dataset{Source: "postgres:rental_listings", LoadedAt: time.Now().UTC()}
	rows, err := l.Store.DB.QueryContext(ctx,
		`SELECT city, area, rooms, animal, rent, total FROM rental_listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li dataset.Listing
		if err := rows.Scan(&li.City, &li.Area, &li.Rooms, &li.Animal, &li.Rent, &li.Total); err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		ds.Listings = append(ds.Listings, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate listings: %w", err)
	}
	ds.Read = len(ds.Listings)
	var read, dropped sql.NullInt64
	err = l.Store.DB.QueryRowContext(ctx,
		`SELECT rows_read, rows_dropped FROM rental_imports ORDER BY id DESC LIMIT 1`).Scan(&read, &dropped)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("postgres: fetch import: %w", err)
	default:
		ds.Read, ds.Dropped = int(read.Int64), int(dropped.Int64)
	}
	return ds, nil
}

// Fingerprint identifies the latest import.
func (l Loader) Fingerprint(ctx context.Context) (string, error) {
	var id sql.NullInt64
	var at sql.NullTime
	err := l.Store.DB.QueryRowContext(ctx,
		`SELECT id, imported_at FROM rental_imports ORDER BY id DESC LIMIT 1`).Scan(&id, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return "postgres:empty", nil
	}
	if err != nil {
		return "", fmt.Errorf("postgres: fingerprint: %w", err)
	}
	return fmt.Sprintf("postgres:%d:%d", id.Int64, at.Time.UnixNano()), nil
}
