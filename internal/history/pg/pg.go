// Package pg stores scan history in Postgres so several stations can share it.
package pg

import (
	"context"
	"fmt"

	"github.com/ManuGH/foodscan/internal/history"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool.
type Config struct {
	URL      string
	MaxConns int32
}

// Store implements history.Store on a pgx pool.
type Store struct {
	Pool *pgxpool.Pool
}

var newPool = pgxpool.NewWithConfig

const schema = `
CREATE TABLE IF NOT EXISTS scan_history (
	barcode         TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	brands          TEXT NOT NULL DEFAULT '',
	quantity        TEXT NOT NULL DEFAULT '',
	image_url       TEXT NOT NULL DEFAULT '',
	nutrition_grade TEXT NOT NULL DEFAULT '',
	nova_group      INTEGER NOT NULL DEFAULT 0,
	ecoscore        TEXT NOT NULL DEFAULT '',
	scan_count      INTEGER NOT NULL DEFAULT 1,
	last_seen       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scan_history_last_seen_idx ON scan_history (last_seen DESC);
`

// Open connects, verifies the connection and creates the schema.
func Open(ctx context.Context, cfg Config, poolCfgMut func(*pgxpool.Config)) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("history pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("history pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history pg: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history pg: schema: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) Upsert(ctx context.Context, e history.Entry) error {
	_, err := s.Pool.Exec(ctx, `
	INSERT INTO scan_history (barcode, title, brands, quantity, image_url, nutrition_grade, nova_group, ecoscore, scan_count, last_seen)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9)
	ON CONFLICT (barcode) DO UPDATE SET
		title = EXCLUDED.title,
		brands = EXCLUDED.brands,
		quantity = EXCLUDED.quantity,
		image_url = EXCLUDED.image_url,
		nutrition_grade = EXCLUDED.nutrition_grade,
		nova_group = EXCLUDED.nova_group,
		ecoscore = EXCLUDED.ecoscore,
		scan_count = scan_history.scan_count + 1,
		last_seen = EXCLUDED.last_seen`,
		e.Barcode, e.Title, e.Brands, e.Quantity, e.ImageURL, e.NutritionGrade, e.NovaGroup, e.Ecoscore, e.LastSeen)
	return err
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]history.Entry, error) {
	query := `SELECT barcode, title, brands, quantity, image_url, nutrition_grade, nova_group, ecoscore, scan_count, last_seen
	FROM scan_history ORDER BY last_seen DESC, barcode`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (history.Entry, error) {
		var e history.Entry
		err := row.Scan(&e.Barcode, &e.Title, &e.Brands, &e.Quantity, &e.ImageURL,
			&e.NutritionGrade, &e.NovaGroup, &e.Ecoscore, &e.ScanCount, &e.LastSeen)
		return e, err
	})
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `TRUNCATE scan_history`)
	return err
}
