package history

import (
	"context"
	"database/sql"
	"time"
)

// SQLiteStore keeps history in the local database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Upsert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO history (barcode, title, brands, quantity, image_url, nutrition_grade, nova_group, ecoscore, scan_count, last_seen)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	ON CONFLICT(barcode) DO UPDATE SET
		title = excluded.title,
		brands = excluded.brands,
		quantity = excluded.quantity,
		image_url = excluded.image_url,
		nutrition_grade = excluded.nutrition_grade,
		nova_group = excluded.nova_group,
		ecoscore = excluded.ecoscore,
		scan_count = history.scan_count + 1,
		last_seen = excluded.last_seen`,
		e.Barcode, e.Title, e.Brands, e.Quantity, e.ImageURL, e.NutritionGrade, e.NovaGroup, e.Ecoscore,
		e.LastSeen.UTC().Format(time.RFC3339Nano))
	return err
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT barcode, title, brands, quantity, image_url, nutrition_grade, nova_group, ecoscore, scan_count, last_seen
	FROM history ORDER BY last_seen DESC, barcode LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var lastSeen string
		if err := rows.Scan(&e.Barcode, &e.Title, &e.Brands, &e.Quantity, &e.ImageURL,
			&e.NutritionGrade, &e.NovaGroup, &e.Ecoscore, &e.ScanCount, &lastSeen); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, lastSeen); err == nil {
			e.LastSeen = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}
