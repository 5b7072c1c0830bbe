// Package offline stores products the user captured locally because the
// remote database was unreachable or did not know them.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/log"
)

// TopicProductRefresh carries a barcode (string) whose product data changed
// locally and should be looked up again.
const TopicProductRefresh = "product.refresh"

var ErrNotFound = errors.New("offline product not found")

// Product is a locally saved product.
type Product struct {
	Barcode   string            `json:"barcode" validate:"required,barcode"`
	Name      string            `json:"name,omitempty" validate:"max=256"`
	Brands    string            `json:"brands,omitempty" validate:"max=256"`
	Quantity  string            `json:"quantity,omitempty" validate:"max=64"`
	Language  string            `json:"language,omitempty" validate:"max=16"`
	ImagePath string            `json:"image_path,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DisplayName returns the name, or "" when the user did not enter one.
func (p *Product) DisplayName() string {
	return strings.TrimSpace(p.Name)
}

// Store persists offline products in SQLite.
type Store struct {
	db  *sql.DB
	bus bus.Bus
	now func() time.Time
}

// NewStore wraps db. When b is non-nil, Save and Delete publish
// TopicProductRefresh for the barcode.
func NewStore(db *sql.DB, b bus.Bus) *Store {
	return &Store{db: db, bus: b, now: time.Now}
}

// Get returns the product saved for barcode or ErrNotFound.
func (s *Store) Get(ctx context.Context, barcode string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT barcode, name, brands, quantity, language, image_path, fields_json, updated_at
	FROM offline_products WHERE barcode = ?`, barcode)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("offline get %s: %w", barcode, err)
	}
	return p, nil
}

// Save inserts or replaces the product and stamps UpdatedAt.
func (s *Store) Save(ctx context.Context, p Product) (*Product, error) {
	if strings.TrimSpace(p.Barcode) == "" {
		return nil, fmt.Errorf("offline save: empty barcode")
	}
	p.UpdatedAt = s.now().UTC()
	if p.Fields == nil {
		p.Fields = map[string]string{}
	}
	fields, err := json.Marshal(p.Fields)
	if err != nil {
		return nil, fmt.Errorf("offline save: encode fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO offline_products (barcode, name, brands, quantity, language, image_path, fields_json, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(barcode) DO UPDATE SET
		name = excluded.name,
		brands = excluded.brands,
		quantity = excluded.quantity,
		language = excluded.language,
		image_path = excluded.image_path,
		fields_json = excluded.fields_json,
		updated_at = excluded.updated_at`,
		p.Barcode, p.Name, p.Brands, p.Quantity, p.Language, p.ImagePath, string(fields),
		p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("offline save %s: %w", p.Barcode, err)
	}

	s.notify(ctx, p.Barcode)
	return &p, nil
}

// Delete removes the product. Deleting an unknown barcode returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, barcode string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM offline_products WHERE barcode = ?`, barcode)
	if err != nil {
		return fmt.Errorf("offline delete %s: %w", barcode, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.notify(ctx, barcode)
	return nil
}

// List returns all saved products, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT barcode, name, brands, quantity, language, image_path, fields_json, updated_at
	FROM offline_products ORDER BY updated_at DESC, barcode`)
	if err != nil {
		return nil, fmt.Errorf("offline list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("offline list: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	var fields, updated string
	if err := row.Scan(&p.Barcode, &p.Name, &p.Brands, &p.Quantity, &p.Language, &p.ImagePath, &fields, &updated); err != nil {
		return nil, err
	}
	if fields != "" {
		if err := json.Unmarshal([]byte(fields), &p.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

func (s *Store) notify(ctx context.Context, barcode string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, TopicProductRefresh, barcode); err != nil {
		logger := log.WithComponentFromContext(ctx, "offline")
		logger.Warn().Err(err).Str(log.FieldBarcode, barcode).Msg("product refresh event not delivered")
	}
}
