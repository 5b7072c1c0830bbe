// Package prefs persists the scanner preferences a user toggles at the station.
package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ManuGH/foodscan/internal/camera"
)

// Prefs are the scanner toggles.
type Prefs struct {
	Beep      bool          `json:"beep"`
	Flash     bool          `json:"flash"`
	AutoFocus bool          `json:"autofocus"`
	Facing    camera.Facing `json:"-"`
}

// Settings returns the camera part of the preferences.
func (p Prefs) Settings() camera.Settings {
	return camera.Settings{Facing: p.Facing, Flash: p.Flash, AutoFocus: p.AutoFocus}
}

const (
	keyBeep      = "beep"
	keyFlash     = "flash"
	keyAutoFocus = "autofocus"
	keyFacing    = "facing"
)

// Store keeps preferences as key/value rows.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns the stored preferences; keys never saved keep their value from defaults.
func (s *Store) Load(ctx context.Context, defaults Prefs) (Prefs, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM scanner_prefs`)
	if err != nil {
		return defaults, fmt.Errorf("prefs load: %w", err)
	}
	defer func() { _ = rows.Close() }()

	p := defaults
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return defaults, fmt.Errorf("prefs load: %w", err)
		}
		switch key {
		case keyBeep:
			p.Beep = parseBool(value, p.Beep)
		case keyFlash:
			p.Flash = parseBool(value, p.Flash)
		case keyAutoFocus:
			p.AutoFocus = parseBool(value, p.AutoFocus)
		case keyFacing:
			if f, err := camera.ParseFacing(value); err == nil {
				p.Facing = f
			}
		}
	}
	return p, rows.Err()
}

// Save stores every preference.
func (s *Store) Save(ctx context.Context, p Prefs) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("prefs save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range map[string]string{
		keyBeep:      strconv.FormatBool(p.Beep),
		keyFlash:     strconv.FormatBool(p.Flash),
		keyAutoFocus: strconv.FormatBool(p.AutoFocus),
		keyFacing:    p.Facing.String(),
	} {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO scanner_prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("prefs save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
