// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Entry is one taxonomy tag with its translations.
type Entry struct {
	Tag      string            `json:"tag"`
	Names    map[string]string `json:"names"`
	Wikidata map[string]string `json:"wikidata,omitempty"`
	Parents  []string          `json:"parents,omitempty"`
	// Enabled is only meaningful for allergens: the user watches this one.
	Enabled bool `json:"enabled,omitempty"`
}

// Name returns the translation for lang, falling back to DefaultLanguage.
func (e Entry) Name(lang string) (string, bool) {
	if n, ok := e.Names[lang]; ok && n != "" {
		return n, true
	}
	if n, ok := e.Names[DefaultLanguage]; ok && n != "" {
		return n, true
	}
	return "", false
}

// AllergenName is a display row for an allergen.
type AllergenName struct {
	Tag     string `json:"tag"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Store keeps taxonomies in badger:
//   - tax:<kind>:<tag> -> Entry (JSON)
//   - meta:<kind>      -> last sync (RFC 3339)
//   - invalid:<code>   -> empty marker
type Store struct {
	db *badger.DB
}

var ErrNotFound = errors.New("taxonomy entry not found")

// Open opens the store at path. An empty path or inMemory keeps everything in memory.
func Open(path string, inMemory bool) (*Store, error) {
	var opts badger.Options
	if inMemory || path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create taxonomy dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open taxonomy store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func entryPrefix(kind Kind) []byte { return []byte("tax:" + string(kind) + ":") }
func entryKey(kind Kind, tag string) []byte {
	return []byte("tax:" + string(kind) + ":" + tag)
}
func metaKey(kind Kind) []byte      { return []byte("meta:" + string(kind)) }
func invalidKey(code string) []byte { return []byte("invalid:" + code) }

// Replace swaps the stored entries of kind for entries. Allergen enabled flags
// survive the swap.
func (s *Store) Replace(ctx context.Context, kind Kind, entries []Entry) error {
	keep := map[string]bool{}
	if kind == KindAllergens {
		old, err := s.Entries(ctx, kind)
		if err != nil {
			return err
		}
		for _, e := range old {
			if e.Enabled {
				keep[e.Tag] = true
			}
		}
	}

	if err := s.dropPrefix(entryPrefix(kind)); err != nil {
		return fmt.Errorf("clear %s: %w", kind, err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if keep[e.Tag] {
			e.Enabled = true
		}
		buf, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := wb.Set(entryKey(kind, e.Tag), buf); err != nil {
			return fmt.Errorf("write %s: %w", kind, err)
		}
	}
	return wb.Flush()
}

// SaveAllergens stores the allergen taxonomy.
func (s *Store) SaveAllergens(ctx context.Context, entries []Entry) error {
	return s.Replace(ctx, KindAllergens, entries)
}

func (s *Store) dropPrefix(prefix []byte) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Get returns one entry.
func (s *Store) Get(_ context.Context, kind Kind, tag string) (Entry, error) {
	var out Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(kind, tag))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	return out, err
}

// Entries returns every entry of kind ordered by tag.
func (s *Store) Entries(_ context.Context, kind Kind) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryPrefix(kind)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Count returns the number of stored entries of kind.
func (s *Store) Count(_ context.Context, kind Kind) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = entryPrefix(kind)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Name resolves tag to a display name in lang with fallback to English.
// Unknown tags report false.
func (s *Store) Name(ctx context.Context, kind Kind, tag, lang string) (string, bool) {
	e, err := s.Get(ctx, kind, tag)
	if err != nil {
		return "", false
	}
	return e.Name(lang)
}

// SetAllergenEnabled toggles whether the user watches an allergen.
func (s *Store) SetAllergenEnabled(_ context.Context, tag string, enabled bool) error {
	key := entryKey(KindAllergens, tag)
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var e Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		}); err != nil {
			return err
		}
		e.Enabled = enabled
		buf, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return txn.Set(key, buf)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// EnabledAllergens returns the tags the user watches.
func (s *Store) EnabledAllergens(ctx context.Context) ([]string, error) {
	all, err := s.Entries(ctx, KindAllergens)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range all {
		if e.Enabled {
			out = append(out, e.Tag)
		}
	}
	return out, nil
}

// AllergenNames lists allergens with the given enabled flag that have a name
// in lang, sorted by name.
func (s *Store) AllergenNames(ctx context.Context, enabled bool, lang string) ([]AllergenName, error) {
	return s.allergenNames(ctx, lang, func(e Entry) bool { return e.Enabled == enabled })
}

// AllergensByLanguage lists every allergen that has a name in lang.
func (s *Store) AllergensByLanguage(ctx context.Context, lang string) ([]AllergenName, error) {
	return s.allergenNames(ctx, lang, func(Entry) bool { return true })
}

func (s *Store) allergenNames(ctx context.Context, lang string, keep func(Entry) bool) ([]AllergenName, error) {
	all, err := s.Entries(ctx, KindAllergens)
	if err != nil {
		return nil, err
	}
	var out []AllergenName
	for _, e := range all {
		name, ok := e.Names[lang]
		if !ok || name == "" || !keep(e) {
			continue
		}
		out = append(out, AllergenName{Tag: e.Tag, Name: name, Enabled: e.Enabled})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// ReplaceInvalidBarcodes swaps the stored invalid barcode markers.
func (s *Store) ReplaceInvalidBarcodes(ctx context.Context, codes []string) error {
	if err := s.dropPrefix([]byte("invalid:")); err != nil {
		return fmt.Errorf("clear invalid barcodes: %w", err)
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, c := range codes {
		if err := ctx.Err(); err != nil {
			return err
		}
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if err := wb.Set(invalidKey(c), nil); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// IsInvalidBarcode reports whether code is listed as a known bad barcode.
func (s *Store) IsInvalidBarcode(_ context.Context, code string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(invalidKey(code))
		return err
	})
	return err == nil
}

// LastSync returns when kind was last synchronised, zero if never.
func (s *Store) LastSync(_ context.Context, kind Kind) (time.Time, error) {
	var t time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(kind))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var perr error
			t, perr = time.Parse(time.RFC3339, string(val))
			return perr
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, nil
	}
	return t, err
}

// MarkSynced records the sync time of kind.
func (s *Store) MarkSynced(_ context.Context, kind Kind, at time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(kind), []byte(at.UTC().Format(time.RFC3339)))
	})
}
