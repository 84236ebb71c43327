package store

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleBackend stores records in a Pebble database under "<collection>/<key>".
// Writes are synced.
type PebbleBackend struct {
	db *pebble.DB
}

func NewPebbleBackend(dir string) (*PebbleBackend, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleBackend{db: db}, nil
}

func pebbleKey(collection, key string) []byte {
	return []byte(collection + "/" + key)
}

func (p *PebbleBackend) Load(collection string) (map[string][]byte, error) {
	prefix := collection + "/"
	// '0' sorts right after '/'
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(collection + "0"),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()

	out := make(map[string][]byte)
	for it.First(); it.Valid(); it.Next() {
		k := string(it.Key())[len(prefix):]
		out[k] = append([]byte(nil), it.Value()...)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter %s: %w", collection, err)
	}
	return out, nil
}

// Get reads one record without scanning the collection.
func (p *PebbleBackend) Get(collection, key string) ([]byte, bool, error) {
	v, closer, err := p.db.Get(pebbleKey(collection, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

func (p *PebbleBackend) Put(collection string, records map[string][]byte) error {
	b := p.db.NewBatch()
	defer b.Close()
	for k, v := range records {
		if err := b.Set(pebbleKey(collection, k), v, nil); err != nil {
			return fmt.Errorf("pebble set: %w", err)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebble commit: %w", err)
	}
	return nil
}

func (p *PebbleBackend) Delete(collection, key string) error {
	if err := p.db.Delete(pebbleKey(collection, key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	return nil
}

func (p *PebbleBackend) Close() error { return p.db.Close() }
