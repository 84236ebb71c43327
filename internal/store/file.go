package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// FileBackend stores each collection as one JSON object in <dir>/<name>.json.
// Every write reads the current snapshot, applies the change and replaces the
// file through a synced temp file and rename, so a crash leaves either the old
// or the new snapshot.
type FileBackend struct {
	mu        sync.Mutex
	dir       string
	logger    *slog.Logger
	onCorrupt func(collection string)
	now       func() time.Time
}

// FileOption customizes a FileBackend.
type FileOption func(*FileBackend)

// WithCorruptionHook is called after a malformed collection file was moved aside.
func WithCorruptionHook(fn func(collection string)) FileOption {
	return func(f *FileBackend) { f.onCorrupt = fn }
}

// WithFileLogger sets the logger for corruption warnings.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *FileBackend) { f.logger = l }
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string, opts ...FileOption) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f := &FileBackend{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the snapshot file of a collection.
func (f *FileBackend) Path(collection string) string {
	return filepath.Join(f.dir, collection+".json")
}

func (f *FileBackend) Load(collection string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, err := f.read(collection)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out, nil
}

func (f *FileBackend) Put(collection string, records map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, err := f.read(collection)
	if err != nil {
		return err
	}
	for k, v := range records {
		snap[k] = jsoniter.RawMessage(v)
	}
	return f.write(collection, snap)
}

func (f *FileBackend) Delete(collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, err := f.read(collection)
	if err != nil {
		return err
	}
	if _, ok := snap[key]; !ok {
		return nil
	}
	delete(snap, key)
	return f.write(collection, snap)
}

func (f *FileBackend) Close() error { return nil }

// read loads a snapshot. A malformed file is renamed to
// <name>.json.corrupt-<unix> and the collection starts over empty.
func (f *FileBackend) read(collection string) (map[string]jsoniter.RawMessage, error) {
	path := f.Path(collection)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]jsoniter.RawMessage{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	snap := map[string]jsoniter.RawMessage{}
	if len(data) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", path, f.now().Unix())
		if rerr := os.Rename(path, aside); rerr != nil {
			return nil, fmt.Errorf("move corrupt %s aside: %w", path, rerr)
		}
		f.logger.Warn("collection file is corrupt, starting empty",
			"collection", collection, "moved_to", aside, "error", err)
		if f.onCorrupt != nil {
			f.onCorrupt(collection)
		}
		return map[string]jsoniter.RawMessage{}, nil
	}
	return snap, nil
}

func (f *FileBackend) write(collection string, snap map[string]jsoniter.RawMessage) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	path := f.Path(collection)
	tmp, err := os.CreateTemp(f.dir, "."+collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", collection, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	if d, err := os.Open(f.dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
