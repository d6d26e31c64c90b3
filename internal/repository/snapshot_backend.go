package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"virtual-bank/internal/errors"
)

type snapshotFile struct {
	SavedAt     time.Time                  `json:"saved_at"`
	Collections map[string]json.RawMessage `json:"collections"`
}

// SnapshotBackend keeps every collection in memory and mirrors them to a
// single JSON file. A commit writes path+".tmp" and renames it over path, so
// the file always holds either the old or the new state. An empty path keeps
// the data in memory only.
type SnapshotBackend struct {
	path   string
	logger *zap.Logger

	txMu sync.Mutex // one writer at a time
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

func OpenSnapshot(path string, logger *zap.Logger) (*SnapshotBackend, error) {
	b := &SnapshotBackend{
		path:   path,
		logger: logger,
		data:   make(map[string]json.RawMessage),
	}
	if path == "" {
		return b, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.Info("Starting with an empty snapshot", zap.String("path", path))
		return b, nil
	}
	if err != nil {
		return nil, errors.Internal("failed to open snapshot", err)
	}
	defer f.Close()

	var snap snapshotFile
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, errors.ErrCorruptData.WithDetails(path + ": " + err.Error())
	}
	for k, v := range snap.Collections {
		b.data[k] = v
	}
	logger.Info("Snapshot loaded", zap.String("path", path), zap.Int("collections", len(b.data)))
	return b, nil
}

func (b *SnapshotBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (b *SnapshotBackend) Put(_ context.Context, key string, payload []byte) error {
	b.txMu.Lock()
	defer b.txMu.Unlock()
	return b.commit(map[string]json.RawMessage{key: append(json.RawMessage(nil), payload...)})
}

func (b *SnapshotBackend) WithTransaction(ctx context.Context, fn func(Backend) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.txMu.Lock()
	defer b.txMu.Unlock()

	tx := &snapshotTx{parent: b, staged: make(map[string]json.RawMessage)}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.staged) == 0 {
		return nil
	}
	return b.commit(tx.staged)
}

// commit applies staged on top of the current data. Memory is only updated
// once the file write succeeded.
func (b *SnapshotBackend) commit(staged map[string]json.RawMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make(map[string]json.RawMessage, len(b.data)+len(staged))
	for k, v := range b.data {
		next[k] = v
	}
	for k, v := range staged {
		next[k] = v
	}

	if b.path != "" {
		if err := b.write(next); err != nil {
			b.logger.Error("Failed to write snapshot", zap.String("path", b.path), zap.Error(err))
			return errors.Internal("failed to write snapshot", err)
		}
	}
	b.data = next
	return nil
}

func (b *SnapshotBackend) write(collections map[string]json.RawMessage) error {
	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := b.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshotFile{SavedAt: time.Now().UTC(), Collections: collections}); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, b.path)
}

func (b *SnapshotBackend) Ping(context.Context) error {
	return nil
}

func (b *SnapshotBackend) Close() error {
	return nil
}

// snapshotTx reads through to its parent and buffers writes until commit.
type snapshotTx struct {
	parent *SnapshotBackend
	staged map[string]json.RawMessage
}

func (t *snapshotTx) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := t.staged[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return t.parent.Get(ctx, key)
}

func (t *snapshotTx) Put(_ context.Context, key string, payload []byte) error {
	t.staged[key] = append(json.RawMessage(nil), payload...)
	return nil
}

func (t *snapshotTx) WithTransaction(_ context.Context, fn func(Backend) error) error {
	return fn(t)
}

func (t *snapshotTx) Ping(ctx context.Context) error {
	return t.parent.Ping(ctx)
}

func (t *snapshotTx) Close() error {
	return nil
}
