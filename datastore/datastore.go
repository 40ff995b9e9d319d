// Package datastore is a small JSON-file backed key/value store. Values live
// in memory and are flushed to disk periodically and on Close, using an
// atomic write plus rotating backups.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned for operations on a closed store.
	ErrClosed = errors.New("datastore is closed")
	// ErrMemoryLimit is returned when a write would exceed MaxMemorySize.
	ErrMemoryLimit = errors.New("datastore memory limit exceeded")
)

// Config holds configuration options for the DataStore.
type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration // <= 0 disables periodic saves
	MaxMemorySize    int64         // approximate bytes, 0 = unlimited
	BackupCount      int           // backups kept next to the file, 0 = none
	Logger           zerolog.Logger
}

// DefaultConfig returns a default configuration.
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		MaxMemorySize:    16 * 1024 * 1024,
		BackupCount:      3,
		Logger:           zerolog.Nop(),
	}
}

// DataStore is safe for concurrent use.
type DataStore struct {
	cfg Config

	mu           sync.RWMutex
	data         map[string]json.RawMessage
	memorySize   int64
	lastChecksum [sha256.Size]byte
	closed       bool

	flushMu sync.Mutex // one writer of the file and its backups at a time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens (or creates) the store described by cfg.
func New(cfg Config) (*DataStore, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("datastore: file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("datastore: create directory: %w", err)
	}

	ds := &DataStore{
		cfg:  cfg,
		data: make(map[string]json.RawMessage),
	}

	switch _, err := os.Stat(cfg.FilePath); {
	case errors.Is(err, os.ErrNotExist):
		if err := ds.writeFileAtomic([]byte("{}")); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("datastore: stat %s: %w", cfg.FilePath, err)
	default:
		if err := ds.load(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ds.cancel = cancel
	if cfg.AutoSaveInterval > 0 {
		ds.wg.Add(1)
		go ds.autoSave(ctx)
	}
	return ds, nil
}

// Put stores value under key as JSON.
func (ds *DataStore) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("datastore: marshal %q: %w", key, err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}

	size := ds.memorySize - int64(len(ds.data[key])) + int64(len(raw))
	if ds.cfg.MaxMemorySize > 0 && size > ds.cfg.MaxMemorySize {
		return ErrMemoryLimit
	}
	ds.memorySize = size
	ds.data[key] = raw
	return nil
}

// Get decodes the value stored under key into out. The boolean reports
// whether the key exists.
func (ds *DataStore) Get(key string, out any) (bool, error) {
	ds.mu.RLock()
	if ds.closed {
		ds.mu.RUnlock()
		return false, ErrClosed
	}
	raw, ok := ds.data[key]
	ds.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("datastore: decode %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key.
func (ds *DataStore) Delete(key string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if raw, ok := ds.data[key]; ok {
		ds.memorySize -= int64(len(raw))
		delete(ds.data, key)
	}
}

// Keys returns all keys in sorted order.
func (ds *DataStore) Keys() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	keys := make([]string, 0, len(ds.data))
	for k := range ds.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save forces an immediate flush to disk.
func (ds *DataStore) Save() error {
	ds.mu.RLock()
	closed := ds.closed
	ds.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return ds.flush()
}

// Close stops the autosave loop and writes the final state.
func (ds *DataStore) Close() error {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil
	}
	ds.closed = true
	ds.mu.Unlock()

	ds.cancel()
	ds.wg.Wait()
	return ds.flush()
}

func (ds *DataStore) flush() error {
	ds.flushMu.Lock()
	defer ds.flushMu.Unlock()

	ds.mu.RLock()
	payload, err := json.MarshalIndent(ds.data, "", "  ")
	ds.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("datastore: marshal: %w", err)
	}

	sum := sha256.Sum256(payload)
	ds.mu.Lock()
	unchanged := sum == ds.lastChecksum
	ds.mu.Unlock()
	if unchanged {
		return nil
	}

	if ds.cfg.BackupCount > 0 {
		if err := ds.backup(); err != nil {
			ds.cfg.Logger.Warn().Err(err).Str("file", ds.cfg.FilePath).Msg("backup failed")
		}
	}
	if err := ds.writeFileAtomic(payload); err != nil {
		return err
	}

	ds.mu.Lock()
	ds.lastChecksum = sum
	ds.mu.Unlock()
	return nil
}

func (ds *DataStore) load() error {
	payload, err := os.ReadFile(ds.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("datastore: read: %w", err)
	}
	data := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("datastore: invalid JSON in %s: %w", ds.cfg.FilePath, err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.data = data
	ds.memorySize = 0
	for _, raw := range data {
		ds.memorySize += int64(len(raw))
	}
	ds.lastChecksum = sha256.Sum256(payload)
	return nil
}

// writeFileAtomic writes to a temp file, syncs it and renames it over the target.
func (ds *DataStore) writeFileAtomic(payload []byte) error {
	tmp := ds.cfg.FilePath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("datastore: open temp file: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: close temp file: %w", err)
	}
	if err := os.Rename(tmp, ds.cfg.FilePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: rename temp file: %w", err)
	}
	return nil
}

func (ds *DataStore) backup() error {
	src, err := os.Open(ds.cfg.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", ds.cfg.FilePath, time.Now().Format("20060102_150405.000000000"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	ds.pruneBackups()
	return nil
}

// pruneBackups keeps the newest BackupCount backups. Backup names sort by
// creation time.
func (ds *DataStore) pruneBackups() {
	matches, err := filepath.Glob(ds.cfg.FilePath + ".backup.*")
	if err != nil || len(matches) <= ds.cfg.BackupCount {
		return
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-ds.cfg.BackupCount] {
		if err := os.Remove(old); err != nil {
			ds.cfg.Logger.Debug().Err(err).Str("file", old).Msg("remove backup")
		}
	}
}

func (ds *DataStore) autoSave(ctx context.Context) {
	defer ds.wg.Done()

	ticker := time.NewTicker(ds.cfg.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ds.flush(); err != nil {
				ds.cfg.Logger.Error().Err(err).Msg("auto-save failed")
			}
		}
	}
}

// Stats returns a summary used by the status endpoint.
func (ds *DataStore) Stats() map[string]any {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return map[string]any{
		"keys":        len(ds.data),
		"memory_size": ds.memorySize,
		"file_path":   ds.cfg.FilePath,
	}
}
