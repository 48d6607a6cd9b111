package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const metaSuffix = ".meta.json"

// FileStore keeps every artifact as a plain file under
// <dir>/<namespace>/<stage>/<name>. Entries with a ttl get a sidecar metadata
// file recording their expiry.
type FileStore struct {
	dir string
	now func() time.Time
}

// entryMeta is the sidecar of an expiring entry.
type entryMeta struct {
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Size      int       `json:"size"`
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Dir returns the root directory of the store.
func (fs *FileStore) Dir() string {
	return fs.dir
}

func (fs *FileStore) path(key Key) string {
	return filepath.Join(fs.dir, key.Namespace, string(key.Stage), key.Name)
}

func (fs *FileStore) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := fs.path(key)

	if !fs.isFresh(path) {
		return nil, ErrMiss
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return data, nil
}

// isFresh reports whether the entry at path has not outlived its ttl. Entries
// without a sidecar never expire.
func (fs *FileStore) isFresh(path string) bool {
	meta, err := readMeta(path + metaSuffix)
	if err != nil {
		return true
	}
	return fs.now().Before(meta.ExpiresAt)
}

func readMeta(path string) (*entryMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var meta entryMeta
	if err := json.NewDecoder(file).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode cache metadata: %w", err)
	}
	return &meta, nil
}

func (fs *FileStore) Put(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := fs.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory for %s: %w", key, err)
	}

	if ttl > 0 {
		now := fs.now()
		meta, err := json.MarshalIndent(entryMeta{StoredAt: now, ExpiresAt: now.Add(ttl), Size: len(value)}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode cache metadata: %w", err)
		}
		if err := writeAtomic(path+metaSuffix, meta); err != nil {
			return err
		}
	} else if err := os.Remove(path + metaSuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale metadata for %s: %w", key, err)
	}

	if err := writeAtomic(path, value); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"key":  key.String(),
		"size": len(value),
		"ttl":  ttl,
	}).Debug("Saved cache entry")
	return nil
}

// writeAtomic writes data next to path and renames it into place so readers
// never observe a partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func (fs *FileStore) Delete(ctx context.Context, key Key) error {
	path := fs.path(key)
	for _, p := range []string{path, path + metaSuffix} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
		}
	}
	return nil
}

func (fs *FileStore) Purge(ctx context.Context, namespace string, stage Stage) (int, error) {
	if namespace == "" {
		return 0, errors.New("namespace must not be empty")
	}
	root := filepath.Join(fs.dir, namespace)
	if stage != "" {
		root = filepath.Join(root, string(stage))
	}

	removed := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && !strings.HasSuffix(path, metaSuffix) {
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := os.RemoveAll(root); err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", root, err)
	}
	logrus.WithFields(logrus.Fields{
		"namespace": namespace,
		"stage":     stage,
		"removed":   removed,
	}).Info("Purged cache entries")
	return removed, nil
}

func (fs *FileStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Location: fs.dir, ByStage: make(map[Stage]int64)}

	err := filepath.Walk(fs.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Continue walking despite errors
		}
		if info.IsDir() || strings.HasSuffix(path, metaSuffix) || strings.HasPrefix(info.Name(), ".tmp-") {
			return nil
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		stats.ByStage[Stage(filepath.Base(filepath.Dir(path)))]++
		if !fs.isFresh(path) {
			stats.Expired++
		}
		return nil
	})
	return stats, err
}

// Clear removes the whole cache directory.
func (fs *FileStore) Clear() error {
	if err := os.RemoveAll(fs.dir); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	logrus.WithField("dir", fs.dir).Info("Cleared cache")
	return os.MkdirAll(fs.dir, 0755)
}

func (fs *FileStore) Close() error {
	return nil
}
