// Package cache persists generated text and audio artifacts between runs.
package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/flytam/filenamify"
)

// ErrMiss is returned by Get when no fresh entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Stage identifies which pipeline step produced an artifact.
type Stage string

const (
	StageSubtopics Stage = "subtopics"
	StageVoice     Stage = "voice"
	StageText      Stage = "text"
	StageSpeech    Stage = "speech"
	StageMarker    Stage = "marker"
)

// Key addresses one artifact. Namespace groups all artifacts of a topic so they
// can be evicted together.
type Key struct {
	Namespace string
	Stage     Stage
	Name      string
}

func (k Key) String() string {
	return k.Namespace + "/" + string(k.Stage) + "/" + k.Name
}

// Part derives the key of the i-th part of a multi-part artifact.
func (k Key) Part(i int) Key {
	k.Name = fmt.Sprintf("%s-%02d", k.Name, i)
	return k
}

// Fingerprint derives a key from the logical inputs of a stage. Identical inputs
// always produce the same key; any differing field produces a different one.
func Fingerprint(stage Stage, topic string, fields ...string) Key {
	h := md5.New()
	io.WriteString(h, string(stage))
	io.WriteString(h, "\x00")
	io.WriteString(h, topic)
	for _, f := range fields {
		io.WriteString(h, "\x00")
		io.WriteString(h, f)
	}
	return Key{
		Namespace: Namespace(topic),
		Stage:     stage,
		Name:      fmt.Sprintf("%x", h.Sum(nil)),
	}
}

// Namespace converts a topic into a file-system safe directory name.
func Namespace(topic string) string {
	name, err := filenamify.Filenamify(strings.TrimSpace(topic), filenamify.Options{Replacement: "_", MaxLength: 100})
	if err != nil || name == "" {
		h := md5.Sum([]byte(topic))
		return fmt.Sprintf("topic-%x", h[:4])
	}
	return name
}

// Stats summarises the contents of a store.
type Stats struct {
	Location   string
	Entries    int64
	TotalBytes int64
	Expired    int64
	ByStage    map[Stage]int64
}

// Store is a key-value store for artifacts. Implementations must be safe for
// concurrent use; writes to a single key are atomic.
type Store interface {
	// Get returns the stored value or ErrMiss if it is absent or stale.
	Get(ctx context.Context, key Key) ([]byte, error)
	// Put stores value. A ttl of zero keeps the entry until it is evicted.
	Put(ctx context.Context, key Key, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key Key) error
	// Purge removes every entry of a namespace, optionally restricted to a stage.
	Purge(ctx context.Context, namespace string, stage Stage) (int, error)
	Stats(ctx context.Context) (Stats, error)
	// Clear removes every entry of every namespace.
	Clear() error
	Close() error
}

// Config selects and configures a store backend.
type Config struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	TextTTL time.Duration `mapstructure:"text_ttl"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates the configured store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
