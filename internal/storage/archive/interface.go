// Package archive stores price history snapshots on a local disk or in an
// S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/checksignal/internal/core"
)

// Storage defines the interface for archive storage backends.
// Read of a missing object fails with core.ErrNoData.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// PricePrefix is the directory holding one CSV per symbol.
const PricePrefix = "prices"

// PriceKey returns the archive path of a symbol's price history.
func PriceKey(symbol string) string {
	return path.Join(PricePrefix, strings.ToUpper(symbol)+".csv")
}

// SymbolFromKey is the inverse of PriceKey.
func SymbolFromKey(key string) (string, bool) {
	key = strings.ReplaceAll(key, "\\", "/")
	dir, file := path.Split(key)
	if strings.TrimSuffix(dir, "/") != PricePrefix || !strings.HasSuffix(file, ".csv") {
		return "", false
	}
	return strings.TrimSuffix(file, ".csv"), true
}

// Config selects and configures a backend.
type Config struct {
	Type string // "localfs" or "s3"
	Path string
	S3   S3Config
}

// New creates the configured backend.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		l, err := NewLocalFS(cfg.Path)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "s3":
		s, err := NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", cfg.Type))
	}
}

func notFound(p string) error {
	return core.WrapError(core.ErrNoData, fmt.Errorf("archive object %s not found", p))
}
