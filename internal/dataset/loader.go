package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Loader produces a fresh Dataset from its source.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Fingerprinter is implemented by loaders that can cheaply tell whether
// their source changed since the last load. An empty fingerprint means unknown.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// FileLoader reads a dataset from the local filesystem.
type FileLoader struct {
	Path    string
	Options Options
}

// Load reads and decodes the file.
func (l FileLoader) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := Decode(l.Path, data, l.Options)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(l.Path), err)
	}
	ds.Source = l.Path
	return ds, nil
}

// Fingerprint combines path, size and modification time.
func (l FileLoader) Fingerprint(ctx context.Context) (string, error) {
	fi, err := os.Stat(l.Path)
	if err != nil {
		return "", fmt.Errorf("stat dataset: %w", err)
	}
	abs, err := filepath.Abs(l.Path)
	if err != nil {
		abs = l.Path
	}
	return fmt.Sprintf("file:%s:%d:%d", abs, fi.Size(), fi.ModTime().UTC().UnixNano()), nil
}

// Static serves a dataset that is already in memory. Useful for tests and
// for re-running the pipeline on a snapshot.
type Static struct {
	Data *Dataset
}

// Load returns the wrapped dataset.
func (s Static) Load(ctx context.Context) (*Dataset, error) {
	if s.Data == nil {
		return &Dataset{Source: "static", LoadedAt: time.Now().UTC()}, nil
	}
	return s.Data, nil
}
