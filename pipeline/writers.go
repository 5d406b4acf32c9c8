// Package pipeline runs batch extractions and persists their results.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// BlobWriter persists a payload under a key. A second write to the same key
// replaces the first.
type BlobWriter interface {
	Write(ctx context.Context, key string, payload []byte) error
}

// EncodeJSON renders v as 2-space indented JSON with a trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// FSWriter stores blobs as files under a base directory.
type FSWriter struct {
	baseDir string
}

// NewFSWriter creates baseDir if needed.
func NewFSWriter(baseDir string) (*FSWriter, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", baseDir, err)
	}
	if err := ensureDir(abs); err != nil {
		return nil, err
	}
	return &FSWriter{baseDir: abs}, nil
}

// Path returns the file path for key, rejecting keys that escape the base directory.
func (w *FSWriter) Path(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("key is required")
	}
	full := filepath.Join(w.baseDir, key)
	rel, err := filepath.Rel(w.baseDir, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes %s", key, w.baseDir)
	}
	return full, nil
}

// Write replaces the file for key atomically via a temp file and rename.
func (w *FSWriter) Write(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := w.Path(key)
	if err != nil {
		return err
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// MemoryWriter keeps blobs in memory. Useful for tests and dry runs.
type MemoryWriter struct {
	mu    sync.Mutex
	blobs map[string][]byte
	order []string
}

// NewMemoryWriter returns an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{blobs: make(map[string][]byte)}
}

// Write stores a copy of payload under key.
func (w *MemoryWriter) Write(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.blobs == nil {
		w.blobs = make(map[string][]byte)
	}
	if _, ok := w.blobs[key]; !ok {
		w.order = append(w.order, key)
	}
	w.blobs[key] = append([]byte(nil), payload...)
	return nil
}

// Get returns the payload stored under key.
func (w *MemoryWriter) Get(key string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	payload, ok := w.blobs[key]
	return payload, ok
}

// Keys returns stored keys sorted lexically.
func (w *MemoryWriter) Keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]string, 0, len(w.blobs))
	for k := range w.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteOrder returns keys in the order they were first written.
func (w *MemoryWriter) WriteOrder() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
