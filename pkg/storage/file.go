package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStorage persists the whole key space as one JSON object on disk.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStorage loads path if it exists and creates its directory if missing.
func NewFileStorage(path string) (*FileStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	values := make(map[string]string)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read storage file: %w", err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("decode storage file: %w", err)
		}
	}
	return &FileStorage{path: path, values: values}, nil
}

func (f *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, existed := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if existed {
			f.values[key] = old
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *FileStorage) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.values[key]
	if !ok {
		return nil
	}
	delete(f.values, key)
	if err := f.flush(); err != nil {
		f.values[key] = old
		return err
	}
	return nil
}

func (f *FileStorage) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// flush writes to a temp file in the same directory and renames it over the target.
func (f *FileStorage) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".kitapsever-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}
