// Package storage persists small string-valued key/value state between runs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"
)

// Storage is a string key/value store.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(keys ...string) error
}

// FileStorage keeps all keys in a single YAML file. Every write rewrites the
// file through a temp file and rename.
type FileStorage struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// Open loads path if it exists. A missing file yields an empty store.
func Open(path string) (*FileStorage, error) {
	fs := &FileStorage{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}
	if err := yaml.Unmarshal(data, &fs.values); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if fs.values == nil {
		fs.values = map[string]string{}
	}
	return fs, nil
}

// Path returns the backing file.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *FileStorage) Remove(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.flush()
}

// Keys returns the stored keys in sorted order.
func (f *FileStorage) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.values)
}

func (f *FileStorage) flush() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*")
	if err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

// Memory is an in-process Storage.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns a Memory seeded with values.
func NewMemory(values map[string]string) *Memory {
	m := &Memory{values: map[string]string{}}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Snapshot returns a copy of the stored values.
func (m *Memory) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
