// Package docstore implements a small JSON-file-backed document store.
// Each store is a single flat JSON object on disk; values are opaque
// JSON documents. Mutations happen in memory and only reach disk on an
// explicit Save, so a store handle is meant to be opened, used, and
// released within a single operation.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store holds the in-memory contents of one named document store.
type Store struct {
	path string
	data map[string]json.RawMessage
}

// Open loads the named store from dir. A missing file yields an empty
// store (the file is created on first Save); an unreadable or corrupt
// file is an error — callers that can tolerate it decide their own
// fallback.
func Open(dir, name string) (*Store, error) {
	s := &Store{
		path: filepath.Join(dir, name),
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading store file %s: %w", s.path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parsing store file %s: %w", s.path, err)
	}
	return s, nil
}

// Get returns the raw document stored under key, if present.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key in memory. Not durable until Save.
func (s *Store) Set(key string, value json.RawMessage) {
	s.data[key] = value
}

// Delete removes key from the store. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	delete(s.data, key)
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// Save flushes the store to disk. The file is written to a temp path in
// the same directory and renamed into place so a crash mid-flush never
// leaves a truncated store behind.
func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store contents: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

// Path returns the on-disk location of the store file.
func (s *Store) Path() string {
	return s.path
}
