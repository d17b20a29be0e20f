// Package repo implements the data persistence layer for domain collections.
// Each collection (publishing queue, tweet drafts, recurring tips, dispatch
// log) is a single JSON document on disk that is the sole source of truth and
// is always rewritten whole; partial or append writes would corrupt the
// format. This file contains the generic named-document store; the
// *_repo.go files layer typed accessors on top of it.
package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrStorage is the sentinel wrapped by every I/O failure the store cannot
// interpret as "document does not exist yet".
var ErrStorage = errors.New("storage failure")

// StorageError carries the collection name alongside the underlying cause.
type StorageError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Collection, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *StorageError) Unwrap() error { return e.Err }

// Is makes every *StorageError match ErrStorage under errors.Is.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Store persists named JSON collections under a base directory. A load of a
// collection whose backing document does not exist yet yields the zero value
// (an empty collection), not an error; every other I/O failure surfaces as a
// *StorageError.
//
// The load-mutate-save cycle used by the services is not atomic on its own,
// so the store also owns one mutex per collection name: callers wrap each
// cycle in WithLock to guarantee a single logical writer per collection at
// any instant. The store is safe for concurrent use.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore returns a Store rooted at dir. The directory itself is created
// lazily on the first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// path returns the backing file for a collection name.
func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// lockFor returns the mutex dedicated to a collection, creating it on first use.
func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// WithLock runs fn while holding the named collection's mutex. All
// load-mutate-save cycles against the same collection are serialized through
// here so concurrent requests cannot lose updates.
func (s *Store) WithLock(name string, fn func() error) error {
	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// Load decodes the named collection into v. A missing document leaves v
// untouched and returns nil, so callers start from their empty collection.
// Permission and other read errors, and malformed JSON, return *StorageError.
func (s *Store) Load(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &StorageError{Collection: name, Op: "load", Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StorageError{Collection: name, Op: "decode", Err: err}
	}
	return nil
}

// Save rewrites the named collection's entire document, creating the parent
// directory first if needed. Documents are written 2-space indented to stay
// hand-editable, matching the layout the dashboards and scripts expect.
func (s *Store) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StorageError{Collection: name, Op: "encode", Err: err}
	}
	p := s.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &StorageError{Collection: name, Op: "save", Err: err}
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return &StorageError{Collection: name, Op: "save", Err: err}
	}
	return nil
}
