// Package store implements the State Store (spec §4.A): load/save of
// per-state JSON documents with size-capped trimming and append-only
// diagnostic snapshots.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/poking-agents/flock-public/state"
)

// ErrNotFound is returned by Load when no document exists for the given id.
var ErrNotFound = errors.New("store: state not found")

// Store is the State Store contract: load and save per-id AgentState
// documents.
type Store interface {
	Load(ctx context.Context, id string) (*state.AgentState, error)
	Save(ctx context.Context, id string, doc *state.AgentState) error
}

// FileStore is the default Store: a flat directory keyed by id, the
// canonical file <id>.json, with snapshots under <id>/snapshots/
// (spec §4.A, §6). Grounded on original_source/src/flock/utils/state.py's
// load/save pair plus the temp-file-then-rename idiom for atomic writes.
type FileStore struct {
	dir string

	mu      sync.Mutex
	idLocks map[string]*sync.Mutex
}

// NewFileStore constructs a FileStore rooted at dir. The directory is
// created lazily on first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, idLocks: make(map[string]*sync.Mutex)}
}

// Compile-time assertion that FileStore satisfies Store.
var _ Store = (*FileStore)(nil)

func (f *FileStore) lockFor(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.idLocks[id]
	if !ok {
		l = &sync.Mutex{}
		f.idLocks[id] = l
	}
	return l
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// Load reads and decodes the document for id. Returns ErrNotFound if absent.
func (f *FileStore) Load(_ context.Context, id string) (*state.AgentState, error) {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("store: read %s: %w", id, err)
	}
	var doc state.AgentState
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return &doc, nil
}

// Save trims doc to its character cap, then writes it atomically: encode to
// a temp file in the same directory, then rename over the canonical path, so
// a crash mid-write never leaves a partially written document (spec §4.A
// "save never partially overwrites").
func (f *FileStore) Save(_ context.Context, id string, doc *state.AgentState) error {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	Trim(doc, doc.TrimmingThreshold())

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", f.dir, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(f.dir, id+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp file for %s: %w", id, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write temp file for %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp file for %s: %w", id, err)
	}
	if err := os.Rename(tmpName, f.path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename temp file for %s: %w", id, err)
	}
	return nil
}

// Snapshot writes a diagnostic, timestamped copy of doc to
// <dir>/<id>/snapshots/state_<ISO8601>.json. Called by the dispatcher's
// save_state handler (spec §4.A "captured whenever a save_state operation is
// dispatched"), never consulted for replay.
func (f *FileStore) Snapshot(_ context.Context, id string, doc *state.AgentState) (string, error) {
	dir := filepath.Join(f.dir, id, "snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store: mkdir snapshots for %s: %w", id, err)
	}
	ts := time.Now().UTC().Format("20060102T150405.000000000Z")
	name := filepath.Join(dir, fmt.Sprintf("state_%s.json", ts))
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("store: encode snapshot for %s: %w", id, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", fmt.Errorf("store: write snapshot for %s: %w", id, err)
	}
	return name, nil
}
