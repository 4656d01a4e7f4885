// Package jsonl is the JSON-lines runlog.Store backend: one append-only
// JSON-lines file per (state, day), matching the engine's general
// file-per-unit persistence idiom (package store's FileStore) without the
// atomic-rename step. A partially written line is not repaired: List fails
// with a decode error for the file that holds it.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poking-agents/flock-public/runlog"
)

// Store appends NDJSON lines under <dir>/<stateID>/<YYYY-MM-DD>.jsonl.
type Store struct {
	dir string

	mu      sync.Mutex
	idLocks map[string]*sync.Mutex
}

// New constructs a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir, idLocks: make(map[string]*sync.Mutex)}
}

// Compile-time assertion that Store satisfies runlog.Store.
var _ runlog.Store = (*Store)(nil)

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.idLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.idLocks[id] = l
	}
	return l
}

type record struct {
	ID         string         `json:"id"`
	StateID    string         `json:"state_id"`
	Phase      string         `json:"phase,omitempty"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Append writes e as one NDJSON line to today's file for e.StateID.
func (s *Store) Append(_ context.Context, e *runlog.Event) error {
	if e == nil || e.StateID == "" {
		return fmt.Errorf("runlog/jsonl: state_id is required")
	}

	lock := s.lockFor(e.StateID)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(s.dir, e.StateID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("runlog/jsonl: mkdir %s: %w", dir, err)
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	path := filepath.Join(dir, ts.Format("2006-01-02")+".jsonl")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("runlog/jsonl: open %s: %w", path, err)
	}
	defer f.Close()

	seq, err := countLines(path)
	if err != nil {
		return err
	}
	e.ID = strconv.FormatInt(seq+1, 10)

	rec := record{
		ID:         e.ID,
		StateID:    e.StateID,
		Phase:      e.Phase,
		Message:    e.Message,
		Attributes: e.Attributes,
		Timestamp:  ts,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("runlog/jsonl: encode: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("runlog/jsonl: write %s: %w", path, err)
	}
	return nil
}

func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("runlog/jsonl: open %s: %w", path, err)
	}
	defer f.Close()

	var n int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// List reads every day-file for stateID in lexical (chronological) order and
// returns the page starting after cursor. Simple and linear — the JSONL
// sink is for SIMULATED-mode local runs, not high-volume production replay.
func (s *Store) List(_ context.Context, stateID string, cursor string, limit int) (runlog.Page, error) {
	if stateID == "" {
		return runlog.Page{}, fmt.Errorf("runlog/jsonl: state_id is required")
	}
	if limit <= 0 {
		return runlog.Page{}, fmt.Errorf("runlog/jsonl: limit must be > 0")
	}

	dir := filepath.Join(s.dir, stateID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return runlog.Page{}, nil
		}
		return runlog.Page{}, fmt.Errorf("runlog/jsonl: read dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var all []*runlog.Event
	for _, path := range files {
		evs, err := readEvents(path)
		if err != nil {
			return runlog.Page{}, err
		}
		all = append(all, evs...)
	}
	if len(all) == 0 {
		return runlog.Page{}, nil
	}

	var after int64
	if cursor != "" {
		id, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return runlog.Page{}, fmt.Errorf("runlog/jsonl: invalid cursor %q: %w", cursor, err)
		}
		after = id
	}

	start := 0
	if after > 0 {
		start = int(after)
		if start >= len(all) {
			return runlog.Page{}, nil
		}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	page := all[start:end]
	var next string
	if end < len(all) {
		next = page[len(page)-1].ID
	}
	return runlog.Page{Events: page, NextCursor: next}, nil
}

func readEvents(path string) ([]*runlog.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("runlog/jsonl: open %s: %w", path, err)
	}
	defer f.Close()

	var evs []*runlog.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		var rec record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("runlog/jsonl: decode %s: %w", path, err)
		}
		evs = append(evs, &runlog.Event{
			ID:         rec.ID,
			StateID:    rec.StateID,
			Phase:      rec.Phase,
			Message:    rec.Message,
			Attributes: rec.Attributes,
			Timestamp:  rec.Timestamp,
		})
	}
	return evs, scanner.Err()
}
