// Package inmem provides an in-memory runlog.Store for tests and local
// development. Not durable; never select it for a production deployment.
package inmem

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/poking-agents/flock-public/runlog"
)

// Store implements runlog.Store in memory.
type Store struct {
	mu      sync.Mutex
	nextSeq map[string]int64
	events  map[string][]*runlog.Event
}

// New returns a new in-memory run log store.
func New() *Store {
	return &Store{
		nextSeq: make(map[string]int64),
		events:  make(map[string][]*runlog.Event),
	}
}

// Compile-time assertion that Store satisfies runlog.Store.
var _ runlog.Store = (*Store)(nil)

// Append implements runlog.Store.
func (s *Store) Append(_ context.Context, e *runlog.Event) error {
	if e == nil {
		return fmt.Errorf("runlog/inmem: event is required")
	}
	if e.StateID == "" {
		return fmt.Errorf("runlog/inmem: state_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq[e.StateID] + 1
	s.nextSeq[e.StateID] = seq

	e.ID = strconv.FormatInt(seq, 10)
	ev := *e
	s.events[e.StateID] = append(s.events[e.StateID], &ev)
	return nil
}

// List implements runlog.Store.
func (s *Store) List(_ context.Context, stateID string, cursor string, limit int) (runlog.Page, error) {
	if stateID == "" {
		return runlog.Page{}, fmt.Errorf("runlog/inmem: state_id is required")
	}
	if limit <= 0 {
		return runlog.Page{}, fmt.Errorf("runlog/inmem: limit must be > 0")
	}

	var after int64
	if cursor != "" {
		id, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return runlog.Page{}, fmt.Errorf("runlog/inmem: invalid cursor %q: %w", cursor, err)
		}
		after = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.events[stateID]
	if len(all) == 0 {
		return runlog.Page{}, nil
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

	events := append([]*runlog.Event(nil), all[start:end]...)
	var next string
	if end < len(all) {
		next = events[len(events)-1].ID
	}

	return runlog.Page{Events: events, NextCursor: next}, nil
}
