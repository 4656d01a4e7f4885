// Package redis is a durable, shared runlog.Store for multi-process
// deployments: events for a state are RPUSHed onto a per-state Redis list,
// so any engine process can append and any viewer process can page through
// the same log — mirroring the teacher registry's Redis-backed mapping
// store for cross-node coordination (result_stream.go), applied here to the
// log stream instead of tool-result delivery.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/poking-agents/flock-public/runlog"
)

// Store implements runlog.Store on top of a Redis list per state, keyed
// "runlog:<stateID>".
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// New constructs a Store using client. ttl, if nonzero, is reapplied to the
// state's list key on every append, so a log expires ttl after its last
// append.
func New(client *goredis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Compile-time assertion that Store satisfies runlog.Store.
var _ runlog.Store = (*Store)(nil)

func key(stateID string) string {
	return "runlog:" + stateID
}

type record struct {
	Phase      string         `json:"phase,omitempty"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Append RPUSHes e onto stateID's list, assigning its ID from the resulting
// list length.
func (s *Store) Append(ctx context.Context, e *runlog.Event) error {
	if e == nil || e.StateID == "" {
		return fmt.Errorf("runlog/redis: state_id is required")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(record{
		Phase:      e.Phase,
		Message:    e.Message,
		Attributes: e.Attributes,
		Timestamp:  e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("runlog/redis: encode: %w", err)
	}

	k := key(e.StateID)
	n, err := s.client.RPush(ctx, k, data).Result()
	if err != nil {
		return fmt.Errorf("runlog/redis: rpush %s: %w", k, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, k, s.ttl).Err(); err != nil {
			return fmt.Errorf("runlog/redis: expire %s: %w", k, err)
		}
	}
	e.ID = strconv.FormatInt(n, 10)
	return nil
}

// List returns the next forward page of events for stateID, using the
// 1-based list index as the cursor.
func (s *Store) List(ctx context.Context, stateID string, cursor string, limit int) (runlog.Page, error) {
	if stateID == "" {
		return runlog.Page{}, fmt.Errorf("runlog/redis: state_id is required")
	}
	if limit <= 0 {
		return runlog.Page{}, fmt.Errorf("runlog/redis: limit must be > 0")
	}

	var after int64
	if cursor != "" {
		id, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return runlog.Page{}, fmt.Errorf("runlog/redis: invalid cursor %q: %w", cursor, err)
		}
		after = id
	}

	k := key(stateID)
	total, err := s.client.LLen(ctx, k).Result()
	if err != nil {
		return runlog.Page{}, fmt.Errorf("runlog/redis: llen %s: %w", k, err)
	}
	if after >= total {
		return runlog.Page{}, nil
	}

	end := after + int64(limit)
	if end > total {
		end = total
	}
	raw, err := s.client.LRange(ctx, k, after, end-1).Result()
	if err != nil {
		return runlog.Page{}, fmt.Errorf("runlog/redis: lrange %s: %w", k, err)
	}

	events := make([]*runlog.Event, 0, len(raw))
	for i, item := range raw {
		var rec record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return runlog.Page{}, fmt.Errorf("runlog/redis: decode %s: %w", k, err)
		}
		events = append(events, &runlog.Event{
			ID:         strconv.FormatInt(after+int64(i)+1, 10),
			StateID:    stateID,
			Phase:      rec.Phase,
			Message:    rec.Message,
			Attributes: rec.Attributes,
			Timestamp:  rec.Timestamp,
		})
	}

	var next string
	if end < total {
		next = strconv.FormatInt(end, 10)
	}
	return runlog.Page{Events: events, NextCursor: next}, nil
}
