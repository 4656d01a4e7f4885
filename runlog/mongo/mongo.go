// Package mongo is a durable, document-database runlog.Store backend,
// adapted from the teacher's Mongo-backed run event log
// (features/runlog/mongo) onto the v2 MongoDB driver and this engine's
// per-state Event shape instead of the teacher's per-run hook-event shape.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/poking-agents/flock-public/runlog"
)

const (
	defaultCollection = "run_log_events"
	defaultTimeout     = 5 * time.Second
)

// Store implements runlog.Store against a MongoDB collection.
type Store struct {
	coll    *mongodriver.Collection
	timeout time.Duration
}

// Options configures New.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

type eventDocument struct {
	ID         bson.ObjectID  `bson:"_id,omitempty"`
	StateID    string         `bson:"state_id"`
	Phase      string         `bson:"phase,omitempty"`
	Message    string         `bson:"message"`
	Attributes map[string]any `bson:"attributes,omitempty"`
	Timestamp  time.Time      `bson:"timestamp"`
}

// New returns a Store backed by opts.Client, creating the supporting index
// on (state_id, _id) if absent.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("runlog/mongo: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("runlog/mongo: database is required")
	}
	collection := opts.Collection
	if collection == "" {
		collection = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	coll := opts.Client.Database(opts.Database).Collection(collection)

	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ictx, mongodriver.IndexModel{
		Keys: bson.D{{Key: "state_id", Value: 1}, {Key: "_id", Value: 1}},
	}, options.Index())
	if err != nil {
		return nil, fmt.Errorf("runlog/mongo: create index: %w", err)
	}

	return &Store{coll: coll, timeout: timeout}, nil
}

// Compile-time assertion that Store satisfies runlog.Store.
var _ runlog.Store = (*Store)(nil)

// Append implements runlog.Store.
func (s *Store) Append(ctx context.Context, e *runlog.Event) error {
	if e == nil || e.StateID == "" {
		return errors.New("runlog/mongo: state_id is required")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := eventDocument{
		StateID:    e.StateID,
		Phase:      e.Phase,
		Message:    e.Message,
		Attributes: e.Attributes,
		Timestamp:  e.Timestamp,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("runlog/mongo: insert: %w", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Errorf("runlog/mongo: unexpected inserted id type %T", res.InsertedID)
	}
	e.ID = oid.Hex()
	return nil
}

// List implements runlog.Store.
func (s *Store) List(ctx context.Context, stateID string, cursor string, limit int) (runlog.Page, error) {
	if stateID == "" {
		return runlog.Page{}, errors.New("runlog/mongo: state_id is required")
	}
	if limit <= 0 {
		return runlog.Page{}, errors.New("runlog/mongo: limit must be > 0")
	}

	filter := bson.M{"state_id": stateID}
	if cursor != "" {
		oid, err := bson.ObjectIDFromHex(cursor)
		if err != nil {
			return runlog.Page{}, fmt.Errorf("runlog/mongo: invalid cursor %q: %w", cursor, err)
		}
		filter["_id"] = bson.M{"$gt": oid}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit) + 1)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return runlog.Page{}, fmt.Errorf("runlog/mongo: find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return runlog.Page{}, fmt.Errorf("runlog/mongo: decode: %w", err)
	}

	var next string
	if len(docs) > limit {
		next = docs[limit-1].ID.Hex()
		docs = docs[:limit]
	}

	events := make([]*runlog.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, &runlog.Event{
			ID:         d.ID.Hex(),
			StateID:    d.StateID,
			Phase:      d.Phase,
			Message:    d.Message,
			Attributes: d.Attributes,
			Timestamp:  d.Timestamp,
		})
	}
	return runlog.Page{Events: events, NextCursor: next}, nil
}
