// Package store persists analysis results as snapshots.
//
// A [Snapshot] records one pipeline run: when it happened, what was
// analyzed, the run statistics and the full metric table. Backends:
//
//   - [FileStore]: one JSON file per snapshot, used by the CLI
//   - [MongoStore]: a "snapshots" collection, for shared deployments
//
// Use [Open] to pick a backend from configuration:
//
//	st, err := store.Open(ctx, store.Config{Kind: store.KindFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	err = st.Save(ctx, store.NewSnapshot(result, "membership.json", "ordered"))
package store

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/contribnet/pkg/centrality"
	cerrors "github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/pipeline"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a stored analysis result.
type Snapshot struct {
	ID           string             `json:"id" bson:"_id"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	Source       string             `json:"source" bson:"source"`
	RelationHash string             `json:"relation_hash" bson:"relation_hash"`
	PairCounting string             `json:"pair_counting" bson:"pair_counting"`
	Stats        pipeline.Stats     `json:"stats" bson:"stats"`
	Summary      centrality.Summary `json:"summary" bson:"summary"`
	Metrics      []centrality.Row   `json:"metrics,omitempty" bson:"metrics,omitempty"`
}

// NewSnapshot captures res. source names the analyzed input for listings.
func NewSnapshot(res *pipeline.Result, source, pairCounting string) *Snapshot {
	id := res.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return &Snapshot{
		ID:           id,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		Source:       source,
		RelationHash: res.RelationHash,
		PairCounting: pairCounting,
		Stats:        res.Stats,
		Summary:      res.Summary,
		Metrics:      res.Metrics.Rows(),
	}
}

// Table rebuilds the metric table.
func (s *Snapshot) Table() *centrality.Table {
	members := make([]string, len(s.Metrics))
	for i, r := range s.Metrics {
		members[i] = r.Member
	}
	t := centrality.NewTable(members)
	for _, r := range s.Metrics {
		t.Set(r.Member, r.Metrics)
	}
	return t
}

// header returns s without its metric rows.
func (s *Snapshot) header() *Snapshot {
	h := *s
	h.Metrics = nil
	return &h
}

// Store is the interface for snapshot backends.
type Store interface {
	// Save stores s, replacing any snapshot with the same ID.
	Save(ctx context.Context, s *Snapshot) error

	// Load returns the snapshot with the given ID, or ErrNotFound.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// List returns all snapshots newest first, without metric rows.
	List(ctx context.Context) ([]*Snapshot, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Kind selects a backend.
type Kind string

const (
	KindFile  Kind = "file"
	KindMongo Kind = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Kind          Kind
	Dir           string
	MongoURI      string
	MongoDatabase string
}

// Open creates the backend named by cfg.Kind (file when empty).
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case "", KindFile:
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindMongo:
		s, err := NewMongoStore(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "unsupported store kind %q (must be file or mongo)", cfg.Kind)
	}
}

// validateID rejects ids that are not UUIDs; file names are derived from them.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "invalid snapshot id %q", id)
	}
	return nil
}

func sortNewestFirst(list []*Snapshot) {
	slices.SortFunc(list, func(a, b *Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
