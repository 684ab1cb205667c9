package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"
)

var (
	ErrSnapshotNotFound = errors.New("menu snapshot not cached")
	ErrMenuUnavailable  = errors.New("menu unavailable")
)

// Aggregator builds a fresh snapshot from the store of record.
type Aggregator interface {
	Aggregate(ctx context.Context, restaurantID uint) (*Snapshot, error)
}

// SnapshotStore persists the last good snapshot per restaurant.
//
// NextGeneration hands out a per-restaurant number that increases with every
// call. Put stores snap only when generation is not older than the generation
// of the snapshot already stored, and reports whether it did.
type SnapshotStore interface {
	NextGeneration(ctx context.Context, restaurantID uint) (int64, error)
	Put(ctx context.Context, restaurantID uint, generation int64, snap *Snapshot) (bool, error)
	Get(ctx context.Context, restaurantID uint) (*Snapshot, error)
}

// Loader serves menu snapshots, falling back to the cached copy when
// aggregation fails. It does not retry.
type Loader struct {
	aggregator Aggregator
	store      SnapshotStore
	group      singleflight.Group
}

func NewLoader(aggregator Aggregator, store SnapshotStore) *Loader {
	return &Loader{aggregator: aggregator, store: store}
}

type loadResult struct {
	snapshot *Snapshot
	source   Source
}

// Load returns a fresh snapshot, or the most recent cached one when
// aggregation fails. ErrMenuUnavailable is returned when neither exists.
// Concurrent loads for the same restaurant share one aggregation.
func (l *Loader) Load(ctx context.Context, restaurantID uint) (*Snapshot, Source, error) {
	key := strconv.FormatUint(uint64(restaurantID), 10)
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		return l.load(ctx, restaurantID)
	})
	if err != nil {
		return nil, "", err
	}
	res := v.(*loadResult)
	return res.snapshot, res.source, nil
}

// Cached returns the last stored snapshot without touching the store of record.
func (l *Loader) Cached(ctx context.Context, restaurantID uint) (*Snapshot, error) {
	return l.store.Get(ctx, restaurantID)
}

// Refresh rebuilds and stores the snapshot after a catalog change. It never
// joins a load that started before the change.
func (l *Loader) Refresh(ctx context.Context, restaurantID uint) (*Snapshot, error) {
	gen, genErr := l.store.NextGeneration(ctx, restaurantID)
	snap, err := l.aggregator.Aggregate(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		slog.Warn("menu snapshot generation unavailable, skipping cache write", "restaurant_id", restaurantID, "error", genErr)
		return snap, nil
	}
	l.save(ctx, restaurantID, gen, snap)
	return snap, nil
}

func (l *Loader) load(ctx context.Context, restaurantID uint) (*loadResult, error) {
	gen, genErr := l.store.NextGeneration(ctx, restaurantID)
	if genErr != nil {
		slog.Warn("menu snapshot generation unavailable", "restaurant_id", restaurantID, "error", genErr)
	}

	snap, err := l.aggregator.Aggregate(ctx, restaurantID)
	if err != nil {
		cached, cacheErr := l.store.Get(ctx, restaurantID)
		if cacheErr == nil {
			slog.Warn("menu aggregation failed, serving cached snapshot", "restaurant_id", restaurantID, "error", err)
			return &loadResult{snapshot: cached, source: SourceCache}, nil
		}
		if !errors.Is(cacheErr, ErrSnapshotNotFound) {
			slog.Error("menu snapshot cache read failed", "restaurant_id", restaurantID, "error", cacheErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrMenuUnavailable, err)
	}

	if genErr == nil {
		l.save(ctx, restaurantID, gen, snap)
	}
	return &loadResult{snapshot: snap, source: SourceNetwork}, nil
}

// save writes the snapshot best-effort; failures are logged only.
func (l *Loader) save(ctx context.Context, restaurantID uint, gen int64, snap *Snapshot) {
	written, err := l.store.Put(ctx, restaurantID, gen, snap)
	if err != nil {
		slog.Error("menu snapshot cache write failed", "restaurant_id", restaurantID, "error", err)
		return
	}
	if !written {
		slog.Debug("newer menu snapshot already cached", "restaurant_id", restaurantID, "generation", gen)
	}
}
