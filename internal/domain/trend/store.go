// internal/domain/trend/store.go

package trend

import (
	"context"
)

// Store is the durable repository of keyword observations. It is the only
// mutable shared resource in the system: the ingestion pipeline writes it,
// every analyzer reads it. All derived entities are pure functions of its
// contents at query time.
type Store interface {
	// PutBatch upserts a batch of observations keyed by
	// (keyword, platform, day). Invalid rows are rejected individually and
	// reported in the result; valid rows land atomically per batch.
	PutBatch(ctx context.Context, observations []Observation) (BatchResult, error)

	// Query returns observations matching the criteria, ordered by
	// keyword, platform, then observation date.
	Query(ctx context.Context, q Query) ([]Observation, error)

	// Stats summarizes the stored observation set.
	Stats(ctx context.Context) (StoreStats, error)
}
