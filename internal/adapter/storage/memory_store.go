// internal/adapter/storage/memory_store.go

package storage

import (
	"context"
	"sort"
	"sync"

	"trendscope/internal/domain/trend"
)

// MemoryStore implements trend.Store in process memory. Used by tests and
// by standalone deployments without PostgreSQL. Writes serialize on the
// mutex, so a batch is applied atomically: readers observe either the
// pre-ingest or post-ingest state, never a partially written batch.
type MemoryStore struct {
	mu           sync.RWMutex
	observations map[string]trend.Observation
}

// NewMemoryStore creates an empty in-memory observation store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		observations: make(map[string]trend.Observation),
	}
}

func observationKey(o trend.Observation) string {
	return o.Keyword + "\x00" + string(o.Platform) + "\x00" + o.ObservedAt.Format("2006-01-02")
}

// PutBatch upserts observations keyed by (keyword, platform, day). Rows
// failing validation are rejected individually without aborting the batch.
func (s *MemoryStore) PutBatch(ctx context.Context, observations []trend.Observation) (trend.BatchResult, error) {
	var result trend.BatchResult

	valid := make([]trend.Observation, 0, len(observations))
	for i, o := range observations {
		if err := o.Validate(); err != nil {
			result.Rejected = append(result.Rejected, trend.RejectedRow{
				Index:   i,
				Keyword: o.Keyword,
				Reason:  err.Error(),
			})
			continue
		}
		o.ObservedAt = trend.Day(o.ObservedAt)
		valid = append(valid, o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range valid {
		key := observationKey(o)
		if _, exists := s.observations[key]; exists {
			result.DuplicatesOverwritten++
		}
		s.observations[key] = o
		result.Accepted++
	}

	return result, nil
}

// Query returns observations matching the criteria, ordered by keyword,
// platform, then observation date
func (s *MemoryStore) Query(ctx context.Context, q trend.Query) ([]trend.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var observations []trend.Observation
	for _, o := range s.observations {
		if q.Keyword != "" && o.Keyword != q.Keyword {
			continue
		}
		if q.Platform != "" && o.Platform != q.Platform {
			continue
		}
		if !q.From.IsZero() && o.ObservedAt.Before(trend.Day(q.From)) {
			continue
		}
		if !q.To.IsZero() && o.ObservedAt.After(trend.Day(q.To)) {
			continue
		}
		observations = append(observations, o)
	}

	sort.Slice(observations, func(i, j int) bool {
		a, b := observations[i], observations[j]
		if a.Keyword != b.Keyword {
			return a.Keyword < b.Keyword
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.ObservedAt.Before(b.ObservedAt)
	})

	return observations, nil
}

// Stats summarizes the stored observation set
func (s *MemoryStore) Stats(ctx context.Context) (trend.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := trend.StoreStats{Observations: len(s.observations)}

	keywords := map[string]struct{}{}
	platforms := map[trend.Platform]struct{}{}
	for _, o := range s.observations {
		keywords[o.Keyword] = struct{}{}
		platforms[o.Platform] = struct{}{}
		if stats.From.IsZero() || o.ObservedAt.Before(stats.From) {
			stats.From = o.ObservedAt
		}
		if o.ObservedAt.After(stats.To) {
			stats.To = o.ObservedAt
		}
	}

	stats.Keywords = len(keywords)
	stats.Platforms = len(platforms)

	return stats, nil
}
