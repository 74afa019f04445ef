package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscope/internal/adapter/storage"
	"trendscope/internal/domain/trend"
)

func testPipeline() (*Pipeline, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewPipeline(store, zerolog.Nop()), store
}

func TestIngestIdempotent(t *testing.T) {
	pipeline, _ := testPipeline()
	ctx := context.Background()

	batch := []RawObservation{
		{Keyword: "yoga mat", Platform: "amazon", Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), SearchVolume: 1200, CompetitionIndex: 0.6},
		{Keyword: "yoga mat", Platform: "etsy", Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), SearchVolume: 300, CompetitionIndex: 0.3},
		{Keyword: "cat bed", Platform: "amazon", Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), SearchVolume: 800, CompetitionIndex: 0.5},
	}

	first, err := pipeline.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Accepted)
	assert.Zero(t, first.DuplicatesOverwritten)
	assert.Empty(t, first.Rejected)

	second, err := pipeline.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Accepted)
	assert.Equal(t, 3, second.DuplicatesOverwritten)
	assert.Empty(t, second.Rejected)
}

func TestIngestNormalizes(t *testing.T) {
	pipeline, store := testPipeline()
	ctx := context.Background()

	report, err := pipeline.Ingest(ctx, []RawObservation{
		{Keyword: "  Wireless   Earbuds ", Platform: "Amazon.com", Timestamp: time.Date(2026, 3, 1, 23, 45, 0, 0, time.UTC), SearchVolume: 500, CompetitionIndex: 0.4},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Accepted)

	stored, err := store.Query(ctx, trend.Query{})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	assert.Equal(t, "wireless earbuds", stored[0].Keyword)
	assert.Equal(t, trend.PlatformAmazon, stored[0].Platform)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), stored[0].ObservedAt)
}

func TestIngestRejectsBadRowsWithoutAborting(t *testing.T) {
	pipeline, store := testPipeline()
	ctx := context.Background()

	report, err := pipeline.Ingest(ctx, []RawObservation{
		{Keyword: "yoga mat", Platform: "amazon", Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), SearchVolume: 100, CompetitionIndex: 0.5},
		{Keyword: "mystery", Platform: "myspace", Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), SearchVolume: 100, CompetitionIndex: 0.5},
		{Keyword: "cat bed", Platform: "etsy", Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), SearchVolume: 100, CompetitionIndex: 1.5},
		{Keyword: "dog bowl", Platform: "walmart", Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), SearchVolume: 100, CompetitionIndex: 0.5},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Accepted)
	require.Len(t, report.Rejected, 2)

	// Rejection indexes refer to the caller's batch, not the filtered one.
	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.Equal(t, "mystery", report.Rejected[0].Keyword)
	assert.Equal(t, 2, report.Rejected[1].Index)
	assert.Equal(t, "cat bed", report.Rejected[1].Keyword)

	stored, err := store.Query(ctx, trend.Query{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestIngestSameDayCollapses(t *testing.T) {
	pipeline, store := testPipeline()
	ctx := context.Background()

	// Two readings for the same keyword, platform, and day: last one wins.
	report, err := pipeline.Ingest(ctx, []RawObservation{
		{Keyword: "yoga mat", Platform: "amazon", Timestamp: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), SearchVolume: 100, CompetitionIndex: 0.5},
		{Keyword: "yoga mat", Platform: "amazon", Timestamp: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), SearchVolume: 250, CompetitionIndex: 0.5},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 1, report.DuplicatesOverwritten)

	stored, err := store.Query(ctx, trend.Query{Keyword: "yoga mat"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 250, stored[0].SearchVolume)
}

func TestIngestEmptyBatch(t *testing.T) {
	pipeline, _ := testPipeline()

	report, err := pipeline.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Accepted)
	assert.Empty(t, report.Rejected)
}
