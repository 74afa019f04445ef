package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscope/internal/adapter/storage"
	"trendscope/internal/domain/trend"
	"trendscope/internal/service/report"
)

func testEngine(t *testing.T) (*Engine, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()

	classifier, err := NewClassifier(DefaultClassifierConfig())
	require.NoError(t, err)
	matcher, err := NewMatcher(DefaultPatterns(), DefaultMatcherConfig())
	require.NoError(t, err)
	scorer, err := NewScorer(DefaultScorerConfig())
	require.NoError(t, err)
	detector, err := NewDetector(DefaultDetectorConfig())
	require.NoError(t, err)
	formatter, err := report.NewFormatter(10)
	require.NoError(t, err)

	engine := NewEngine(store, classifier, matcher, scorer, detector, formatter, nil, zerolog.Nop(), EngineConfig{})
	return engine, store
}

func seedSeries(t *testing.T, store trend.Store, keyword string, platform trend.Platform, end time.Time, volumes []int, competition float64) {
	t.Helper()

	batch := make([]trend.Observation, len(volumes))
	for i, v := range volumes {
		batch[i] = trend.Observation{
			Keyword:          keyword,
			Platform:         platform,
			ObservedAt:       trend.Day(end.AddDate(0, 0, i-len(volumes)+1)),
			SearchVolume:     v,
			CompetitionIndex: competition,
		}
	}
	result, err := store.PutBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Empty(t, result.Rejected)
}

func TestAnalyzeKeywordNotFound(t *testing.T) {
	engine, _ := testEngine(t)

	_, err := engine.AnalyzeKeyword(context.Background(), "ghost", "", time.Now().UTC())
	assert.ErrorIs(t, err, trend.ErrNotFound)
}

func TestAnalyzeKeywordAcrossPlatforms(t *testing.T) {
	engine, store := testEngine(t)
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	seedSeries(t, store, "beach towel", trend.PlatformAmazon, asOf, []int{100, 100, 100, 300, 320, 350}, 0.8)
	seedSeries(t, store, "beach towel", trend.PlatformEtsy, asOf, []int{50, 50, 50, 50, 50, 50}, 0.3)

	insights, err := engine.AnalyzeKeyword(context.Background(), "beach towel", "", asOf)
	require.NoError(t, err)
	require.Len(t, insights, 2)

	// Insights follow platform order within the keyword.
	amazon := insights[0]
	etsy := insights[1]
	assert.Equal(t, trend.PlatformAmazon, amazon.Analysis.Platform)
	assert.Equal(t, trend.DirectionBreakout, amazon.Analysis.Direction)
	assert.Equal(t, trend.PlatformEtsy, etsy.Analysis.Platform)
	assert.Equal(t, trend.DirectionStable, etsy.Analysis.Direction)
	assert.NotEmpty(t, amazon.Opportunity.Status)

	// High-volume crowded amazon vs low-volume open etsy diverges.
	require.Len(t, amazon.Arbitrage, 1)
	assert.Equal(t, trend.PlatformEtsy, amazon.Arbitrage[0].OpportunityDirection)
	assert.Empty(t, etsy.Arbitrage)
}

func TestAnalyzeKeywordNormalizesLookup(t *testing.T) {
	engine, store := testEngine(t)
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	// Stored keywords are lowercased with collapsed whitespace at ingest.
	seedSeries(t, store, "beach towel", trend.PlatformAmazon, asOf, []int{100, 100, 100, 160, 170, 180}, 0.5)

	insights, err := engine.AnalyzeKeyword(context.Background(), "Beach  Towel", "", asOf)
	require.NoError(t, err)

	require.Len(t, insights, 1)
	assert.Equal(t, "beach towel", insights[0].Analysis.Keyword)
	assert.Equal(t, trend.DirectionRising, insights[0].Analysis.Direction)
}

func TestAnalyzeKeywordSinglePlatformFilter(t *testing.T) {
	engine, store := testEngine(t)
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	seedSeries(t, store, "beach towel", trend.PlatformAmazon, asOf, []int{100, 100, 100, 160, 170, 180}, 0.5)
	seedSeries(t, store, "beach towel", trend.PlatformEtsy, asOf, []int{50, 50, 50, 50, 50, 50}, 0.3)

	insights, err := engine.AnalyzeKeyword(context.Background(), "beach towel", trend.PlatformAmazon, asOf)
	require.NoError(t, err)

	require.Len(t, insights, 1)
	assert.Equal(t, trend.PlatformAmazon, insights[0].Analysis.Platform)
	assert.Equal(t, trend.DirectionRising, insights[0].Analysis.Direction)
	// A single platform can never produce arbitrage signals.
	assert.Empty(t, insights[0].Arbitrage)
}

func TestBuildReport(t *testing.T) {
	engine, store := testEngine(t)
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	seedSeries(t, store, "beach towel", trend.PlatformAmazon, asOf, []int{100, 100, 100, 300, 320, 350}, 0.8)
	seedSeries(t, store, "beach towel", trend.PlatformEtsy, asOf, []int{50, 50, 50, 50, 50, 50}, 0.3)
	seedSeries(t, store, "fax machine", trend.PlatformEbay, asOf, []int{200, 200, 200, 100, 100, 100}, 0.5)

	r, err := engine.BuildReport(context.Background(), asOf)
	require.NoError(t, err)

	assert.Equal(t, asOf, r.GeneratedFor)

	total := 0
	for _, row := range r.Summary {
		total += row.Count
	}
	assert.Equal(t, 3, total)

	require.NotEmpty(t, r.Rising)
	assert.Equal(t, "beach towel", r.Rising[0].Keyword)
	require.Len(t, r.Declining, 1)
	assert.Equal(t, "fax machine", r.Declining[0].Keyword)

	require.Len(t, r.ArbitrageSignals, 1)
	assert.Equal(t, "beach towel", r.ArbitrageSignals[0].Keyword)

	assert.Equal(t, 18, r.Stats.Observations)
	assert.Equal(t, 2, r.Stats.Keywords)
	assert.Equal(t, 3, r.Stats.Platforms)
}

func TestBuildReportEmptyStore(t *testing.T) {
	engine, _ := testEngine(t)

	r, err := engine.BuildReport(context.Background(), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, r.Summary, len(trend.DirectionLabels))
	for _, row := range r.Summary {
		assert.Zero(t, row.Count)
	}
	assert.Empty(t, r.TopOpportunities)
}
