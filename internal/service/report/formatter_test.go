package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscope/internal/domain/trend"
)

func sampleInputs(asOf time.Time) Inputs {
	return Inputs{
		AsOf: asOf,
		Analyses: []trend.Analysis{
			{Keyword: "yoga mat", Platform: trend.PlatformAmazon, Direction: trend.DirectionRising, Velocity: 0.3, CurrentVolume: 1200},
			{Keyword: "cat bed", Platform: trend.PlatformEtsy, Direction: trend.DirectionBreakout, Velocity: 0.7, CurrentVolume: 900},
			{Keyword: "fax machine", Platform: trend.PlatformEbay, Direction: trend.DirectionDeclining, Velocity: -0.5},
			{Keyword: "desk mat", Platform: trend.PlatformAmazon, Direction: trend.DirectionStable, Velocity: 0.02},
		},
		Opportunities: []trend.NicheOpportunity{
			{Keyword: "yoga mat", Platform: trend.PlatformAmazon, Score: 0.6, Status: trend.StatusEmerging},
			{Keyword: "cat bed", Platform: trend.PlatformEtsy, Score: 0.8, Status: trend.StatusHot},
			{Keyword: "desk mat", Platform: trend.PlatformAmazon, Score: 0.4, Status: trend.StatusWatch},
		},
		Matches: []KeywordMatch{
			{Keyword: "yoga mat", Platform: trend.PlatformAmazon, PatternName: "q1_peak", Confidence: 0.6, DaysUntilAnchor: 40},
			{Keyword: "cat bed", Platform: trend.PlatformEtsy, PatternName: "q4_holiday", Confidence: 0.9, DaysUntilAnchor: 10},
		},
		Signals: []trend.ArbitrageSignal{
			{Keyword: "cat bed", PlatformA: trend.PlatformAmazon, PlatformB: trend.PlatformEtsy, VolumeRatio: 2.5, CompetitionDelta: 0.4, OpportunityDirection: trend.PlatformEtsy},
		},
		Stats: trend.StoreStats{Observations: 120, Keywords: 4, Platforms: 3},
	}
}

func TestBuildOrdering(t *testing.T) {
	formatter, err := NewFormatter(10)
	require.NoError(t, err)

	asOf := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	r := formatter.Build(sampleInputs(asOf))

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), r.GeneratedFor)

	// Summary covers every label in fixed order, including zero counts.
	require.Len(t, r.Summary, len(trend.DirectionLabels))
	for i, label := range trend.DirectionLabels {
		assert.Equal(t, label, r.Summary[i].Direction)
	}
	assert.Equal(t, 1, r.Summary[0].Count) // breakout
	assert.Equal(t, 0, r.Summary[4].Count) // new

	// Opportunities ranked by score.
	require.Len(t, r.TopOpportunities, 3)
	assert.Equal(t, "cat bed", r.TopOpportunities[0].Keyword)
	assert.Equal(t, "desk mat", r.TopOpportunities[2].Keyword)

	// Rising includes breakouts, fastest first.
	require.Len(t, r.Rising, 2)
	assert.Equal(t, "cat bed", r.Rising[0].Keyword)
	assert.Equal(t, "yoga mat", r.Rising[1].Keyword)

	require.Len(t, r.Declining, 1)
	assert.Equal(t, "fax machine", r.Declining[0].Keyword)

	require.Len(t, r.SeasonalMatches, 2)
	assert.Equal(t, "cat bed", r.SeasonalMatches[0].Keyword)
}

func TestBuildTruncatesToTopN(t *testing.T) {
	formatter, err := NewFormatter(1)
	require.NoError(t, err)

	r := formatter.Build(sampleInputs(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))

	require.Len(t, r.TopOpportunities, 1)
	assert.Equal(t, "cat bed", r.TopOpportunities[0].Keyword)
	assert.Len(t, r.Rising, 1)
	assert.Len(t, r.Declining, 1)
}

func TestBuildDeterministic(t *testing.T) {
	formatter, err := NewFormatter(10)
	require.NoError(t, err)

	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	in := sampleInputs(asOf)

	// Same data delivered in a different order must yield the same report.
	shuffled := sampleInputs(asOf)
	shuffled.Analyses[0], shuffled.Analyses[2] = shuffled.Analyses[2], shuffled.Analyses[0]
	shuffled.Opportunities[0], shuffled.Opportunities[1] = shuffled.Opportunities[1], shuffled.Opportunities[0]
	shuffled.Matches[0], shuffled.Matches[1] = shuffled.Matches[1], shuffled.Matches[0]

	first := formatter.Build(in)
	second := formatter.Build(shuffled)

	assert.Equal(t, first.TopOpportunities, second.TopOpportunities)
	assert.Equal(t, first.Rising, second.Rising)
	assert.Equal(t, first.Declining, second.Declining)
	assert.Equal(t, first.SeasonalMatches, second.SeasonalMatches)
	assert.Equal(t, first.Summary, second.Summary)

	assert.Equal(t, RenderText(first), RenderText(second))
}

func TestBuildDoesNotMutateInputs(t *testing.T) {
	formatter, err := NewFormatter(10)
	require.NoError(t, err)

	in := sampleInputs(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	original := in.Opportunities[0]

	formatter.Build(in)

	assert.Equal(t, original, in.Opportunities[0])
}

func TestRenderTextSections(t *testing.T) {
	formatter, err := NewFormatter(10)
	require.NoError(t, err)

	r := formatter.Build(sampleInputs(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	text := RenderText(r)

	assert.Contains(t, text, "Marketplace Trend Report - 2026-03-15")
	assert.Contains(t, text, "Top opportunities:")
	assert.Contains(t, text, "cat bed [etsy] score=0.80 status=hot")
	assert.Contains(t, text, "Arbitrage signals:")
	assert.Contains(t, text, "undervalued_on=etsy")
	assert.Contains(t, text, "Tracked: 4 keywords, 120 observations, 3 platforms")
}

func TestNewFormatterValidation(t *testing.T) {
	_, err := NewFormatter(0)
	require.Error(t, err)

	var confErr *trend.ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}
