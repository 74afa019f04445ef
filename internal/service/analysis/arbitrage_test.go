package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscope/internal/domain/trend"
)

func TestDetectSinglePlatform(t *testing.T) {
	detector, err := NewDetector(DefaultDetectorConfig())
	require.NoError(t, err)

	signals := detector.Detect("yoga mat", map[trend.Platform]trend.Analysis{
		trend.PlatformAmazon: {Platform: trend.PlatformAmazon, AvgVolume: 1000, MeanCompetition: 0.2},
	})

	assert.Nil(t, signals)
}

func TestDetectRequiresBothThresholds(t *testing.T) {
	detector, err := NewDetector(DefaultDetectorConfig())
	require.NoError(t, err)

	tests := []struct {
		name       string
		amazon     trend.Analysis
		etsy       trend.Analysis
		wantSignal bool
	}{
		{
			name:       "volume diverges but competition does not",
			amazon:     trend.Analysis{Platform: trend.PlatformAmazon, AvgVolume: 1000, MeanCompetition: 0.5},
			etsy:       trend.Analysis{Platform: trend.PlatformEtsy, AvgVolume: 400, MeanCompetition: 0.45},
			wantSignal: false,
		},
		{
			name:       "competition diverges but volume does not",
			amazon:     trend.Analysis{Platform: trend.PlatformAmazon, AvgVolume: 1000, MeanCompetition: 0.8},
			etsy:       trend.Analysis{Platform: trend.PlatformEtsy, AvgVolume: 900, MeanCompetition: 0.2},
			wantSignal: false,
		},
		{
			name:       "both diverge",
			amazon:     trend.Analysis{Platform: trend.PlatformAmazon, AvgVolume: 1000, MeanCompetition: 0.8},
			etsy:       trend.Analysis{Platform: trend.PlatformEtsy, AvgVolume: 400, MeanCompetition: 0.3},
			wantSignal: true,
		},
		{
			name:       "volume ratio threshold is inclusive",
			amazon:     trend.Analysis{Platform: trend.PlatformAmazon, AvgVolume: 800, MeanCompetition: 0.6},
			etsy:       trend.Analysis{Platform: trend.PlatformEtsy, AvgVolume: 400, MeanCompetition: 0.3},
			wantSignal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := detector.Detect("desk lamp", map[trend.Platform]trend.Analysis{
				trend.PlatformAmazon: tt.amazon,
				trend.PlatformEtsy:   tt.etsy,
			})

			if !tt.wantSignal {
				assert.Empty(t, signals)
				return
			}
			require.Len(t, signals, 1)
			assert.Equal(t, "desk lamp", signals[0].Keyword)
		})
	}
}

func TestDetectDirectionAndMetrics(t *testing.T) {
	detector, err := NewDetector(DefaultDetectorConfig())
	require.NoError(t, err)

	signals := detector.Detect("cat bed", map[trend.Platform]trend.Analysis{
		trend.PlatformAmazon: {Platform: trend.PlatformAmazon, AvgVolume: 1000, MeanCompetition: 0.8},
		trend.PlatformEtsy:   {Platform: trend.PlatformEtsy, AvgVolume: 400, MeanCompetition: 0.3},
	})

	require.Len(t, signals, 1)
	s := signals[0]
	assert.Equal(t, trend.PlatformAmazon, s.PlatformA)
	assert.Equal(t, trend.PlatformEtsy, s.PlatformB)
	assert.InDelta(t, 2.5, s.VolumeRatio, 1e-9)
	assert.InDelta(t, 0.5, s.CompetitionDelta, 1e-9)
	assert.Equal(t, trend.PlatformEtsy, s.OpportunityDirection)
}

func TestDetectZeroVolumeFloor(t *testing.T) {
	detector, err := NewDetector(DefaultDetectorConfig())
	require.NoError(t, err)

	// A platform with zero mean volume must not divide by zero.
	signals := detector.Detect("hover mop", map[trend.Platform]trend.Analysis{
		trend.PlatformAmazon: {Platform: trend.PlatformAmazon, AvgVolume: 50, MeanCompetition: 0.9},
		trend.PlatformEbay:   {Platform: trend.PlatformEbay, AvgVolume: 0, MeanCompetition: 0.1},
	})

	require.Len(t, signals, 1)
	assert.InDelta(t, 50.0, signals[0].VolumeRatio, 1e-9)
	assert.Equal(t, trend.PlatformEbay, signals[0].OpportunityDirection)
}

func TestDetectDeterministicPairOrder(t *testing.T) {
	detector, err := NewDetector(DefaultDetectorConfig())
	require.NoError(t, err)

	perPlatform := map[trend.Platform]trend.Analysis{
		trend.PlatformWalmart: {Platform: trend.PlatformWalmart, AvgVolume: 100, MeanCompetition: 0.9},
		trend.PlatformAmazon:  {Platform: trend.PlatformAmazon, AvgVolume: 1000, MeanCompetition: 0.2},
		trend.PlatformEtsy:    {Platform: trend.PlatformEtsy, AvgVolume: 1000, MeanCompetition: 0.2},
	}

	first := detector.Detect("water bottle", perPlatform)
	second := detector.Detect("water bottle", perPlatform)

	// amazon/walmart and etsy/walmart diverge; amazon/etsy are identical.
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, trend.PlatformAmazon, first[0].PlatformA)
	assert.Equal(t, trend.PlatformWalmart, first[0].PlatformB)
	assert.Equal(t, trend.PlatformEtsy, first[1].PlatformA)
	assert.Equal(t, trend.PlatformWalmart, first[1].PlatformB)
}

func TestDetectorConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  DetectorConfig
	}{
		{"ratio below one", DetectorConfig{VolumeRatioThreshold: 0.5, CompetitionDeltaThreshold: 0.2}},
		{"delta not positive", DetectorConfig{VolumeRatioThreshold: 2.0, CompetitionDeltaThreshold: 0}},
		{"delta above one", DetectorConfig{VolumeRatioThreshold: 2.0, CompetitionDeltaThreshold: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDetector(tt.cfg)
			require.Error(t, err)

			var confErr *trend.ConfigurationError
			assert.True(t, errors.As(err, &confErr))
		})
	}
}
