package analysis

import (
	"math"
	"sort"

	"trendscope/internal/domain/trend"
)

// DetectorConfig contains thresholds for cross-platform divergence
type DetectorConfig struct {
	// VolumeRatioThreshold is the minimum max/min mean-volume ratio.
	VolumeRatioThreshold float64

	// CompetitionDeltaThreshold is the minimum absolute competition gap.
	// Both thresholds must be met, so keywords that are merely low-volume
	// everywhere are not flagged.
	CompetitionDeltaThreshold float64
}

// DefaultDetectorConfig returns the default divergence thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		VolumeRatioThreshold:      2.0,
		CompetitionDeltaThreshold: 0.2,
	}
}

// Validate checks threshold consistency
func (c DetectorConfig) Validate() error {
	if c.VolumeRatioThreshold < 1 {
		return &trend.ConfigurationError{Reason: "volume ratio threshold must be at least 1"}
	}
	if c.CompetitionDeltaThreshold <= 0 || c.CompetitionDeltaThreshold > 1 {
		return &trend.ConfigurationError{Reason: "competition delta threshold must be within (0,1]"}
	}
	return nil
}

// Detector flags keywords with divergent volume and competition across
// platforms
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a detector, failing fast on invalid thresholds
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Detect compares every platform pair for one keyword. Keywords present on
// a single platform never produce signals. Pairs are evaluated in platform
// order so output is deterministic.
func (d *Detector) Detect(keyword string, perPlatform map[trend.Platform]trend.Analysis) []trend.ArbitrageSignal {
	if len(perPlatform) < 2 {
		return nil
	}

	platforms := make([]trend.Platform, 0, len(perPlatform))
	for p := range perPlatform {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	var signals []trend.ArbitrageSignal
	for i := 0; i < len(platforms); i++ {
		for j := i + 1; j < len(platforms); j++ {
			a := perPlatform[platforms[i]]
			b := perPlatform[platforms[j]]

			high, low := a.AvgVolume, b.AvgVolume
			if low > high {
				high, low = low, high
			}
			volumeRatio := high / math.Max(1, low)
			competitionDelta := math.Abs(a.MeanCompetition - b.MeanCompetition)

			if volumeRatio < d.cfg.VolumeRatioThreshold || competitionDelta < d.cfg.CompetitionDeltaThreshold {
				continue
			}

			direction := a.Platform
			if b.MeanCompetition < a.MeanCompetition {
				direction = b.Platform
			}

			signals = append(signals, trend.ArbitrageSignal{
				Keyword:              keyword,
				PlatformA:            a.Platform,
				PlatformB:            b.Platform,
				VolumeRatio:          volumeRatio,
				CompetitionDelta:     competitionDelta,
				OpportunityDirection: direction,
			})
		}
	}

	return signals
}
