package analysis

import (
	"fmt"
	"time"

	"trendscope/internal/domain/trend"
)

// ClassifierConfig contains thresholds for direction classification.
// Thresholds are injected rather than hardcoded so the same classifier can
// be evaluated under multiple regimes.
type ClassifierConfig struct {
	// WindowDays and WindowSize bound the lookback window: the last
	// WindowSize observations within the last WindowDays days.
	WindowDays int
	WindowSize int

	// MinObservations is the floor below which a series is labeled "new".
	MinObservations int

	// Label thresholds on velocity, boundary-inclusive.
	BreakoutThreshold  float64
	RisingThreshold    float64
	DecliningThreshold float64
}

// DefaultClassifierConfig returns the default classification thresholds
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		WindowDays:         30,
		WindowSize:         30,
		MinObservations:    3,
		BreakoutThreshold:  0.50,
		RisingThreshold:    0.15,
		DecliningThreshold: -0.15,
	}
}

// Validate checks threshold consistency
func (c ClassifierConfig) Validate() error {
	if c.WindowDays < 1 {
		return &trend.ConfigurationError{Reason: "window days must be at least 1"}
	}
	if c.WindowSize < 3 {
		return &trend.ConfigurationError{Reason: "window size must be at least 3"}
	}
	if c.MinObservations < 1 {
		return &trend.ConfigurationError{Reason: "minimum observations must be at least 1"}
	}
	if c.RisingThreshold <= 0 {
		return &trend.ConfigurationError{Reason: "rising threshold must be positive"}
	}
	if c.RisingThreshold >= c.BreakoutThreshold {
		return &trend.ConfigurationError{
			Reason: fmt.Sprintf("rising threshold %.2f must be below breakout threshold %.2f",
				c.RisingThreshold, c.BreakoutThreshold),
		}
	}
	if c.DecliningThreshold >= 0 {
		return &trend.ConfigurationError{Reason: "declining threshold must be negative"}
	}
	return nil
}

// Classifier computes velocity and direction labels for trend series
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier, failing fast on invalid thresholds
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg}, nil
}

// Classify evaluates one series as of the given date. Every series resolves
// to exactly one direction label; arithmetic edge cases fall back to a
// defined label rather than erroring.
func (c *Classifier) Classify(series trend.Series, asOf time.Time) trend.Analysis {
	analysis := trend.Analysis{
		Keyword:   series.Keyword,
		Platform:  series.Platform,
		Direction: trend.DirectionNew,
	}
	if first, _ := series.Span(); !first.IsZero() {
		analysis.FirstSeen = first
	}

	window := c.window(series, asOf)
	analysis.DataPoints = len(window)
	if len(window) == 0 {
		return analysis
	}

	var volumeSum, competitionSum float64
	for _, o := range window {
		volumeSum += float64(o.SearchVolume)
		competitionSum += o.CompetitionIndex
		if o.SearchVolume > analysis.PeakVolume {
			analysis.PeakVolume = o.SearchVolume
		}
	}
	analysis.CurrentVolume = window[len(window)-1].SearchVolume
	analysis.AvgVolume = volumeSum / float64(len(window))
	analysis.MeanCompetition = competitionSum / float64(len(window))

	if len(window) < c.cfg.MinObservations {
		return analysis
	}

	velocity, ok := c.velocity(window)
	if !ok {
		// Both sub-window means are zero: no usable signal yet.
		return analysis
	}
	analysis.Velocity = velocity

	switch {
	case velocity >= c.cfg.BreakoutThreshold:
		analysis.Direction = trend.DirectionBreakout
	case velocity >= c.cfg.RisingThreshold:
		analysis.Direction = trend.DirectionRising
	case velocity <= c.cfg.DecliningThreshold:
		analysis.Direction = trend.DirectionDeclining
	default:
		analysis.Direction = trend.DirectionStable
	}

	return analysis
}

// window returns the last WindowSize observations within the WindowDays
// calendar days ending on asOf, cutoff day included
func (c *Classifier) window(series trend.Series, asOf time.Time) []trend.Observation {
	cutoff := trend.Day(asOf).AddDate(0, 0, -(c.cfg.WindowDays - 1))
	asOfDay := trend.Day(asOf)

	var window []trend.Observation
	for _, o := range series.Points {
		if o.ObservedAt.Before(cutoff) || o.ObservedAt.After(asOfDay) {
			continue
		}
		window = append(window, o)
	}
	if len(window) > c.cfg.WindowSize {
		window = window[len(window)-c.cfg.WindowSize:]
	}
	return window
}

// velocity compares the mean of the most-recent third of the window against
// the mean of the earliest third, normalized by the recent mean. Comparing
// sub-window means guards against single-point noise. Returns false when
// both means are zero.
func (c *Classifier) velocity(window []trend.Observation) (float64, bool) {
	third := len(window) / 3
	if third < 1 {
		third = 1
	}

	var earliest, recent float64
	for _, o := range window[:third] {
		earliest += float64(o.SearchVolume)
	}
	earliest /= float64(third)
	for _, o := range window[len(window)-third:] {
		recent += float64(o.SearchVolume)
	}
	recent /= float64(third)

	if recent == 0 {
		if earliest == 0 {
			return 0, false
		}
		return -1, true
	}

	return (recent - earliest) / recent, true
}
