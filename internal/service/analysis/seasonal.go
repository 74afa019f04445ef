package analysis

import (
	"fmt"
	"sort"
	"time"

	"trendscope/internal/domain/trend"
)

// MatcherConfig contains thresholds for seasonal pattern matching
type MatcherConfig struct {
	// MinConfidence drops matches below this confidence from results.
	MinConfidence float64
}

// DefaultMatcherConfig returns the default matcher thresholds
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{MinConfidence: 0.3}
}

// Validate checks threshold consistency
func (c MatcherConfig) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return &trend.ConfigurationError{Reason: "minimum confidence must be within [0,1]"}
	}
	return nil
}

// Matcher compares trend series against a library of calendar patterns
type Matcher struct {
	cfg      MatcherConfig
	patterns []trend.SeasonalPattern
}

// NewMatcher creates a matcher over the given pattern library, failing fast
// on invalid configuration
func NewMatcher(patterns []trend.SeasonalPattern, cfg MatcherConfig) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, p := range patterns {
		if err := validatePattern(p); err != nil {
			return nil, err
		}
	}
	return &Matcher{cfg: cfg, patterns: patterns}, nil
}

func validatePattern(p trend.SeasonalPattern) error {
	if p.Name == "" {
		return &trend.ConfigurationError{Reason: "seasonal pattern name must not be empty"}
	}
	if p.StartMonth < 1 || p.StartMonth > 12 || p.EndMonth < 1 || p.EndMonth > 12 {
		return &trend.ConfigurationError{Reason: fmt.Sprintf("pattern %s: months must be within 1..12", p.Name)}
	}
	if p.StartDay < 1 || p.StartDay > 31 || p.EndDay < 1 || p.EndDay > 31 {
		return &trend.ConfigurationError{Reason: fmt.Sprintf("pattern %s: days must be within 1..31", p.Name)}
	}
	if p.LookbackYears < 1 {
		return &trend.ConfigurationError{Reason: fmt.Sprintf("pattern %s: lookback years must be at least 1", p.Name)}
	}
	if p.ExpectedLiftRatio <= 1 {
		return &trend.ConfigurationError{Reason: fmt.Sprintf("pattern %s: expected lift ratio must exceed 1", p.Name)}
	}
	return nil
}

// Match evaluates the series against every pattern in the library.
// Returns InsufficientHistoryError when the series covers no historical
// anchor window of any pattern. Matches are ordered by descending
// confidence, ties broken by pattern name.
func (m *Matcher) Match(series trend.Series, asOf time.Time) ([]trend.SeasonalMatch, error) {
	asOfDay := trend.Day(asOf)

	var matches []trend.SeasonalMatch
	totalAnchors := 0

	for _, p := range m.patterns {
		confidence, anchors := m.confidence(p, series, asOfDay)
		totalAnchors += anchors
		if anchors == 0 || confidence < m.cfg.MinConfidence {
			continue
		}
		matches = append(matches, trend.SeasonalMatch{
			PatternName:     p.Name,
			Confidence:      confidence,
			DaysUntilAnchor: daysUntilAnchor(p, asOfDay),
		})
	}

	if totalAnchors == 0 {
		return nil, &trend.InsufficientHistoryError{Keyword: series.Keyword, Platform: series.Platform}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].PatternName < matches[j].PatternName
	})

	return matches, nil
}

// confidence computes the recency-weighted fraction of observed historical
// anchors where the lift met the pattern's expectation. Returns the number
// of anchor years the series actually covers.
func (m *Matcher) confidence(p trend.SeasonalPattern, series trend.Series, asOf time.Time) (float64, int) {
	var weightSum, metSum float64
	anchors := 0

	for offset := 1; offset <= p.LookbackYears; offset++ {
		year := asOf.Year() - offset
		start, end := patternWindow(p, year)

		var insideSum, outsideSum float64
		var insideCount, outsideCount int
		for _, o := range series.Points {
			switch {
			case !o.ObservedAt.Before(start) && !o.ObservedAt.After(end):
				insideSum += float64(o.SearchVolume)
				insideCount++
			case o.ObservedAt.Year() == year:
				outsideSum += float64(o.SearchVolume)
				outsideCount++
			}
		}

		if insideCount == 0 {
			continue
		}
		anchors++

		// Most recent year weighted highest.
		weight := float64(p.LookbackYears - offset + 1)
		weightSum += weight

		insideMean := insideSum / float64(insideCount)
		if outsideCount == 0 {
			// Keyword only ever observed inside the window; treat any
			// activity as meeting the lift expectation.
			if insideMean > 0 {
				metSum += weight
			}
			continue
		}
		outsideMean := outsideSum / float64(outsideCount)
		if outsideMean == 0 {
			if insideMean > 0 {
				metSum += weight
			}
			continue
		}
		if insideMean/outsideMean >= p.ExpectedLiftRatio {
			metSum += weight
		}
	}

	if anchors == 0 || weightSum == 0 {
		return 0, anchors
	}
	return metSum / weightSum, anchors
}

// patternWindow returns the pattern's concrete window for the year of its
// start date. Windows that wrap past December end in the following year.
func patternWindow(p trend.SeasonalPattern, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(p.StartMonth), p.StartDay, 0, 0, 0, 0, time.UTC)
	endYear := year
	if p.EndMonth < p.StartMonth || (p.EndMonth == p.StartMonth && p.EndDay < p.StartDay) {
		endYear++
	}
	end := time.Date(endYear, time.Month(p.EndMonth), p.EndDay, 0, 0, 0, 0, time.UTC)
	return start, end
}

// daysUntilAnchor returns days from asOf to the next occurrence of the
// pattern window, zero while inside the window. Always non-negative.
func daysUntilAnchor(p trend.SeasonalPattern, asOf time.Time) int {
	for year := asOf.Year() - 1; ; year++ {
		start, end := patternWindow(p, year)
		if asOf.After(end) {
			continue
		}
		if !asOf.Before(start) {
			return 0
		}
		return int(start.Sub(asOf).Hours() / 24)
	}
}
