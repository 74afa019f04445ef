package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"trendscope/internal/domain/trend"
)

// KeywordMatch ties a seasonal match to the series it was found on
type KeywordMatch struct {
	Keyword         string         `json:"keyword"`
	Platform        trend.Platform `json:"platform"`
	PatternName     string         `json:"pattern_name"`
	Confidence      float64        `json:"confidence"`
	DaysUntilAnchor int            `json:"days_until_anchor"`
}

// DirectionCount is one summary row of the report
type DirectionCount struct {
	Direction trend.DirectionLabel `json:"direction"`
	Count     int                  `json:"count"`
}

// TrendReport is the merged output of the analysis components. The caller
// owns serialization format choices; the report only fixes the content and
// its ordering.
type TrendReport struct {
	GeneratedFor     time.Time                `json:"generated_for"`
	Summary          []DirectionCount         `json:"summary"`
	TopOpportunities []trend.NicheOpportunity `json:"top_opportunities"`
	Rising           []trend.Analysis         `json:"rising"`
	Declining        []trend.Analysis         `json:"declining"`
	SeasonalMatches  []KeywordMatch           `json:"seasonal_matches"`
	ArbitrageSignals []trend.ArbitrageSignal  `json:"arbitrage_signals"`
	Stats            trend.StoreStats         `json:"stats"`
}

// Inputs carries the analyzer outputs for one report run
type Inputs struct {
	AsOf          time.Time
	Analyses      []trend.Analysis
	Opportunities []trend.NicheOpportunity
	Matches       []KeywordMatch
	Signals       []trend.ArbitrageSignal
	Stats         trend.StoreStats
}

// Formatter renders analyzer outputs into a trend report. It is stateless:
// identical inputs produce identical reports.
type Formatter struct {
	topN int
}

// NewFormatter creates a formatter keeping the top N entries per section
func NewFormatter(topN int) (*Formatter, error) {
	if topN < 1 {
		return nil, &trend.ConfigurationError{Reason: "report top N must be at least 1"}
	}
	return &Formatter{topN: topN}, nil
}

// Build assembles the structured report with deterministic section ordering
func (f *Formatter) Build(in Inputs) TrendReport {
	report := TrendReport{
		GeneratedFor: trend.Day(in.AsOf),
		Stats:        in.Stats,
	}

	counts := map[trend.DirectionLabel]int{}
	for _, a := range in.Analyses {
		counts[a.Direction]++
	}
	for _, label := range trend.DirectionLabels {
		report.Summary = append(report.Summary, DirectionCount{Direction: label, Count: counts[label]})
	}

	opportunities := append([]trend.NicheOpportunity(nil), in.Opportunities...)
	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].Score != opportunities[j].Score {
			return opportunities[i].Score > opportunities[j].Score
		}
		if opportunities[i].Keyword != opportunities[j].Keyword {
			return opportunities[i].Keyword < opportunities[j].Keyword
		}
		return opportunities[i].Platform < opportunities[j].Platform
	})
	report.TopOpportunities = truncate(opportunities, f.topN)

	report.Rising = f.byVelocity(in.Analyses, func(a trend.Analysis) bool {
		return a.Direction == trend.DirectionRising || a.Direction == trend.DirectionBreakout
	}, true)
	report.Declining = f.byVelocity(in.Analyses, func(a trend.Analysis) bool {
		return a.Direction == trend.DirectionDeclining
	}, false)

	matches := append([]KeywordMatch(nil), in.Matches...)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		if matches[i].Keyword != matches[j].Keyword {
			return matches[i].Keyword < matches[j].Keyword
		}
		return matches[i].PatternName < matches[j].PatternName
	})
	report.SeasonalMatches = matches

	signals := append([]trend.ArbitrageSignal(nil), in.Signals...)
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Keyword != signals[j].Keyword {
			return signals[i].Keyword < signals[j].Keyword
		}
		if signals[i].PlatformA != signals[j].PlatformA {
			return signals[i].PlatformA < signals[j].PlatformA
		}
		return signals[i].PlatformB < signals[j].PlatformB
	})
	report.ArbitrageSignals = signals

	return report
}

func (f *Formatter) byVelocity(analyses []trend.Analysis, keep func(trend.Analysis) bool, descending bool) []trend.Analysis {
	var filtered []trend.Analysis
	for _, a := range analyses {
		if keep(a) {
			filtered = append(filtered, a)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Velocity != filtered[j].Velocity {
			if descending {
				return filtered[i].Velocity > filtered[j].Velocity
			}
			return filtered[i].Velocity < filtered[j].Velocity
		}
		if filtered[i].Keyword != filtered[j].Keyword {
			return filtered[i].Keyword < filtered[j].Keyword
		}
		return filtered[i].Platform < filtered[j].Platform
	})
	return truncate(filtered, f.topN)
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// RenderText renders the report as plain text. Identical reports render
// byte-identically.
func RenderText(r TrendReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Marketplace Trend Report - %s\n\n", r.GeneratedFor.Format("2006-01-02"))

	b.WriteString("Direction summary:\n")
	for _, row := range r.Summary {
		fmt.Fprintf(&b, "  %-10s %d\n", row.Direction, row.Count)
	}
	b.WriteString("\n")

	if len(r.TopOpportunities) > 0 {
		b.WriteString("Top opportunities:\n")
		for _, o := range r.TopOpportunities {
			fmt.Fprintf(&b, "  %s [%s] score=%.2f status=%s\n", o.Keyword, o.Platform, o.Score, o.Status)
		}
		b.WriteString("\n")
	}

	if len(r.Rising) > 0 {
		b.WriteString("Rising keywords:\n")
		for _, a := range r.Rising {
			fmt.Fprintf(&b, "  %s [%s] velocity=%+.1f%% volume=%d\n",
				a.Keyword, a.Platform, a.Velocity*100, a.CurrentVolume)
		}
		b.WriteString("\n")
	}

	if len(r.Declining) > 0 {
		b.WriteString("Declining keywords:\n")
		for _, a := range r.Declining {
			fmt.Fprintf(&b, "  %s [%s] velocity=%+.1f%%\n", a.Keyword, a.Platform, a.Velocity*100)
		}
		b.WriteString("\n")
	}

	if len(r.SeasonalMatches) > 0 {
		b.WriteString("Seasonal windows:\n")
		for _, m := range r.SeasonalMatches {
			fmt.Fprintf(&b, "  %s [%s] pattern=%s confidence=%.2f anchor_in=%dd\n",
				m.Keyword, m.Platform, m.PatternName, m.Confidence, m.DaysUntilAnchor)
		}
		b.WriteString("\n")
	}

	if len(r.ArbitrageSignals) > 0 {
		b.WriteString("Arbitrage signals:\n")
		for _, s := range r.ArbitrageSignals {
			fmt.Fprintf(&b, "  %s %s/%s volume_ratio=%.1f competition_delta=%.2f undervalued_on=%s\n",
				s.Keyword, s.PlatformA, s.PlatformB, s.VolumeRatio, s.CompetitionDelta, s.OpportunityDirection)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Tracked: %d keywords, %d observations, %d platforms\n",
		r.Stats.Keywords, r.Stats.Observations, r.Stats.Platforms)

	return b.String()
}
