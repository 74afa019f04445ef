package analysis

import (
	"trendscope/internal/domain/trend"
)

// ScorerConfig contains weights and bands for opportunity scoring
type ScorerConfig struct {
	// Relative weights of the velocity and inverse-competition components.
	VelocityWeight    float64
	CompetitionWeight float64

	// Seasonal boost: confidence x factor when a match's anchor is within
	// the horizon.
	SeasonalBoostFactor float64
	SeasonalHorizonDays int

	// Score bands and the competition level treated as crowded.
	HighScore       float64
	LowScore        float64
	HighCompetition float64
}

// DefaultScorerConfig returns the default scoring weights
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		VelocityWeight:      0.5,
		CompetitionWeight:   0.5,
		SeasonalBoostFactor: 0.25,
		SeasonalHorizonDays: 60,
		HighScore:           0.65,
		LowScore:            0.35,
		HighCompetition:     0.7,
	}
}

// Validate checks weight consistency
func (c ScorerConfig) Validate() error {
	if c.VelocityWeight < 0 || c.CompetitionWeight < 0 {
		return &trend.ConfigurationError{Reason: "scoring weights must be non-negative"}
	}
	if c.VelocityWeight+c.CompetitionWeight == 0 {
		return &trend.ConfigurationError{Reason: "at least one scoring weight must be positive"}
	}
	if c.SeasonalBoostFactor < 0 {
		return &trend.ConfigurationError{Reason: "seasonal boost factor must be non-negative"}
	}
	if c.SeasonalHorizonDays < 0 {
		return &trend.ConfigurationError{Reason: "seasonal horizon must be non-negative"}
	}
	if c.LowScore < 0 || c.HighScore > 1 || c.LowScore >= c.HighScore {
		return &trend.ConfigurationError{Reason: "score bands must satisfy 0 <= low < high <= 1"}
	}
	if c.HighCompetition <= 0 || c.HighCompetition > 1 {
		return &trend.ConfigurationError{Reason: "high competition level must be within (0,1]"}
	}
	return nil
}

// Scorer combines velocity, competition, and seasonal signals into a single
// opportunity score and status
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer creates a scorer, failing fast on invalid weights
func NewScorer(cfg ScorerConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score derives a niche opportunity from a classified series and its
// seasonal matches. Opportunities are recomputed wholesale on every run.
func (s *Scorer) Score(analysis trend.Analysis, matches []trend.SeasonalMatch) trend.NicheOpportunity {
	velocityComponent := clamp01((analysis.Velocity + 1) / 2)
	competitionComponent := clamp01(1 - analysis.MeanCompetition)

	weightSum := s.cfg.VelocityWeight + s.cfg.CompetitionWeight
	score := (s.cfg.VelocityWeight*velocityComponent + s.cfg.CompetitionWeight*competitionComponent) / weightSum

	score += s.seasonalBoost(matches)
	score = clamp01(score)

	return trend.NicheOpportunity{
		Keyword:  analysis.Keyword,
		Platform: analysis.Platform,
		Score:    score,
		Status:   s.status(analysis.Direction, score, analysis.MeanCompetition),
	}
}

// seasonalBoost returns confidence x factor for the strongest match whose
// anchor falls within the horizon
func (s *Scorer) seasonalBoost(matches []trend.SeasonalMatch) float64 {
	best := 0.0
	for _, m := range matches {
		if m.DaysUntilAnchor > s.cfg.SeasonalHorizonDays {
			continue
		}
		if m.Confidence > best {
			best = m.Confidence
		}
	}
	return best * s.cfg.SeasonalBoostFactor
}

// scoreBand buckets an opportunity score
type scoreBand string

const (
	bandHigh scoreBand = "high"
	bandMid  scoreBand = "mid"
	bandLow  scoreBand = "low"
)

// scoreBands lists every band
var scoreBands = []scoreBand{bandHigh, bandMid, bandLow}

// statusKey is one cell of the status decision table
type statusKey struct {
	Label           trend.DirectionLabel
	Band            scoreBand
	HighCompetition bool
}

// statusTable is the total mapping from (direction, score band, crowded)
// to niche status. Every combination resolves to exactly one status.
// Declining takes precedence over saturated when both would apply.
var statusTable = map[statusKey]trend.NicheStatus{
	{trend.DirectionBreakout, bandHigh, false}: trend.StatusHot,
	{trend.DirectionBreakout, bandHigh, true}:  trend.StatusHot,
	{trend.DirectionBreakout, bandMid, false}:  trend.StatusEmerging,
	{trend.DirectionBreakout, bandMid, true}:   trend.StatusEmerging,
	{trend.DirectionBreakout, bandLow, false}:  trend.StatusWatch,
	{trend.DirectionBreakout, bandLow, true}:   trend.StatusWatch,

	{trend.DirectionRising, bandHigh, false}: trend.StatusHot,
	{trend.DirectionRising, bandHigh, true}:  trend.StatusEmerging,
	{trend.DirectionRising, bandMid, false}:  trend.StatusEmerging,
	{trend.DirectionRising, bandMid, true}:   trend.StatusEmerging,
	{trend.DirectionRising, bandLow, false}:  trend.StatusWatch,
	{trend.DirectionRising, bandLow, true}:   trend.StatusWatch,

	{trend.DirectionStable, bandHigh, false}: trend.StatusWatch,
	{trend.DirectionStable, bandHigh, true}:  trend.StatusSaturated,
	{trend.DirectionStable, bandMid, false}:  trend.StatusWatch,
	{trend.DirectionStable, bandMid, true}:   trend.StatusSaturated,
	{trend.DirectionStable, bandLow, false}:  trend.StatusWatch,
	{trend.DirectionStable, bandLow, true}:   trend.StatusSaturated,

	{trend.DirectionDeclining, bandHigh, false}: trend.StatusDeclining,
	{trend.DirectionDeclining, bandHigh, true}:  trend.StatusDeclining,
	{trend.DirectionDeclining, bandMid, false}:  trend.StatusDeclining,
	{trend.DirectionDeclining, bandMid, true}:   trend.StatusDeclining,
	{trend.DirectionDeclining, bandLow, false}:  trend.StatusDeclining,
	{trend.DirectionDeclining, bandLow, true}:   trend.StatusDeclining,

	{trend.DirectionNew, bandHigh, false}: trend.StatusEmerging,
	{trend.DirectionNew, bandHigh, true}:  trend.StatusWatch,
	{trend.DirectionNew, bandMid, false}:  trend.StatusWatch,
	{trend.DirectionNew, bandMid, true}:   trend.StatusWatch,
	{trend.DirectionNew, bandLow, false}:  trend.StatusWatch,
	{trend.DirectionNew, bandLow, true}:   trend.StatusWatch,
}

func (s *Scorer) band(score float64) scoreBand {
	switch {
	case score >= s.cfg.HighScore:
		return bandHigh
	case score < s.cfg.LowScore:
		return bandLow
	default:
		return bandMid
	}
}

func (s *Scorer) status(label trend.DirectionLabel, score, competition float64) trend.NicheStatus {
	key := statusKey{
		Label:           label,
		Band:            s.band(score),
		HighCompetition: competition >= s.cfg.HighCompetition,
	}
	if status, ok := statusTable[key]; ok {
		return status
	}
	// Unknown label; treat as unproven.
	return trend.StatusWatch
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
