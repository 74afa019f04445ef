package trend

import (
	"sort"
	"strings"
	"time"
)

// Platform identifies a supported marketplace
type Platform string

const (
	PlatformAmazon     Platform = "amazon"
	PlatformEtsy       Platform = "etsy"
	PlatformEbay       Platform = "ebay"
	PlatformWalmart    Platform = "walmart"
	PlatformShopee     Platform = "shopee"
	PlatformLazada     Platform = "lazada"
	PlatformAliexpress Platform = "aliexpress"
	PlatformTemu       Platform = "temu"
)

// Platforms lists every canonical marketplace in stable order
var Platforms = []Platform{
	PlatformAmazon,
	PlatformEtsy,
	PlatformEbay,
	PlatformWalmart,
	PlatformShopee,
	PlatformLazada,
	PlatformAliexpress,
	PlatformTemu,
}

// platformAliases maps common marketplace spellings to the canonical enum
var platformAliases = map[string]Platform{
	"amazon.com":     PlatformAmazon,
	"amz":            PlatformAmazon,
	"etsy.com":       PlatformEtsy,
	"ebay.com":       PlatformEbay,
	"walmart.com":    PlatformWalmart,
	"aliexpress.com": PlatformAliexpress,
	"ali":            PlatformAliexpress,
}

// ParsePlatform maps a raw platform identifier to the canonical enum.
// Returns UnknownPlatformError for values that cannot be mapped.
func ParsePlatform(raw string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range Platforms {
		if normalized == string(p) {
			return p, nil
		}
	}
	if p, ok := platformAliases[normalized]; ok {
		return p, nil
	}
	return "", &UnknownPlatformError{Value: raw}
}

// Observation is one recorded measurement of a keyword's performance on a
// platform at a point in time. Observations are immutable once stored and
// uniquely identified by (keyword, platform, day).
type Observation struct {
	Keyword          string    `json:"keyword"`
	Platform         Platform  `json:"platform"`
	ObservedAt       time.Time `json:"observed_at"`
	SearchVolume     int       `json:"search_volume"`
	CompetitionIndex float64   `json:"competition_index"`

	// RankPosition is the keyword's best listing rank, 0 when unknown.
	RankPosition int `json:"rank_position,omitempty"`
}

// Validate checks field-level constraints for a single observation
func (o Observation) Validate() error {
	if strings.TrimSpace(o.Keyword) == "" {
		return &ValidationError{Field: "keyword", Reason: "must not be empty"}
	}
	if _, err := ParsePlatform(string(o.Platform)); err != nil {
		return err
	}
	if o.ObservedAt.IsZero() {
		return &ValidationError{Field: "observed_at", Reason: "must be set"}
	}
	if o.SearchVolume < 0 {
		return &ValidationError{Field: "search_volume", Reason: "must be non-negative"}
	}
	if o.CompetitionIndex < 0 || o.CompetitionIndex > 1 {
		return &ValidationError{Field: "competition_index", Reason: "must be within [0,1]"}
	}
	if o.RankPosition < 0 {
		return &ValidationError{Field: "rank_position", Reason: "must be positive when present"}
	}
	return nil
}

// NormalizeKeyword lowercases a keyword and collapses internal whitespace.
// Applied on both the write and read paths so lookups match stored rows.
func NormalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
}

// Day truncates a timestamp to UTC midnight, the store's time granularity
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Series is the time-ordered sequence of observations for one
// (keyword, platform) pair. It is rebuilt from the store on demand and
// never persisted.
type Series struct {
	Keyword  string
	Platform Platform
	Points   []Observation
}

// Span returns the first and last observation dates of the series
func (s Series) Span() (time.Time, time.Time) {
	if len(s.Points) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Points[0].ObservedAt, s.Points[len(s.Points)-1].ObservedAt
}

// GroupSeries splits store output into per-(keyword, platform) series,
// ordered by keyword then platform, with points ordered by date.
func GroupSeries(observations []Observation) []Series {
	grouped := map[string]*Series{}
	var keys []string
	for _, o := range observations {
		key := o.Keyword + "\x00" + string(o.Platform)
		s, ok := grouped[key]
		if !ok {
			s = &Series{Keyword: o.Keyword, Platform: o.Platform}
			grouped[key] = s
			keys = append(keys, key)
		}
		s.Points = append(s.Points, o)
	}
	sort.Strings(keys)
	out := make([]Series, 0, len(keys))
	for _, key := range keys {
		s := grouped[key]
		sort.Slice(s.Points, func(i, j int) bool {
			return s.Points[i].ObservedAt.Before(s.Points[j].ObservedAt)
		})
		out = append(out, *s)
	}
	return out
}

// DirectionLabel classifies the momentum of a series
type DirectionLabel string

const (
	DirectionNew       DirectionLabel = "new"
	DirectionRising    DirectionLabel = "rising"
	DirectionBreakout  DirectionLabel = "breakout"
	DirectionStable    DirectionLabel = "stable"
	DirectionDeclining DirectionLabel = "declining"
)

// DirectionLabels lists every label in report order
var DirectionLabels = []DirectionLabel{
	DirectionBreakout,
	DirectionRising,
	DirectionStable,
	DirectionDeclining,
	DirectionNew,
}

// Analysis is the classifier's evaluation of one series
type Analysis struct {
	Keyword         string         `json:"keyword"`
	Platform        Platform       `json:"platform"`
	Direction       DirectionLabel `json:"direction"`
	Velocity        float64        `json:"velocity"`
	CurrentVolume   int            `json:"current_volume"`
	AvgVolume       float64        `json:"avg_volume"`
	PeakVolume      int            `json:"peak_volume"`
	MeanCompetition float64        `json:"mean_competition"`
	DataPoints      int            `json:"data_points"`
	FirstSeen       time.Time      `json:"first_seen"`
}

// SeasonalPattern is a named calendar template. The library of patterns is
// configuration data, not derived from observations.
type SeasonalPattern struct {
	Name              string  `json:"name" yaml:"name"`
	StartMonth        int     `json:"start_month" yaml:"start_month"`
	StartDay          int     `json:"start_day" yaml:"start_day"`
	EndMonth          int     `json:"end_month" yaml:"end_month"`
	EndDay            int     `json:"end_day" yaml:"end_day"`
	LookbackYears     int     `json:"lookback_years" yaml:"lookback_years"`
	ExpectedLiftRatio float64 `json:"expected_lift_ratio" yaml:"expected_lift_ratio"`
}

// SeasonalMatch reports one pattern matching a series
type SeasonalMatch struct {
	PatternName     string  `json:"pattern_name"`
	Confidence      float64 `json:"confidence"`
	DaysUntilAnchor int     `json:"days_until_anchor"`
}

// NicheStatus classifies a scored opportunity
type NicheStatus string

const (
	StatusHot       NicheStatus = "hot"
	StatusEmerging  NicheStatus = "emerging"
	StatusSaturated NicheStatus = "saturated"
	StatusDeclining NicheStatus = "declining"
	StatusWatch     NicheStatus = "watch"
)

// NicheOpportunity is a scored keyword, recomputed wholesale on every
// analysis run
type NicheOpportunity struct {
	Keyword  string      `json:"keyword"`
	Platform Platform    `json:"platform"`
	Score    float64     `json:"opportunity_score"`
	Status   NicheStatus `json:"status"`
}

// ArbitrageSignal flags divergent metrics for one keyword across two
// platforms. OpportunityDirection names the platform with lower competition.
type ArbitrageSignal struct {
	Keyword              string   `json:"keyword"`
	PlatformA            Platform `json:"platform_a"`
	PlatformB            Platform `json:"platform_b"`
	VolumeRatio          float64  `json:"volume_ratio"`
	CompetitionDelta     float64  `json:"competition_delta"`
	OpportunityDirection Platform `json:"opportunity_direction"`
}

// Query defines criteria for reading observations from the store.
// Zero values mean "no constraint".
type Query struct {
	Keyword  string
	Platform Platform
	From     time.Time
	To       time.Time
}

// RejectedRow describes one observation dropped during a batch write
type RejectedRow struct {
	Index   int    `json:"index"`
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

// BatchResult reports the per-row outcome of a batch write
type BatchResult struct {
	Accepted              int           `json:"accepted"`
	DuplicatesOverwritten int           `json:"duplicates_overwritten"`
	Rejected              []RejectedRow `json:"rejected"`
}

// StoreStats summarizes store contents
type StoreStats struct {
	Observations int       `json:"observations"`
	Keywords     int       `json:"keywords"`
	Platforms    int       `json:"platforms"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
}
