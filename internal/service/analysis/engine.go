package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"trendscope/internal/domain/trend"
	"trendscope/internal/service/report"
)

// EngineConfig contains configuration for analysis runs
type EngineConfig struct {
	// AlertsSubject is the NATS subject breakout and arbitrage alerts are
	// published on. Empty disables publishing.
	AlertsSubject string
}

// KeywordInsight is the full evaluation of one (keyword, platform) series
type KeywordInsight struct {
	Analysis        trend.Analysis          `json:"analysis"`
	Opportunity     trend.NicheOpportunity  `json:"opportunity"`
	SeasonalMatches []trend.SeasonalMatch   `json:"seasonal_matches"`
	Arbitrage       []trend.ArbitrageSignal `json:"arbitrage,omitempty"`
}

// Alert is the event published after a run for breakout directions and
// arbitrage signals
type Alert struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Keyword   string                 `json:"keyword"`
	Platform  trend.Platform         `json:"platform,omitempty"`
	Velocity  float64                `json:"velocity,omitempty"`
	Signal    *trend.ArbitrageSignal `json:"signal,omitempty"`
	EmittedAt time.Time              `json:"emitted_at"`
}

// Engine orchestrates the analysis components over a store snapshot. Every
// derived result is recomputed from stored observations on each run; the
// engine holds no derived state between runs.
type Engine struct {
	store      trend.Store
	classifier *Classifier
	matcher    *Matcher
	scorer     *Scorer
	detector   *Detector
	formatter  *report.Formatter
	events     *nats.Conn
	log        zerolog.Logger
	cfg        EngineConfig
}

// NewEngine creates an analysis engine. The NATS connection may be nil, in
// which case alert publishing is disabled.
func NewEngine(
	store trend.Store,
	classifier *Classifier,
	matcher *Matcher,
	scorer *Scorer,
	detector *Detector,
	formatter *report.Formatter,
	events *nats.Conn,
	log zerolog.Logger,
	cfg EngineConfig,
) *Engine {
	return &Engine{
		store:      store,
		classifier: classifier,
		matcher:    matcher,
		scorer:     scorer,
		detector:   detector,
		formatter:  formatter,
		events:     events,
		log:        log.With().Str("component", "analysis").Logger(),
		cfg:        cfg,
	}
}

// AnalyzeKeyword evaluates one keyword as of the given date, one insight
// per platform the keyword was observed on. Returns trend.ErrNotFound when
// the store holds no observations for it.
func (e *Engine) AnalyzeKeyword(ctx context.Context, keyword string, platform trend.Platform, asOf time.Time) ([]KeywordInsight, error) {
	// Stored keywords are normalized at ingest; apply the same rule to the
	// lookup so "Beach Towel" finds rows stored as "beach towel".
	keyword = trend.NormalizeKeyword(keyword)

	observations, err := e.store.Query(ctx, trend.Query{
		Keyword:  keyword,
		Platform: platform,
		To:       asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("error reading observations: %w", err)
	}
	if len(observations) == 0 {
		return nil, trend.ErrNotFound
	}

	var insights []KeywordInsight
	perPlatform := map[trend.Platform]trend.Analysis{}

	for _, series := range trend.GroupSeries(observations) {
		analysis := e.classifier.Classify(series, asOf)
		matches := e.seasonalMatches(series, asOf)
		insights = append(insights, KeywordInsight{
			Analysis:        analysis,
			Opportunity:     e.scorer.Score(analysis, matches),
			SeasonalMatches: matches,
		})
		perPlatform[series.Platform] = analysis
	}

	signals := e.detector.Detect(keyword, perPlatform)
	if len(signals) > 0 && len(insights) > 0 {
		insights[0].Arbitrage = signals
	}

	return insights, nil
}

// BuildReport runs every analyzer over the store snapshot and merges their
// outputs into a trend report
func (e *Engine) BuildReport(ctx context.Context, asOf time.Time) (report.TrendReport, error) {
	observations, err := e.store.Query(ctx, trend.Query{To: asOf})
	if err != nil {
		return report.TrendReport{}, fmt.Errorf("error reading observations: %w", err)
	}

	stats, err := e.store.Stats(ctx)
	if err != nil {
		return report.TrendReport{}, fmt.Errorf("error reading stats: %w", err)
	}

	inputs := report.Inputs{AsOf: asOf, Stats: stats}
	analysesPerKeyword := map[string]map[trend.Platform]trend.Analysis{}

	for _, series := range trend.GroupSeries(observations) {
		analysis := e.classifier.Classify(series, asOf)
		matches := e.seasonalMatches(series, asOf)

		inputs.Analyses = append(inputs.Analyses, analysis)
		inputs.Opportunities = append(inputs.Opportunities, e.scorer.Score(analysis, matches))
		for _, m := range matches {
			inputs.Matches = append(inputs.Matches, report.KeywordMatch{
				Keyword:         series.Keyword,
				Platform:        series.Platform,
				PatternName:     m.PatternName,
				Confidence:      m.Confidence,
				DaysUntilAnchor: m.DaysUntilAnchor,
			})
		}

		if analysesPerKeyword[series.Keyword] == nil {
			analysesPerKeyword[series.Keyword] = map[trend.Platform]trend.Analysis{}
		}
		analysesPerKeyword[series.Keyword][series.Platform] = analysis
	}

	for _, analysis := range inputs.Analyses {
		if analysis.Direction == trend.DirectionBreakout {
			e.publishAlert(Alert{
				Type:     "breakout",
				Keyword:  analysis.Keyword,
				Platform: analysis.Platform,
				Velocity: analysis.Velocity,
			})
		}
	}
	for keyword, perPlatform := range analysesPerKeyword {
		for _, signal := range e.detector.Detect(keyword, perPlatform) {
			signal := signal
			inputs.Signals = append(inputs.Signals, signal)
			e.publishAlert(Alert{Type: "arbitrage", Keyword: keyword, Signal: &signal})
		}
	}

	return e.formatter.Build(inputs), nil
}

// seasonalMatches treats missing history as "no matches"; callers wanting
// the explicit error use the Matcher directly
func (e *Engine) seasonalMatches(series trend.Series, asOf time.Time) []trend.SeasonalMatch {
	matches, err := e.matcher.Match(series, asOf)
	if err != nil {
		var insufficient *trend.InsufficientHistoryError
		if !errors.As(err, &insufficient) {
			e.log.Warn().Err(err).Str("keyword", series.Keyword).Msg("seasonal matching failed")
		}
		return nil
	}
	return matches
}

func (e *Engine) publishAlert(alert Alert) {
	if e.events == nil || e.cfg.AlertsSubject == "" {
		return
	}

	alert.ID = uuid.New().String()
	alert.EmittedAt = time.Now().UTC()

	payload, err := json.Marshal(alert)
	if err != nil {
		e.log.Error().Err(err).Msg("error marshaling alert")
		return
	}

	if err := e.events.Publish(e.cfg.AlertsSubject, payload); err != nil {
		e.log.Error().Err(err).Str("subject", e.cfg.AlertsSubject).Msg("error publishing alert")
	}
}
