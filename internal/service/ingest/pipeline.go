package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"trendscope/internal/domain/trend"
)

// RawObservation is one observation candidate as delivered by a collector.
// Platform is a free-form identifier mapped to the canonical enum during
// ingestion; unknown extra fields in the source payload are ignored.
type RawObservation struct {
	Keyword          string    `json:"keyword"`
	Platform         string    `json:"platform"`
	Timestamp        time.Time `json:"timestamp"`
	SearchVolume     int       `json:"search_volume"`
	CompetitionIndex float64   `json:"competition_index"`
	RankPosition     int       `json:"rank_position,omitempty"`
}

// Report summarizes one ingestion run
type Report struct {
	Accepted              int                 `json:"accepted"`
	DuplicatesOverwritten int                 `json:"duplicates_overwritten"`
	Rejected              []trend.RejectedRow `json:"rejected"`
}

// Pipeline validates and normalizes raw observation candidates and forwards
// them to the trend store in a single batch call
type Pipeline struct {
	store trend.Store
	log   zerolog.Logger
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(store trend.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store: store,
		log:   log.With().Str("component", "ingest").Logger(),
	}
}

// Ingest normalizes the candidates and writes them to the store. Rows that
// cannot be normalized or validated are rejected individually; a bad record
// never aborts the batch.
func (p *Pipeline) Ingest(ctx context.Context, candidates []RawObservation) (Report, error) {
	var report Report

	batch := make([]trend.Observation, 0, len(candidates))
	sourceIndex := make([]int, 0, len(candidates))

	for i, c := range candidates {
		platform, err := trend.ParsePlatform(c.Platform)
		if err != nil {
			report.Rejected = append(report.Rejected, trend.RejectedRow{
				Index:   i,
				Keyword: trend.NormalizeKeyword(c.Keyword),
				Reason:  err.Error(),
			})
			continue
		}

		batch = append(batch, trend.Observation{
			Keyword:          trend.NormalizeKeyword(c.Keyword),
			Platform:         platform,
			ObservedAt:       trend.Day(c.Timestamp),
			SearchVolume:     c.SearchVolume,
			CompetitionIndex: c.CompetitionIndex,
			RankPosition:     c.RankPosition,
		})
		sourceIndex = append(sourceIndex, i)
	}

	if len(batch) > 0 {
		result, err := p.store.PutBatch(ctx, batch)
		if err != nil {
			return report, fmt.Errorf("error writing batch: %w", err)
		}

		report.Accepted = result.Accepted
		report.DuplicatesOverwritten = result.DuplicatesOverwritten
		for _, rejected := range result.Rejected {
			rejected.Index = sourceIndex[rejected.Index]
			report.Rejected = append(report.Rejected, rejected)
		}
	}

	sort.Slice(report.Rejected, func(i, j int) bool {
		return report.Rejected[i].Index < report.Rejected[j].Index
	})

	p.log.Info().
		Int("candidates", len(candidates)).
		Int("accepted", report.Accepted).
		Int("rejected", len(report.Rejected)).
		Int("overwritten", report.DuplicatesOverwritten).
		Msg("batch ingested")

	return report, nil
}
