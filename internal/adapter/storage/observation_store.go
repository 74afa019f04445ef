// internal/adapter/storage/observation_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trendscope/internal/domain/trend"
)

// defaultChunkSize bounds the number of rows sent per batch round-trip
const defaultChunkSize = 500

// ObservationStore implements trend.Store on PostgreSQL
type ObservationStore struct {
	db        *pgxpool.Pool
	chunkSize int
}

// NewObservationStore creates a new observation store
func NewObservationStore(db *pgxpool.Pool) *ObservationStore {
	return &ObservationStore{
		db:        db,
		chunkSize: defaultChunkSize,
	}
}

// EnsureSchema creates the observations table and its indexes if missing
func (s *ObservationStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			keyword           TEXT NOT NULL,
			platform          TEXT NOT NULL,
			observed_at       DATE NOT NULL,
			search_volume     BIGINT NOT NULL DEFAULT 0,
			competition_index DOUBLE PRECISION NOT NULL DEFAULT 0,
			rank_position     INTEGER,
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (keyword, platform, observed_at)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_observed_at ON observations (observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_platform ON observations (platform, observed_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}

	return nil
}

const upsertObservation = `
	INSERT INTO observations (
		keyword, platform, observed_at, search_volume, competition_index, rank_position, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (keyword, platform, observed_at) DO UPDATE
	SET
		search_volume = $4,
		competition_index = $5,
		rank_position = $6,
		updated_at = now()
	RETURNING (xmax <> 0) AS overwritten
`

// PutBatch upserts observations keyed by (keyword, platform, day). Rows
// failing validation are rejected individually; the surviving rows are
// written atomically in one transaction, chunked to bound round-trip size.
func (s *ObservationStore) PutBatch(ctx context.Context, observations []trend.Observation) (trend.BatchResult, error) {
	var result trend.BatchResult

	valid := make([]trend.Observation, 0, len(observations))
	for i, o := range observations {
		if err := o.Validate(); err != nil {
			result.Rejected = append(result.Rejected, trend.RejectedRow{
				Index:   i,
				Keyword: o.Keyword,
				Reason:  err.Error(),
			})
			continue
		}
		o.ObservedAt = trend.Day(o.ObservedAt)
		valid = append(valid, o)
	}

	if len(valid) == 0 {
		return result, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(valid); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(valid) {
			end = len(valid)
		}

		batch := &pgx.Batch{}
		for _, o := range valid[start:end] {
			var rank *int
			if o.RankPosition > 0 {
				rank = &o.RankPosition
			}
			batch.Queue(
				upsertObservation,
				o.Keyword,
				string(o.Platform),
				o.ObservedAt,
				o.SearchVolume,
				o.CompetitionIndex,
				rank,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range valid[start:end] {
			var overwritten bool
			if err := br.QueryRow().Scan(&overwritten); err != nil {
				br.Close()
				return trend.BatchResult{Rejected: result.Rejected}, fmt.Errorf("error upserting observation: %w", err)
			}
			result.Accepted++
			if overwritten {
				result.DuplicatesOverwritten++
			}
		}
		if err := br.Close(); err != nil {
			return trend.BatchResult{Rejected: result.Rejected}, fmt.Errorf("error closing batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return trend.BatchResult{Rejected: result.Rejected}, fmt.Errorf("error committing batch: %w", err)
	}

	return result, nil
}

// Query returns observations matching the criteria, ordered by keyword,
// platform, then observation date
func (s *ObservationStore) Query(ctx context.Context, q trend.Query) ([]trend.Observation, error) {
	query := `
		SELECT keyword, platform, observed_at, search_volume, competition_index, rank_position
		FROM observations
		WHERE 1=1
	`

	args := []interface{}{}
	argIndex := 1

	if q.Keyword != "" {
		query += fmt.Sprintf(" AND keyword = $%d", argIndex)
		args = append(args, q.Keyword)
		argIndex++
	}

	if q.Platform != "" {
		query += fmt.Sprintf(" AND platform = $%d", argIndex)
		args = append(args, string(q.Platform))
		argIndex++
	}

	if !q.From.IsZero() {
		query += fmt.Sprintf(" AND observed_at >= $%d", argIndex)
		args = append(args, trend.Day(q.From))
		argIndex++
	}

	if !q.To.IsZero() {
		query += fmt.Sprintf(" AND observed_at <= $%d", argIndex)
		args = append(args, trend.Day(q.To))
		argIndex++
	}

	query += " ORDER BY keyword, platform, observed_at"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying observations: %w", err)
	}
	defer rows.Close()

	var observations []trend.Observation
	for rows.Next() {
		var o trend.Observation
		var platform string
		var observedAt time.Time
		var rank *int

		if err := rows.Scan(
			&o.Keyword,
			&platform,
			&observedAt,
			&o.SearchVolume,
			&o.CompetitionIndex,
			&rank,
		); err != nil {
			return nil, fmt.Errorf("error scanning observation: %w", err)
		}

		o.Platform = trend.Platform(platform)
		o.ObservedAt = trend.Day(observedAt)
		if rank != nil {
			o.RankPosition = *rank
		}

		observations = append(observations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return observations, nil
}

// Stats summarizes the stored observation set
func (s *ObservationStore) Stats(ctx context.Context) (trend.StoreStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(DISTINCT keyword),
			COUNT(DISTINCT platform),
			COALESCE(MIN(observed_at), 'epoch'::date),
			COALESCE(MAX(observed_at), 'epoch'::date)
		FROM observations
	`

	var stats trend.StoreStats
	var from, to time.Time

	if err := s.db.QueryRow(ctx, query).Scan(
		&stats.Observations,
		&stats.Keywords,
		&stats.Platforms,
		&from,
		&to,
	); err != nil {
		return trend.StoreStats{}, fmt.Errorf("error querying stats: %w", err)
	}

	if stats.Observations > 0 {
		stats.From = trend.Day(from)
		stats.To = trend.Day(to)
	}

	return stats, nil
}
