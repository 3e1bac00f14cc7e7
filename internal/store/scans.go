package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveScan saves a scan run and its hits in a single transaction
func (s *SQLiteDB) SaveScan(run *ScanRun, hits []ScanHit) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Request) == 0 {
		run.Request = []byte("{}")
	}
	run.HitCount = len(hits)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `
		INSERT INTO scan_runs (id, ghost_id, metric, seed_start, seed_end, target_op, target_val, target_val2,
			tolerance, hit_limit, timed_out, hit_count, total_evaluated, wins, losses, draws,
			summary_min, summary_max, summary_mean, request_json, engine_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.Exec(runQuery,
		run.ID, run.GhostID, run.Metric, int64(run.SeedStart), int64(run.SeedEnd), run.TargetOp,
		run.TargetVal, run.TargetVal2, run.Tolerance, run.HitLimit, run.TimedOut, run.HitCount,
		int64(run.TotalEvaluated), int64(run.Wins), int64(run.Losses), int64(run.Draws),
		nullFloat(run.SummaryMin), nullFloat(run.SummaryMax), nullFloat(run.SummaryMean),
		string(run.Request), run.EngineVersion, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert scan run: %w", err)
	}

	if len(hits) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO scan_hits (run_id, seed, metric, winner, rounds) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare hit statement: %w", err)
		}
		defer stmt.Close()

		for _, hit := range hits {
			if _, err := stmt.Exec(run.ID, int64(hit.Seed), hit.Metric, hit.Winner, hit.Rounds); err != nil {
				return fmt.Errorf("failed to insert hit: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetScan retrieves a scan run by ID
func (s *SQLiteDB) GetScan(id string) (*ScanRun, error) {
	query := `
		SELECT id, ghost_id, metric, seed_start, seed_end, target_op, target_val, target_val2,
			tolerance, hit_limit, timed_out, hit_count, total_evaluated, wins, losses, draws,
			summary_min, summary_max, summary_mean, request_json, engine_version, created_at
		FROM scan_runs WHERE id = ?`

	var run ScanRun
	var seedStart, seedEnd, evaluated, wins, losses, draws int64
	var summaryMin, summaryMax, summaryMean sql.NullFloat64
	var request string
	err := s.db.QueryRow(query, id).Scan(
		&run.ID, &run.GhostID, &run.Metric, &seedStart, &seedEnd, &run.TargetOp, &run.TargetVal, &run.TargetVal2,
		&run.Tolerance, &run.HitLimit, &run.TimedOut, &run.HitCount, &evaluated, &wins, &losses, &draws,
		&summaryMin, &summaryMax, &summaryMean, &request, &run.EngineVersion, &run.CreatedAt)
	if err != nil {
		return nil, notFound(err, "scan", id)
	}

	run.SeedStart = uint64(seedStart)
	run.SeedEnd = uint64(seedEnd)
	run.TotalEvaluated = uint64(evaluated)
	run.Wins = uint64(wins)
	run.Losses = uint64(losses)
	run.Draws = uint64(draws)
	run.SummaryMin = floatPtr(summaryMin)
	run.SummaryMax = floatPtr(summaryMax)
	run.SummaryMean = floatPtr(summaryMean)
	run.Request = []byte(request)
	return &run, nil
}

// GetScanHits retrieves hits in seed order with the distance to the previous hit.
// The first hit on a page is measured against the last hit of the page before.
func (s *SQLiteDB) GetScanHits(runID string, page, perPage int) (*HitsPage, error) {
	page, perPage = normalizePage(page, perPage, 100)

	var exists int
	if err := s.db.QueryRow(`SELECT 1 FROM scan_runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, notFound(err, "scan", runID)
	}

	var totalCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM scan_hits WHERE run_id = ?`, runID).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count hits: %w", err)
	}

	offset := (page - 1) * perPage
	query := `
		SELECT id, run_id, seed, metric, winner, rounds,
			LAG(seed) OVER (ORDER BY seed, id) AS prev_seed
		FROM scan_hits
		WHERE run_id = ?
		ORDER BY seed, id
		LIMIT ? OFFSET ?`
	rows, err := s.db.Query(query, runID, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query hits: %w", err)
	}
	defer rows.Close()

	hits := []HitWithDelta{}
	for rows.Next() {
		var hit HitWithDelta
		var seed int64
		var prev sql.NullInt64
		if err := rows.Scan(&hit.ID, &hit.RunID, &seed, &hit.Metric, &hit.Winner, &hit.Rounds, &prev); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hit.Seed = uint32(seed)
		if prev.Valid {
			delta := uint32(seed - prev.Int64)
			hit.DeltaSeed = &delta
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hits: %w", err)
	}

	return &HitsPage{
		Hits:       hits,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(totalCount, perPage),
	}, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
