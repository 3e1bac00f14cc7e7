package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

// handleScan sweeps a seed range for battles matching the target. A scan that
// runs out of time still answers with its partial result.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.handleDecodeError(w, r, err)
		return
	}
	if err := ValidateScanRequest(&req); err != nil {
		s.handleDecodeError(w, r, err)
		return
	}
	if req.Save && !s.requireDB(w, r) {
		return
	}

	cat := s.catalog.Current()
	template := req.Battle
	if req.GhostID != "" {
		if _, ok := cat.LookupGhost(req.GhostID); !ok {
			s.errorHandler.HandleTypedError(w, r, http.StatusNotFound, ErrTypeGhostNotFound,
				fmt.Sprintf("ghost %q not found", req.GhostID), nil)
			return
		}
		army, deck := template.PlayerArmy, template.PlayerDeck
		if len(army) == 0 {
			army = battle.CompositionOf(cat.DefaultArmy())
		}
		if deck == nil {
			deck = cat.DefaultDeck()
		}
		template, _ = battle.GhostRequest(cat, req.GhostID, army, deck, engine.Seed{})
	}
	template, err := req.Conditions.Apply(cat, template)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "scan", err)
		return
	}

	scanReq := req.Request
	scanReq.Battle = template

	requestID := middleware.GetReqID(r.Context())
	s.logger.Info("scan_request",
		"request_id", requestID,
		"ghost", req.GhostID,
		"seed_start", req.SeedStart,
		"seed_end", req.SeedEnd,
		"metric", req.Metric,
		"target_op", req.TargetOp,
		"target_val", req.TargetVal,
		"limit", req.Limit,
	)

	result, err := s.scanner.Scan(r.Context(), cat, scanReq)
	if err != nil && !(errors.Is(err, scan.ErrTimeout) && result != nil) {
		s.errorHandler.HandleServiceError(w, r, "scan", err)
		return
	}

	resp := ScanResponse{
		Hits:          result.Hits,
		Summary:       result.Summary,
		EngineVersion: version.EngineVersion,
		Echo:          req,
	}
	if req.Save {
		run, err := s.archiveScan(req, scanReq, result)
		if err != nil {
			s.errorHandler.HandleServiceError(w, r, "archive scan", err)
			return
		}
		resp.ScanID = run.ID
	}

	s.logger.Info("scan_completed",
		"request_id", requestID,
		"evaluated", result.Summary.TotalEvaluated,
		"hits_found", result.Summary.HitsFound,
		"hits_returned", len(result.Hits),
		"timed_out", result.Summary.TimedOut,
	)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) archiveScan(req ScanRequest, scanReq scan.Request, result *scan.Result) (*store.ScanRun, error) {
	reqJSON, err := json.Marshal(scanReq)
	if err != nil {
		return nil, fmt.Errorf("encode scan request: %w", err)
	}
	summary := result.Summary
	run := &store.ScanRun{
		GhostID:        req.GhostID,
		Metric:         string(scanReq.Metric),
		SeedStart:      scanReq.SeedStart,
		SeedEnd:        scanReq.SeedEnd,
		TargetOp:       string(scanReq.TargetOp),
		TargetVal:      scanReq.TargetVal,
		TargetVal2:     scanReq.TargetVal2,
		Tolerance:      scanReq.Tolerance,
		HitLimit:       scanReq.Limit,
		TimedOut:       summary.TimedOut,
		TotalEvaluated: summary.TotalEvaluated,
		Wins:           summary.Wins,
		Losses:         summary.Losses,
		Draws:          summary.Draws,
		Request:        reqJSON,
		EngineVersion:  version.EngineVersion,
	}
	if summary.HitsFound > 0 {
		run.SummaryMin = &summary.MinMetric
		run.SummaryMax = &summary.MaxMetric
		run.SummaryMean = &summary.MeanMetric
	}

	hits := make([]store.ScanHit, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = store.ScanHit{Seed: h.Seed, Metric: h.Metric, Winner: string(h.Winner), Rounds: h.Rounds}
	}
	if err := s.db.SaveScan(run, hits); err != nil {
		return nil, err
	}
	return run, nil
}

// handleGetScan returns a stored scan run
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.db.GetScan(id)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "scan "+id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handleGetScanHits pages through a stored scan's hits with seed deltas
func (s *Server) handleGetScanHits(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	page, perPage, err := pageParams(q.Get("page"), q.Get("per_page"))
	if err != nil {
		s.handleDecodeError(w, r, err)
		return
	}
	hits, err := s.db.GetScanHits(id, page, perPage)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "scan "+id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, hits)
}

// handleExportScanHits writes every hit of a stored scan as CSV
func (s *Server) handleExportScanHits(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	hits, err := s.allScanHits(id)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "scan "+id, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scan_%s.csv"`, id))
	w.Header().Set("X-Engine-Version", version.EngineVersion)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"seed", "delta_seed", "metric", "winner", "rounds"})
	for _, h := range hits {
		delta := ""
		if h.DeltaSeed != nil {
			delta = strconv.FormatUint(uint64(*h.DeltaSeed), 10)
		}
		row := []string{
			strconv.FormatUint(uint64(h.Seed), 10),
			delta,
			strconv.FormatFloat(h.Metric, 'f', -1, 64),
			h.Winner,
			strconv.Itoa(h.Rounds),
		}
		if err := cw.Write(row); err != nil {
			s.logger.Warn("scan_export_failed", "scan_id", id, "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Warn("scan_export_failed", "scan_id", id, "error", err)
	}
}

// allScanHits fetches every hit of a run in pages.
func (s *Server) allScanHits(runID string) ([]store.HitWithDelta, error) {
	var out []store.HitWithDelta
	for page := 1; ; page++ {
		p, err := s.db.GetScanHits(runID, page, maxPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Hits...)
		if page >= p.TotalPages {
			return out, nil
		}
	}
}
