package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
)

const (
	maxBodyBytes    = 1 << 20
	maxDeckSize     = 100
	maxArmyEntries  = 64
	maxScanLimit    = 100_000
	maxScanTimeout  = 300_000
	maxPageSize     = 500
	defaultPageSize = 50
)

// FieldError is a request validation failure on one field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldError(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a bounded JSON body into v and runs struct validation.
func (s *Server) decodeJSON(r *http.Request, v any) error {
	return s.decodeBody(r, v, false)
}

// decodeOptionalJSON is decodeJSON for endpoints where an empty body, chunked
// or not, means all defaults.
func (s *Server) decodeOptionalJSON(r *http.Request, v any) error {
	return s.decodeBody(r, v, true)
}

func (s *Server) decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if !errors.Is(err, io.EOF) {
			return fieldError("body", "invalid JSON: %v", err)
		}
		if !optional {
			return fieldError("body", "request body is required")
		}
	}
	return s.validate.Struct(v)
}

// handleDecodeError writes the response for a decodeJSON failure.
func (s *Server) handleDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		s.errorHandler.HandleValidationError(w, r, fe.Field, fe.Message)
		return
	}
	s.errorHandler.HandleServiceError(w, r, "decode", err)
}

// ValidateBattleRequest bounds the size of a battle request.
func ValidateBattleRequest(req battle.Request) error {
	if len(req.PlayerArmy) > maxArmyEntries {
		return fieldError("player_army", "too many unit types (max %d)", maxArmyEntries)
	}
	if len(req.GhostArmy) > maxArmyEntries {
		return fieldError("ghost_army", "too many unit types (max %d)", maxArmyEntries)
	}
	if len(req.PlayerDeck) > maxDeckSize {
		return fieldError("player_deck", "deck too large (max %d cards)", maxDeckSize)
	}
	if len(req.GhostDeck) > maxDeckSize {
		return fieldError("ghost_deck", "deck too large (max %d cards)", maxDeckSize)
	}
	return nil
}

// ValidateScanRequest validates a scan request and returns any validation errors
func ValidateScanRequest(req *ScanRequest) error {
	if err := ValidateBattleRequest(req.Battle); err != nil {
		return err
	}
	if req.SeedEnd < req.SeedStart {
		return fieldError("seed_end", "seed_end (%d) must be >= seed_start (%d)", req.SeedEnd, req.SeedStart)
	}
	if req.SeedEnd > scan.MaxSeed {
		return fieldError("seed_end", "seed_end exceeds %d", uint64(scan.MaxSeed))
	}
	if req.SeedEnd-req.SeedStart >= scan.MaxRange {
		return fieldError("seed_end", "seed range too large (max %d seeds)", scan.MaxRange)
	}
	if req.Metric == "" {
		req.Metric = scan.MetricMargin
	}
	if _, ok := scan.LookupMetric(req.Metric); !ok {
		return fieldError("metric", "unknown metric %q (one of: %s)", req.Metric, metricNames())
	}
	if req.TargetOp == "" {
		return fieldError("target_op", "target_op is required")
	}
	if !req.TargetOp.Valid() {
		return fieldError("target_op", "target_op must be one of: eq, gt, ge, lt, le, between, outside")
	}
	if req.TargetOp == scan.OpBetween || req.TargetOp == scan.OpOutside {
		if req.TargetVal > req.TargetVal2 {
			return fieldError("target_val2", "target_val must be <= target_val2 for '%s' operation", req.TargetOp)
		}
	}
	switch req.Winner {
	case "", battle.WinnerPlayer, battle.WinnerGhost, battle.WinnerDraw:
	default:
		return fieldError("winner", "winner must be one of: player, ghost, draw")
	}
	if req.Limit < 0 {
		return fieldError("limit", "limit must be >= 0")
	}
	if req.Limit > maxScanLimit {
		return fieldError("limit", "limit too large (max %d)", maxScanLimit)
	}
	if req.TimeoutMs < 0 {
		return fieldError("timeout_ms", "timeout_ms must be >= 0")
	}
	if req.TimeoutMs > maxScanTimeout {
		return fieldError("timeout_ms", "timeout_ms too large (max %d ms)", maxScanTimeout)
	}
	if req.Tolerance < 0 {
		return fieldError("tolerance", "tolerance must be >= 0")
	}
	return nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func metricNames() string {
	metrics := scan.Metrics()
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
