package api

import (
	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
	"github.com/MJE43/rune-ration-replay-go/internal/scripting"
	"github.com/MJE43/rune-ration-replay-go/internal/signing"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	ErrTypeValidation    = "validation_error"
	ErrTypeInvalidParams = "invalid_params"

	ErrTypeNotFound      = "not_found"
	ErrTypeGhostNotFound = "ghost_not_found"
	ErrTypeVerification  = "verification_failed"
	ErrTypeScript        = "script_error"

	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryBattle     ErrorCategory = "battle"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, ErrTypeInvalidParams:
		return CategoryValidation
	case ErrTypeNotFound, ErrTypeGhostNotFound, ErrTypeVerification, ErrTypeScript:
		return CategoryBattle
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// CatalogResponse lists the catalog snapshot used for new battles.
type CatalogResponse struct {
	Units         []catalog.Unit       `json:"units"`
	Cards         []catalog.Card       `json:"cards"`
	Ghosts        []catalog.Ghost      `json:"ghosts"`
	Events        []catalog.RealmEvent `json:"events"`
	Relics        []catalog.Relic      `json:"relics"`
	DefaultArmy   map[string]int       `json:"default_army"`
	DefaultDeck   []string             `json:"default_deck"`
	EngineVersion string               `json:"engine_version"`
}

// GhostsResponse lists the ghost armies that can be challenged.
type GhostsResponse struct {
	Ghosts        []catalog.Ghost `json:"ghosts"`
	EngineVersion string          `json:"engine_version"`
}

// SimulateRequest is a full battle request plus optional world conditions.
type SimulateRequest struct {
	battle.Request
	Conditions battle.Conditions `json:"conditions"`
	Save       bool              `json:"save,omitempty"`
}

// ChallengeRequest fights the player's army against a catalog ghost. Army and
// deck default to the catalog defaults; the seed defaults to the ghost's.
type ChallengeRequest struct {
	Seed       engine.Seed       `json:"seed"`
	Army       map[string]int    `json:"army,omitempty" validate:"omitempty,max=64"`
	Deck       []string          `json:"deck,omitempty" validate:"omitempty,max=100"`
	Conditions battle.Conditions `json:"conditions"`
	Save       bool              `json:"save,omitempty"`
}

// BattleResponse is the outcome of a simulate or challenge call.
type BattleResponse struct {
	Result        battle.Result  `json:"result"`
	GhostID       string         `json:"ghost_id,omitempty"`
	BattleID      string         `json:"battle_id,omitempty"`
	Digest        string         `json:"digest"`
	Signature     string         `json:"signature,omitempty"`
	EngineVersion string         `json:"engine_version"`
	Request       battle.Request `json:"request"`
}

// VerifyRequest names a stored battle, or carries a record inline.
type VerifyRequest struct {
	BattleID  string          `json:"battle_id,omitempty" validate:"required_without=Record"`
	Record    *signing.Record `json:"record,omitempty" validate:"required_without=BattleID"`
	Signature string          `json:"signature,omitempty" validate:"omitempty,hexadecimal"`
}

// VerifyResponse reports whether a replay reproduced the recorded result.
type VerifyResponse struct {
	Match          bool          `json:"match"`
	Mismatches     []string      `json:"mismatches,omitempty"`
	Digest         string        `json:"digest"`
	DigestMatch    *bool         `json:"digest_match,omitempty"`
	SignatureValid *bool         `json:"signature_valid,omitempty"`
	Expected       battle.Result `json:"expected"`
	Actual         battle.Result `json:"actual"`
	EngineVersion  string        `json:"engine_version"`
}

// ScanRequest scans seeds for a battle, optionally against a catalog ghost.
type ScanRequest struct {
	scan.Request
	GhostID    string            `json:"ghost,omitempty" validate:"omitempty,max=64"`
	Conditions battle.Conditions `json:"conditions"`
	Save       bool              `json:"save,omitempty"`
}

// ScanResponse represents the complete scan response
type ScanResponse struct {
	ScanID        string       `json:"scan_id,omitempty"`
	Hits          []scan.Hit   `json:"hits"`
	Summary       scan.Summary `json:"summary"`
	EngineVersion string       `json:"engine_version"`
	Echo          ScanRequest  `json:"echo"`
}

// CampaignRequest runs a campaign script.
type CampaignRequest struct {
	Name    string            `json:"name" validate:"max=128"`
	Script  string            `json:"script" validate:"required,max=65536"`
	Options scripting.Options `json:"options"`
}

// CampaignResponse is a finished campaign run.
type CampaignResponse struct {
	CampaignID    string             `json:"campaign_id,omitempty"`
	Outcome       *scripting.Outcome `json:"outcome"`
	EngineVersion string             `json:"engine_version"`
}

// CampaignDetail is a stored campaign with its battles.
type CampaignDetail struct {
	Campaign      *store.Campaign        `json:"campaign"`
	Battles       []store.CampaignBattle `json:"battles"`
	EngineVersion string                 `json:"engine_version"`
}

// ReplayMessage is one websocket frame of a battle replay.
type ReplayMessage struct {
	Type     string              `json:"type"`
	BattleID string              `json:"battle_id,omitempty"`
	Seed     uint32              `json:"seed,omitempty"`
	Round    *battle.RoundRecord `json:"round,omitempty"`
	Result   *battle.Result      `json:"result,omitempty"`
	Match    *bool               `json:"match,omitempty"`
}

// Replay message types.
const (
	ReplayStart  = "start"
	ReplayRound  = "round"
	ReplayResult = "result"
)
