// Package store archives battles, seed scans and scripted campaigns in SQLite.
package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// DB represents the database interface
type DB interface {
	Close() error
	Migrate() error
	Ping() error

	SaveBattle(b *Battle) error
	GetBattle(id string) (*Battle, error)
	ListBattles(query BattlesQuery) (*BattlesList, error)

	SaveScan(run *ScanRun, hits []ScanHit) error
	GetScan(id string) (*ScanRun, error)
	GetScanHits(runID string, page, perPage int) (*HitsPage, error)

	SaveCampaign(c *Campaign) error
	FinishCampaign(id string, state string, stats CampaignStats) error
	SaveCampaignBattles(campaignID string, battles []CampaignBattle) error
	GetCampaign(id string) (*Campaign, error)
	ListCampaignBattles(campaignID string) ([]CampaignBattle, error)
}

// Battle is an archived, signed simulation.
type Battle struct {
	ID            string          `json:"id"`
	Seed          uint32          `json:"seed"`
	GhostID       string          `json:"ghost_id,omitempty"`
	EventID       string          `json:"event_id,omitempty"`
	Winner        string          `json:"winner"`
	PlayerHP      float64         `json:"player_hp"`
	GhostHP       float64         `json:"ghost_hp"`
	Rounds        int             `json:"rounds"`
	Request       json.RawMessage `json:"request"`
	Result        json.RawMessage `json:"result"`
	Digest        string          `json:"digest"`
	Signature     string          `json:"signature,omitempty"`
	EngineVersion string          `json:"engine_version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BattlesQuery represents query parameters for listing battles
type BattlesQuery struct {
	GhostID string `json:"ghost_id,omitempty"`
	Winner  string `json:"winner,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// BattlesList represents a paginated battles response
type BattlesList struct {
	Battles    []Battle `json:"battles"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
}

// ScanRun represents a persisted seed scan
type ScanRun struct {
	ID             string          `json:"id"`
	GhostID        string          `json:"ghost_id,omitempty"`
	Metric         string          `json:"metric"`
	SeedStart      uint64          `json:"seed_start"`
	SeedEnd        uint64          `json:"seed_end"`
	TargetOp       string          `json:"target_op"`
	TargetVal      float64         `json:"target_val"`
	TargetVal2     float64         `json:"target_val2"`
	Tolerance      float64         `json:"tolerance"`
	HitLimit       int             `json:"hit_limit"`
	TimedOut       bool            `json:"timed_out"`
	HitCount       int             `json:"hit_count"`
	TotalEvaluated uint64          `json:"total_evaluated"`
	Wins           uint64          `json:"wins"`
	Losses         uint64          `json:"losses"`
	Draws          uint64          `json:"draws"`
	SummaryMin     *float64        `json:"summary_min"`
	SummaryMax     *float64        `json:"summary_max"`
	SummaryMean    *float64        `json:"summary_mean"`
	Request        json.RawMessage `json:"request"`
	EngineVersion  string          `json:"engine_version"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ScanHit represents a single matching seed
type ScanHit struct {
	ID     int64   `json:"id"`
	RunID  string  `json:"run_id"`
	Seed   uint32  `json:"seed"`
	Metric float64 `json:"metric"`
	Winner string  `json:"winner"`
	Rounds int     `json:"rounds"`
}

// HitWithDelta is a hit with the seed distance to the previous hit
type HitWithDelta struct {
	ScanHit
	DeltaSeed *uint32 `json:"delta_seed,omitempty"`
}

// HitsPage represents a paginated hits response
type HitsPage struct {
	Hits       []HitWithDelta `json:"hits"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
}

// Campaign is a scripted sequence of battles.
type Campaign struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ScriptSource string     `json:"script_source"`
	FinalState   string     `json:"final_state"`
	TotalBattles int        `json:"total_battles"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Draws        int        `json:"draws"`
	BestStreak   int        `json:"best_streak"`
	WorstStreak  int        `json:"worst_streak"`
	CreatedAt    time.Time  `json:"created_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// CampaignStats holds final stats for ending a campaign.
type CampaignStats struct {
	TotalBattles int
	Wins         int
	Losses       int
	Draws        int
	BestStreak   int
	WorstStreak  int
}

// CampaignBattle is one battle fought by a campaign script.
type CampaignBattle struct {
	ID         int64   `json:"id"`
	CampaignID string  `json:"campaign_id"`
	Number     int     `json:"number"`
	Seed       uint32  `json:"seed"`
	GhostID    string  `json:"ghost_id"`
	EventID    string  `json:"event_id,omitempty"`
	Winner     string  `json:"winner"`
	PlayerHP   float64 `json:"player_hp"`
	GhostHP    float64 `json:"ghost_hp"`
	Rounds     int     `json:"rounds"`
}

func totalPages(count, perPage int) int {
	return (count + perPage - 1) / perPage
}
