package store

import (
	"log/slog"
	"sync"
)

// CampaignRecorder buffers campaign battles and writes them to the store in
// batches. It is called from the scripting engine's battle loop.
type CampaignRecorder struct {
	db         DB
	campaignID string
	logger     *slog.Logger
	mu         sync.Mutex
	buffer     []CampaignBattle
	number     int
	flushSize  int
}

// NewCampaignRecorder creates a recorder for the given campaign.
// flushSize controls how many battles are buffered before a batch insert.
func NewCampaignRecorder(db DB, campaignID string, flushSize int, logger *slog.Logger) *CampaignRecorder {
	if flushSize <= 0 {
		flushSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CampaignRecorder{
		db:         db,
		campaignID: campaignID,
		logger:     logger,
		buffer:     make([]CampaignBattle, 0, flushSize),
		flushSize:  flushSize,
	}
}

// RecordBattle adds a battle to the buffer and flushes if the buffer is full.
func (r *CampaignRecorder) RecordBattle(seed uint32, ghostID, eventID, winner string, playerHP, ghostHP float64, rounds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.number++
	r.buffer = append(r.buffer, CampaignBattle{
		CampaignID: r.campaignID,
		Number:     r.number,
		Seed:       seed,
		GhostID:    ghostID,
		EventID:    eventID,
		Winner:     winner,
		PlayerHP:   playerHP,
		GhostHP:    ghostHP,
		Rounds:     rounds,
	})

	if len(r.buffer) >= r.flushSize {
		r.flushLocked()
	}
}

// Flush persists any remaining buffered battles.
func (r *CampaignRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *CampaignRecorder) flushLocked() {
	if len(r.buffer) == 0 {
		return
	}
	if err := r.db.SaveCampaignBattles(r.campaignID, r.buffer); err != nil {
		r.logger.Error("campaign_flush_failed", "campaign_id", r.campaignID, "battles", len(r.buffer), "error", err)
	}
	r.buffer = r.buffer[:0]
}
