package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Campaign final states.
const (
	CampaignRunning   = "running"
	CampaignCompleted = "completed"
	CampaignStopped   = "stopped"
	CampaignError     = "error"
)

// SaveCampaign inserts a new running campaign.
func (s *SQLiteDB) SaveCampaign(c *Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.FinalState == "" {
		c.FinalState = CampaignRunning
	}
	_, err := s.db.Exec(
		`INSERT INTO campaigns (id, name, script_source, final_state, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ScriptSource, c.FinalState, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}
	return nil
}

// FinishCampaign records the final state and stats of a campaign.
func (s *SQLiteDB) FinishCampaign(id string, state string, stats CampaignStats) error {
	res, err := s.db.Exec(`
		UPDATE campaigns SET final_state = ?, total_battles = ?, wins = ?, losses = ?, draws = ?,
			best_streak = ?, worst_streak = ?, ended_at = ?
		WHERE id = ?`,
		state, stats.TotalBattles, stats.Wins, stats.Losses, stats.Draws,
		stats.BestStreak, stats.WorstStreak, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish campaign: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveCampaignBattles batch-inserts campaign battles in a single transaction.
func (s *SQLiteDB) SaveCampaignBattles(campaignID string, battles []CampaignBattle) error {
	if len(battles) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO campaign_battles (campaign_id, number, seed, ghost_id, event_id, winner, player_hp, ghost_hp, rounds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare battle statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range battles {
		_, err := stmt.Exec(campaignID, b.Number, int64(b.Seed), b.GhostID, b.EventID, b.Winner,
			b.PlayerHP, b.GhostHP, b.Rounds)
		if err != nil {
			return fmt.Errorf("failed to insert campaign battle %d: %w", b.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCampaign retrieves a campaign by ID
func (s *SQLiteDB) GetCampaign(id string) (*Campaign, error) {
	var c Campaign
	var endedAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, name, script_source, final_state, total_battles, wins, losses, draws,
			best_streak, worst_streak, created_at, ended_at
		FROM campaigns WHERE id = ?`, id).Scan(
		&c.ID, &c.Name, &c.ScriptSource, &c.FinalState, &c.TotalBattles, &c.Wins, &c.Losses, &c.Draws,
		&c.BestStreak, &c.WorstStreak, &c.CreatedAt, &endedAt)
	if err != nil {
		return nil, notFound(err, "campaign", id)
	}
	if endedAt.Valid {
		c.EndedAt = &endedAt.Time
	}
	return &c, nil
}

// ListCampaignBattles returns a campaign's battles in the order they were fought.
func (s *SQLiteDB) ListCampaignBattles(campaignID string) ([]CampaignBattle, error) {
	rows, err := s.db.Query(`
		SELECT id, campaign_id, number, seed, ghost_id, event_id, winner, player_hp, ghost_hp, rounds
		FROM campaign_battles WHERE campaign_id = ? ORDER BY number, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign battles: %w", err)
	}
	defer rows.Close()

	battles := []CampaignBattle{}
	for rows.Next() {
		var b CampaignBattle
		var seed int64
		if err := rows.Scan(&b.ID, &b.CampaignID, &b.Number, &seed, &b.GhostID, &b.EventID, &b.Winner,
			&b.PlayerHP, &b.GhostHP, &b.Rounds); err != nil {
			return nil, fmt.Errorf("failed to scan campaign battle: %w", err)
		}
		b.Seed = uint32(seed)
		battles = append(battles, b)
	}
	return battles, rows.Err()
}
