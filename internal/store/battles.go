package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const battleColumns = `id, seed, ghost_id, event_id, winner, player_hp, ghost_hp, rounds,
	request_json, result_json, digest, signature, engine_version, created_at`

// SaveBattle stores an archived battle. Missing ids and timestamps are filled in.
func (s *SQLiteDB) SaveBattle(b *Battle) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO battles (` + battleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query,
		b.ID, int64(b.Seed), b.GhostID, b.EventID, b.Winner, b.PlayerHP, b.GhostHP, b.Rounds,
		string(b.Request), string(b.Result), b.Digest, b.Signature, b.EngineVersion, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save battle: %w", err)
	}
	return nil
}

// GetBattle retrieves a battle by ID
func (s *SQLiteDB) GetBattle(id string) (*Battle, error) {
	row := s.db.QueryRow(`SELECT `+battleColumns+` FROM battles WHERE id = ?`, id)
	b, err := scanBattle(row)
	if err != nil {
		return nil, notFound(err, "battle", id)
	}
	return b, nil
}

// ListBattles retrieves battles newest first, optionally filtered by ghost and winner.
func (s *SQLiteDB) ListBattles(query BattlesQuery) (*BattlesList, error) {
	page, perPage := normalizePage(query.Page, query.PerPage, 50)

	var where []string
	var args []any
	if query.GhostID != "" {
		where = append(where, "ghost_id = ?")
		args = append(args, query.GhostID)
	}
	if query.Winner != "" {
		where = append(where, "winner = ?")
		args = append(args, query.Winner)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var totalCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM battles`+clause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count battles: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := s.db.Query(
		`SELECT `+battleColumns+` FROM battles`+clause+` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, perPage, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query battles: %w", err)
	}
	defer rows.Close()

	battles := []Battle{}
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle: %w", err)
		}
		battles = append(battles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate battles: %w", err)
	}

	return &BattlesList{
		Battles:    battles,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(totalCount, perPage),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBattle(row rowScanner) (*Battle, error) {
	var b Battle
	var seed int64
	var request, result string
	err := row.Scan(&b.ID, &seed, &b.GhostID, &b.EventID, &b.Winner, &b.PlayerHP, &b.GhostHP, &b.Rounds,
		&request, &result, &b.Digest, &b.Signature, &b.EngineVersion, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Seed = uint32(seed)
	b.Request = []byte(request)
	b.Result = []byte(result)
	return &b, nil
}
