package scripting

import "github.com/MJE43/rune-ration-replay-go/internal/battle"

// Statistics tracks campaign-level battle statistics.
type Statistics struct {
	Battles int `json:"battles"`
	Wins    int `json:"wins"`
	Losses  int `json:"losses"`
	Draws   int `json:"draws"`

	WinStreak  int `json:"win_streak"`
	LoseStreak int `json:"lose_streak"`
	// Positive = win streak, negative = lose streak, zero after a draw.
	CurrentStreak int `json:"current_streak"`

	BestStreak  int `json:"best_streak"`
	WorstStreak int `json:"worst_streak"`
}

// RecordBattle updates the counters and streaks with one outcome.
func (s *Statistics) RecordBattle(winner battle.Winner) {
	s.Battles++

	switch winner {
	case battle.WinnerPlayer:
		s.Wins++
		s.WinStreak++
		s.LoseStreak = 0
		s.CurrentStreak = s.WinStreak
	case battle.WinnerGhost:
		s.Losses++
		s.LoseStreak++
		s.WinStreak = 0
		s.CurrentStreak = -s.LoseStreak
	default:
		s.Draws++
		s.WinStreak = 0
		s.LoseStreak = 0
		s.CurrentStreak = 0
	}

	if s.CurrentStreak > s.BestStreak {
		s.BestStreak = s.CurrentStreak
	}
	if s.CurrentStreak < s.WorstStreak {
		s.WorstStreak = s.CurrentStreak
	}
}

// WinRate is wins over battles fought, or zero before the first battle.
func (s *Statistics) WinRate() float64 {
	if s.Battles == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Battles)
}
