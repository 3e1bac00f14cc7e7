package signing

import (
	"bytes"
	"encoding/json"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
)

// ReplayReport compares a stored result with a fresh simulation of its request.
type ReplayReport struct {
	Match      bool          `json:"match"`
	Mismatches []string      `json:"mismatches,omitempty"`
	Expected   battle.Result `json:"expected"`
	Actual     battle.Result `json:"actual"`
}

// Replay re-simulates the record's request against cat and reports which parts
// of the result, if any, differ byte for byte.
func Replay(cat *catalog.Catalog, r Record) ReplayReport {
	actual := battle.Simulate(cat, r.Request)
	report := ReplayReport{Expected: r.Result, Actual: actual}

	if actual.Seed != r.Result.Seed || actual.Seed != r.Seed {
		report.Mismatches = append(report.Mismatches, "seed")
	}
	if !sameJSON(actual.Rounds, r.Result.Rounds) {
		report.Mismatches = append(report.Mismatches, "rounds")
	}
	if actual.Winner != r.Result.Winner {
		report.Mismatches = append(report.Mismatches, "winner")
	}
	if !sameJSON(actual.Remaining, r.Result.Remaining) {
		report.Mismatches = append(report.Mismatches, "remaining")
	}
	report.Match = len(report.Mismatches) == 0
	return report
}

func sameJSON(a, b any) bool {
	x, err := json.Marshal(a)
	if err != nil {
		return false
	}
	y, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(x, y)
}
