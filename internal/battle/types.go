// Package battle implements the deterministic combat simulation: army
// aggregation, one-time side modifiers, per-round card effects, damage
// resolution and the five-round loop.
package battle

import (
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// MaxRounds bounds every simulation.
const MaxRounds = 5

// NoCardName and NoCardLog are reported for a side that played nothing.
const (
	NoCardName = "No Card"
	NoCardLog  = "No card played."
)

// Modifiers are the side-wide adjustments applied once before combat.
type Modifiers = catalog.Modifiers

// Squad is one entry of a composition.
type Squad struct {
	Count int `json:"count"`
}

// Composition maps a unit id to how many of that unit a side fields.
type Composition map[string]Squad

// CompositionOf builds a composition from plain unit counts.
func CompositionOf(counts map[string]int) Composition {
	c := make(Composition, len(counts))
	for id, n := range counts {
		c[id] = Squad{Count: n}
	}
	return c
}

// Stats are the aggregated totals of a composition.
type Stats struct {
	Attack  float64        `json:"attack"`
	Defense float64        `json:"defense"`
	HP      float64        `json:"hp"`
	Upkeep  catalog.Upkeep `json:"upkeep"`
}

// Profile is a side's combat snapshot for a single round.
type Profile struct {
	Attack   float64 `json:"attack"`
	Defense  float64 `json:"defense"`
	Morale   float64 `json:"morale"`
	Shred    float64 `json:"shred"`
	Heal     float64 `json:"heal"`
	Control  float64 `json:"control"`
	Leech    float64 `json:"leech"`
	Variance float64 `json:"variance"`
	Log      string  `json:"log,omitempty"`
}

// Winner tags the outcome of a simulation.
type Winner string

const (
	WinnerPlayer Winner = "player"
	WinnerGhost  Winner = "ghost"
	WinnerDraw   Winner = "draw"
)

// RoundRecord is the reported outcome of one round. Numbers are rounded to one
// decimal place.
type RoundRecord struct {
	Round          int     `json:"round"`
	PlayerCard     string  `json:"player_card"`
	PlayerCardText string  `json:"player_card_text"`
	GhostCard      string  `json:"ghost_card"`
	GhostCardText  string  `json:"ghost_card_text"`
	PlayerDamage   float64 `json:"player_damage"`
	GhostDamage    float64 `json:"ghost_damage"`
	PlayerHP       float64 `json:"player_hp"`
	GhostHP        float64 `json:"ghost_hp"`
}

// Remaining is the final hp of both sides, rounded to one decimal place.
type Remaining struct {
	PlayerHP float64 `json:"player_hp"`
	GhostHP  float64 `json:"ghost_hp"`
}

// Result is the immutable output of Simulate.
type Result struct {
	Rounds    []RoundRecord `json:"rounds"`
	Winner    Winner        `json:"winner"`
	Remaining Remaining     `json:"remaining"`
	Seed      uint32        `json:"seed"`
}

// Margin is the rounded hp lead of the player; negative when the ghost leads.
func (r Result) Margin() float64 {
	return Round1(r.Remaining.PlayerHP - r.Remaining.GhostHP)
}

// PlayerDamage totals the rounded damage the player dealt.
func (r Result) PlayerDamage() float64 {
	var total float64
	for _, rr := range r.Rounds {
		total += rr.PlayerDamage
	}
	return Round1(total)
}

// Request is everything a simulation depends on.
type Request struct {
	Seed            engine.Seed `json:"seed"`
	PlayerArmy      Composition `json:"player_army"`
	PlayerDeck      []string    `json:"player_deck"`
	GhostArmy       Composition `json:"ghost_army"`
	GhostDeck       []string    `json:"ghost_deck"`
	PlayerModifiers Modifiers   `json:"player_modifiers"`
	GhostModifiers  Modifiers   `json:"ghost_modifiers"`
}
