package battle

import (
	"errors"
	"fmt"
	"math"

	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
)

var (
	ErrUnknownEvent = errors.New("unknown realm event")
	ErrUnknownRelic = errors.New("unknown relic")
)

// supplyFloor is the multiplier a side fights at with empty stores.
const supplyFloor = 0.7

// Stack combines modifier sets: multipliers multiply in argument order and
// bonuses add. A multiplier that no set specifies stays unset.
func Stack(mods ...Modifiers) Modifiers {
	var out Modifiers
	for _, m := range mods {
		out.AttackMultiplier = stackMultiplier(out.AttackMultiplier, m.AttackMultiplier)
		out.DefenseMultiplier = stackMultiplier(out.DefenseMultiplier, m.DefenseMultiplier)
		out.MoraleBonus += m.MoraleBonus
		out.HealBonus += m.HealBonus
		out.ControlBonus += m.ControlBonus
		out.VarianceBonus += m.VarianceBonus
		out.LeechBonus += m.LeechBonus
	}
	return out
}

func stackMultiplier(acc, m *float64) *float64 {
	switch {
	case m == nil:
		return acc
	case acc == nil:
		return catalog.Float(*m)
	default:
		return catalog.Float(*acc * *m)
	}
}

// EventModifiers returns the per-side modifiers a realm event grants.
func EventModifiers(event catalog.RealmEvent) (player, ghost Modifiers) {
	return event.BattleModifiers.Player, event.BattleModifiers.Ghost
}

// RelicModifiers converts relic battle bonuses into a modifier set. Multiplier
// deltas become 1+delta and compound across relics.
func RelicModifiers(relics ...catalog.Relic) Modifiers {
	sets := make([]Modifiers, 0, len(relics))
	for _, r := range relics {
		b := r.Battle
		m := Modifiers{
			MoraleBonus:   b.MoraleBonus,
			HealBonus:     b.HealBonus,
			ControlBonus:  b.ControlBonus,
			VarianceBonus: b.VarianceBonus,
			LeechBonus:    b.LeechBonus,
		}
		if b.AttackMultiplier != 0 {
			m.AttackMultiplier = catalog.Float(1 + b.AttackMultiplier)
		}
		if b.DefenseMultiplier != 0 {
			m.DefenseMultiplier = catalog.Float(1 + b.DefenseMultiplier)
		}
		sets = append(sets, m)
	}
	return Stack(sets...)
}

// SupplyModifiers weakens an army whose food or gold stock cannot cover its
// upkeep. Attack and defense scale linearly from 70% with empty stores to 100%
// when both resources are fully covered. Resources with no upkeep are ignored.
func SupplyModifiers(upkeep catalog.Upkeep, stock map[string]float64) Modifiers {
	ratio := 1.0
	covered := false
	for _, resource := range []string{"food", "gold"} {
		need := upkeep[resource]
		if need <= 0 {
			continue
		}
		covered = true
		r := math.Max(0, stock[resource]) / need
		ratio = math.Min(ratio, r)
	}
	if !covered || ratio >= 1 {
		return Modifiers{}
	}
	factor := supplyFloor + float64((1-supplyFloor)*ratio)
	return Modifiers{
		AttackMultiplier:  catalog.Float(factor),
		DefenseMultiplier: catalog.Float(factor),
	}
}

// Conditions describe the world state a battle is fought under.
type Conditions struct {
	EventID string             `json:"event,omitempty" validate:"omitempty,max=64"`
	Relics  []string           `json:"relics,omitempty" validate:"omitempty,max=16,dive,required"`
	Stock   map[string]float64 `json:"stock,omitempty"`
}

// Apply folds the conditions into the request's modifiers. The event affects
// both sides; relics and supplies only the player.
func (c Conditions) Apply(cat *catalog.Catalog, req Request) (Request, error) {
	player := []Modifiers{req.PlayerModifiers}
	ghost := []Modifiers{req.GhostModifiers}

	if c.EventID != "" {
		event, ok := cat.LookupEvent(c.EventID)
		if !ok {
			return req, fmt.Errorf("%w: %s", ErrUnknownEvent, c.EventID)
		}
		p, g := EventModifiers(event)
		player = append(player, p)
		ghost = append(ghost, g)
	}

	relics := make([]catalog.Relic, 0, len(c.Relics))
	for _, id := range c.Relics {
		relic, ok := cat.Relic(id)
		if !ok {
			return req, fmt.Errorf("%w: %s", ErrUnknownRelic, id)
		}
		relics = append(relics, relic)
	}
	if len(relics) > 0 {
		player = append(player, RelicModifiers(relics...))
	}

	if c.Stock != nil {
		upkeep := Aggregate(cat, req.PlayerArmy).Upkeep
		player = append(player, SupplyModifiers(upkeep, c.Stock))
	}

	req.PlayerModifiers = Stack(player...)
	req.GhostModifiers = Stack(ghost...)
	return req, nil
}
