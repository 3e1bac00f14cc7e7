package battle

import "github.com/MJE43/rune-ration-replay-go/internal/catalog"

// Aggregate sums the stats of every unit in the composition. Unknown unit ids
// and nonpositive counts contribute nothing. The composition is not modified.
func Aggregate(cat *catalog.Catalog, army Composition) Stats {
	stats := Stats{Upkeep: catalog.Upkeep{}}
	for id, squad := range army {
		unit, ok := cat.Unit(id)
		if !ok || squad.Count <= 0 {
			continue
		}
		n := float64(squad.Count)
		stats.Attack += float64(float64(unit.Attack) * n)
		stats.Defense += float64(float64(unit.Defense) * n)
		stats.HP += float64(float64(unit.HP) * n)
		for resource, cost := range unit.Upkeep {
			stats.Upkeep[resource] += float64(cost * n)
		}
	}
	return stats
}

// ApplyModifiers scales attack and defense by the side's multipliers and seeds
// the derived combat fields from its bonuses. It runs once per side, before the
// first round.
func ApplyModifiers(stats Stats, mods Modifiers) Profile {
	return Profile{
		Attack:   float64(stats.Attack * multiplier(mods.AttackMultiplier)),
		Defense:  float64(stats.Defense * multiplier(mods.DefenseMultiplier)),
		Morale:   mods.MoraleBonus,
		Heal:     mods.HealBonus,
		Control:  mods.ControlBonus,
		Variance: mods.VarianceBonus,
		Leech:    mods.LeechBonus,
	}
}

func multiplier(m *float64) float64 {
	if m == nil {
		return 1
	}
	return *m
}
