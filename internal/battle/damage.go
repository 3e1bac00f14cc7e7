package battle

import "math"

// ResolveDamage computes the damage attacker deals to defender in one round.
// It consumes exactly two draws from next: the variance scale, then the drift.
//
// Products are wrapped in float64 conversions so the compiler never fuses them
// into the following addition; fused results would drift from recorded traces.
func ResolveDamage(attacker, defender Profile, next func() float64) float64 {
	base := attacker.Attack - float64(defender.Defense*0.4)
	moraleBonus := float64(attacker.Morale*2) - defender.Morale
	controlPenalty := float64(defender.Control * 1.5)
	variance := float64(attacker.Variance * (float64(next()*0.6) + 0.4))
	drift := float64((next() - 0.5) * 6)

	damage := base + moraleBonus - controlPenalty + attacker.Shred + variance + drift
	return math.Max(0, damage)
}
