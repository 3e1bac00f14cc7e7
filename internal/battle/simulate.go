package battle

import (
	"math"

	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// Simulate runs a battle to completion. It is a pure function of the catalog
// snapshot and the request: the same inputs always produce the same Result.
// Malformed inputs degrade to zero contributions rather than failing.
func Simulate(cat *catalog.Catalog, req Request) Result {
	seed := engine.NormalizeSeed(req.Seed)
	next := engine.NewGenerator(seed).Next

	playerStats := Aggregate(cat, req.PlayerArmy)
	ghostStats := Aggregate(cat, req.GhostArmy)
	playerBase := ApplyModifiers(playerStats, req.PlayerModifiers)
	ghostBase := ApplyModifiers(ghostStats, req.GhostModifiers)

	playerHP := playerStats.HP
	ghostHP := ghostStats.HP
	rounds := make([]RoundRecord, 0, MaxRounds)

	for round := 1; round <= MaxRounds; round++ {
		playerCard := drawCard(cat, req.PlayerDeck, next)
		ghostCard := drawCard(cat, req.GhostDeck, next)

		player := ApplyCard(playerBase, playerCard)
		ghost := ApplyCard(ghostBase, ghostCard)

		playerDamage := ResolveDamage(player, ghost, next)
		ghostDamage := ResolveDamage(ghost, player, next)

		ghostHP = math.Max(0, ghostHP-playerDamage+ghost.Heal)
		playerHP = math.Max(0, playerHP-ghostDamage+player.Heal)

		// Leech only ever favours the player.
		if player.Leech != 0 {
			playerHP = math.Min(playerStats.HP, playerHP+player.Leech)
			ghostHP = math.Max(0, ghostHP-float64(player.Leech*0.5))
		}

		rounds = append(rounds, RoundRecord{
			Round:          round,
			PlayerCard:     cardName(playerCard),
			PlayerCardText: player.Log,
			GhostCard:      cardName(ghostCard),
			GhostCardText:  ghost.Log,
			PlayerDamage:   Round1(playerDamage),
			GhostDamage:    Round1(ghostDamage),
			PlayerHP:       Round1(playerHP),
			GhostHP:        Round1(ghostHP),
		})

		if playerHP <= 0 || ghostHP <= 0 {
			break
		}
	}

	return Result{
		Rounds:    rounds,
		Winner:    decide(playerHP, ghostHP),
		Remaining: Remaining{PlayerHP: Round1(playerHP), GhostHP: Round1(ghostHP)},
		Seed:      seed,
	}
}

// decide compares unrounded hp; only exact equality is a draw.
func decide(playerHP, ghostHP float64) Winner {
	switch {
	case playerHP == ghostHP:
		return WinnerDraw
	case playerHP > ghostHP:
		return WinnerPlayer
	default:
		return WinnerGhost
	}
}
