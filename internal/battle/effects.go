package battle

import (
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// drawCard picks one card id from deck. An empty deck consumes no draw; an id
// missing from the catalog consumes a draw and yields no card.
func drawCard(cat *catalog.Catalog, deck []string, next func() float64) *catalog.Card {
	id, ok := engine.Pick(deck, next)
	if !ok {
		return nil
	}
	card, ok := cat.Card(id)
	if !ok {
		return nil
	}
	return &card
}

// ApplyCard layers a card's effect onto the side's base profile for one round.
// A nil card leaves the profile unchanged apart from the log line.
func ApplyCard(base Profile, card *catalog.Card) Profile {
	if card == nil {
		base.Log = NoCardLog
		return base
	}
	effect := card.Effect
	return Profile{
		Attack:   base.Attack + effect.AttackBoost,
		Defense:  base.Defense + effect.DefenseBoost,
		Morale:   base.Morale + effect.Morale,
		Shred:    base.Shred + effect.Shred,
		Heal:     base.Heal + effect.Heal,
		Control:  base.Control + effect.Control,
		Leech:    base.Leech + effect.Leech,
		Variance: base.Variance + cardVariance(effect),
		Log:      effect.Description,
	}
}

// cardVariance is the card's explicit variance, or 1.5x its own morale.
func cardVariance(effect catalog.Effect) float64 {
	if effect.Variance != nil {
		return *effect.Variance
	}
	if effect.Morale != 0 {
		return float64(effect.Morale * 1.5)
	}
	return 0
}

func cardName(card *catalog.Card) string {
	if card == nil {
		return NoCardName
	}
	return card.Name
}
