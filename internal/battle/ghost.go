package battle

import (
	"slices"

	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// GhostRequest builds a challenge against a catalog ghost. Unknown ghost ids
// fall back to the first ghost. Without a seed the ghost's own seed is used, so
// repeated challenges with the same army and deck replay identically.
func GhostRequest(cat *catalog.Catalog, ghostID string, army Composition, deck []string, seed engine.Seed) (Request, catalog.Ghost) {
	ghost := cat.Ghost(ghostID)
	if seed.IsAbsent() {
		seed = engine.NumberSeed(float64(ghost.Seed))
	}
	return Request{
		Seed:       seed,
		PlayerArmy: army,
		PlayerDeck: deck,
		GhostArmy:  CompositionOf(ghost.Units),
		GhostDeck:  slices.Clone(ghost.Deck),
	}, ghost
}
