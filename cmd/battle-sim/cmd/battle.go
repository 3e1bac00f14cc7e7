package cmd

import (
	"github.com/spf13/pflag"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// battleFlags describe a challenge against a catalog ghost.
type battleFlags struct {
	ghost  string
	army   map[string]int
	deck   []string
	event  string
	relics []string
}

func (f *battleFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ghost, "ghost", "g", "", "ghost army to challenge (default: first catalog ghost)")
	fs.StringToIntVar(&f.army, "army", nil, "player army as unit=count pairs (default: catalog default army)")
	fs.StringSliceVar(&f.deck, "deck", nil, "player deck as card ids (default: catalog default deck)")
	fs.StringVarP(&f.event, "event", "e", "", "realm event in effect")
	fs.StringSliceVar(&f.relics, "relics", nil, "relics owned by the player")
}

// request builds the battle for seed with the flag values applied.
func (f *battleFlags) request(cat *catalog.Catalog, seed engine.Seed) (battle.Request, catalog.Ghost, error) {
	army := f.army
	if len(army) == 0 {
		army = cat.DefaultArmy()
	}
	deck := f.deck
	if len(deck) == 0 {
		deck = cat.DefaultDeck()
	}
	req, ghost := battle.GhostRequest(cat, f.ghost, battle.CompositionOf(army), deck, seed)
	req, err := battle.Conditions{EventID: f.event, Relics: f.relics}.Apply(cat, req)
	return req, ghost, err
}
