package catalog

import (
	"maps"
	"slices"
)

// Catalog is a read-only snapshot of game data. It is safe for concurrent
// readers; nothing mutates a Catalog after construction.
type Catalog struct {
	units     map[string]Unit
	unitOrder []string
	cards     map[string]Card
	cardOrder []string
	ghosts    []Ghost
	events    []RealmEvent
	relics    []Relic
	deck      []string
}

// New builds a catalog from explicit data. Later entries with a duplicate id
// replace earlier ones but keep the first position.
func New(units []Unit, cards []Card, ghosts []Ghost, events []RealmEvent, relics []Relic) *Catalog {
	c := &Catalog{
		units:  make(map[string]Unit, len(units)),
		cards:  make(map[string]Card, len(cards)),
		ghosts: slices.Clone(ghosts),
		events: slices.Clone(events),
		relics: slices.Clone(relics),
		deck:   slices.Clone(defaultDeck),
	}
	for _, u := range units {
		if _, ok := c.units[u.ID]; !ok {
			c.unitOrder = append(c.unitOrder, u.ID)
		}
		c.units[u.ID] = u
	}
	for _, card := range cards {
		if _, ok := c.cards[card.ID]; !ok {
			c.cardOrder = append(c.cardOrder, card.ID)
		}
		c.cards[card.ID] = card
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(builtinUnits, builtinCards, builtinGhosts, builtinEvents, builtinRelics)
}

// Unit looks up a unit archetype.
func (c *Catalog) Unit(id string) (Unit, bool) {
	u, ok := c.units[id]
	return u, ok
}

// Units lists units in catalog order.
func (c *Catalog) Units() []Unit {
	out := make([]Unit, 0, len(c.unitOrder))
	for _, id := range c.unitOrder {
		out = append(out, c.units[id])
	}
	return out
}

// Card looks up a command card.
func (c *Catalog) Card(id string) (Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// Cards lists cards in catalog order.
func (c *Catalog) Cards() []Card {
	out := make([]Card, 0, len(c.cardOrder))
	for _, id := range c.cardOrder {
		out = append(out, c.cards[id])
	}
	return out
}

// LookupGhost finds a ghost army by id.
func (c *Catalog) LookupGhost(id string) (Ghost, bool) {
	for _, g := range c.ghosts {
		if g.ID == id {
			return g, true
		}
	}
	return Ghost{}, false
}

// Ghost returns the ghost with id, falling back to the first ghost.
func (c *Catalog) Ghost(id string) Ghost {
	if g, ok := c.LookupGhost(id); ok {
		return g
	}
	if len(c.ghosts) == 0 {
		return Ghost{}
	}
	return c.ghosts[0]
}

// Ghosts lists all ghost armies.
func (c *Catalog) Ghosts() []Ghost {
	return slices.Clone(c.ghosts)
}

// LookupEvent finds a realm event by id.
func (c *Catalog) LookupEvent(id string) (RealmEvent, bool) {
	for _, e := range c.events {
		if e.ID == id {
			return e, true
		}
	}
	return RealmEvent{}, false
}

// Events lists all realm events in rotation order.
func (c *Catalog) Events() []RealmEvent {
	return slices.Clone(c.events)
}

// NextEventID returns the event that follows current in the rotation. An empty
// or unknown id restarts the rotation.
func (c *Catalog) NextEventID(current string) string {
	if len(c.events) == 0 {
		return ""
	}
	idx := slices.IndexFunc(c.events, func(e RealmEvent) bool { return e.ID == current })
	if current == "" || idx == -1 {
		return c.events[0].ID
	}
	return c.events[(idx+1)%len(c.events)].ID
}

// Relic looks up a relic.
func (c *Catalog) Relic(id string) (Relic, bool) {
	for _, r := range c.relics {
		if r.ID == id {
			return r, true
		}
	}
	return Relic{}, false
}

// Relics lists all relics.
func (c *Catalog) Relics() []Relic {
	return slices.Clone(c.relics)
}

// DefaultArmy returns the starting army of a new player: every unit at the
// default count.
func (c *Catalog) DefaultArmy() map[string]int {
	army := make(map[string]int, len(c.unitOrder))
	for _, id := range c.unitOrder {
		army[id] = defaultUnitCount
	}
	return army
}

// DefaultDeck returns the starting active deck of a new player.
func (c *Catalog) DefaultDeck() []string {
	return slices.Clone(c.deck)
}

// UnitCounts returns a copy of the ghost's unit counts.
func (g Ghost) UnitCounts() map[string]int {
	return maps.Clone(g.Units)
}
