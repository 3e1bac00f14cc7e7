// Package catalog holds the static game data the battle engine reads: unit
// archetypes, command cards, ghost armies, realm events and relics.
package catalog

// Upkeep maps a resource name (food, gold, mana) to an amount.
type Upkeep map[string]float64

// Unit is an immutable unit archetype.
type Unit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Faction     string `json:"faction"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	HP          int    `json:"hp"`
	Upkeep      Upkeep `json:"upkeep"`
	Description string `json:"description,omitempty"`
}

// Effect is the numeric payload of a card. Missing fields are zero, except
// Variance, where an absent value lets morale cards derive one.
type Effect struct {
	AttackBoost  float64  `json:"attackBoost,omitempty"`
	DefenseBoost float64  `json:"defenseBoost,omitempty"`
	Morale       float64  `json:"morale,omitempty"`
	Shred        float64  `json:"shred,omitempty"`
	Heal         float64  `json:"heal,omitempty"`
	Control      float64  `json:"control,omitempty"`
	Leech        float64  `json:"leech,omitempty"`
	Variance     *float64 `json:"variance,omitempty"`
	Description  string   `json:"description"`
}

// Card is a command card.
type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Faction     string `json:"faction"`
	Cost        int    `json:"cost"`
	Description string `json:"description,omitempty"`
	Effect      Effect `json:"effect"`
}

// Modifiers are side-wide adjustments applied once before combat. A nil
// multiplier means 1; an explicit zero is honoured.
type Modifiers struct {
	AttackMultiplier  *float64 `json:"attackMultiplier,omitempty"`
	DefenseMultiplier *float64 `json:"defenseMultiplier,omitempty"`
	MoraleBonus       float64  `json:"moraleBonus,omitempty"`
	HealBonus         float64  `json:"healBonus,omitempty"`
	ControlBonus      float64  `json:"controlBonus,omitempty"`
	VarianceBonus     float64  `json:"varianceBonus,omitempty"`
	LeechBonus        float64  `json:"leechBonus,omitempty"`
}

// Ghost is a prebuilt opposing army.
type Ghost struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Power       string         `json:"power,omitempty"`
	Seed        uint32         `json:"seed"`
	Units       map[string]int `json:"units"`
	Deck        []string       `json:"deck"`
}

// SideModifiers pairs the modifiers an event grants each side.
type SideModifiers struct {
	Player Modifiers `json:"player"`
	Ghost  Modifiers `json:"ghost"`
}

// RealmEvent is a rotating world event.
type RealmEvent struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Description         string             `json:"description,omitempty"`
	DurationHours       int                `json:"durationHours"`
	ResourceMultipliers map[string]float64 `json:"resourceMultipliers,omitempty"`
	BattleModifiers     SideModifiers      `json:"battleModifiers"`
}

// RelicBonus is expressed as deltas: a multiplier of 0.06 means +6%.
type RelicBonus struct {
	AttackMultiplier  float64 `json:"attackMultiplier,omitempty"`
	DefenseMultiplier float64 `json:"defenseMultiplier,omitempty"`
	MoraleBonus       float64 `json:"moraleBonus,omitempty"`
	HealBonus         float64 `json:"healBonus,omitempty"`
	ControlBonus      float64 `json:"controlBonus,omitempty"`
	VarianceBonus     float64 `json:"varianceBonus,omitempty"`
	LeechBonus        float64 `json:"leechBonus,omitempty"`
}

// Relic is a crafted artifact with an economy effect and a battle bonus.
type Relic struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Cost        map[string]int     `json:"cost,omitempty"`
	Economy     map[string]float64 `json:"economy,omitempty"`
	Battle      RelicBonus         `json:"battle"`
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 {
	return &v
}
