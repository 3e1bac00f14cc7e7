package catalog

var builtinUnits = []Unit{
	{
		ID: "sanctumGuard", Name: "Sanctum Guard", Faction: "Sanctum",
		Attack: 6, Defense: 8, HP: 28,
		Upkeep:      Upkeep{"food": 2, "gold": 1},
		Description: "Shieldwall defenders who anchor the front.",
	},
	{
		ID: "dominionSpears", Name: "Dominion Spears", Faction: "Dominion",
		Attack: 8, Defense: 5, HP: 24,
		Upkeep:      Upkeep{"food": 2, "gold": 2},
		Description: "Disciplined pikelines that counter cavalry.",
	},
	{
		ID: "wildRangers", Name: "Wild Rangers", Faction: "Wild",
		Attack: 7, Defense: 4, HP: 20,
		Upkeep:      Upkeep{"food": 1, "gold": 1},
		Description: "Camouflaged archers that harry from afar.",
	},
	{
		ID: "arcaneWarden", Name: "Arcane Warden", Faction: "Arcane",
		Attack: 5, Defense: 6, HP: 22,
		Upkeep:      Upkeep{"food": 1, "gold": 2, "mana": 1},
		Description: "Rune casters that stabilize the weave.",
	},
}

var builtinCards = []Card{
	{
		ID: "sanctum-aegis", Name: "Sanctum Aegis", Faction: "Sanctum", Cost: 2,
		Description: "Warded tower shields lock into place.",
		Effect:      Effect{DefenseBoost: 6, Description: "+6 defense this round."},
	},
	{
		ID: "bastion-call", Name: "Bastion Call", Faction: "Sanctum", Cost: 3,
		Description: "Horns summon the reserve to the walls.",
		Effect:      Effect{DefenseBoost: 3, Heal: 4, Description: "+3 defense and restore 4 hp."},
	},
	{
		ID: "luminous-rally", Name: "Luminous Rally", Faction: "Sanctum", Cost: 3,
		Description: "A banner of light steadies wavering lines.",
		Effect:      Effect{Morale: 2, Heal: 3, Description: "+2 morale and restore 3 hp."},
	},
	{
		ID: "dominion-charge", Name: "Dominion Charge", Faction: "Dominion", Cost: 2,
		Description: "Pikes lowered, the line surges forward.",
		Effect:      Effect{AttackBoost: 6, Description: "+6 attack this round."},
	},
	{
		ID: "dominion-barrage", Name: "Dominion Barrage", Faction: "Dominion", Cost: 4,
		Description: "Ballistae hammer the enemy shieldwall.",
		Effect:      Effect{AttackBoost: 4, Shred: 3, Description: "+4 attack and shred 3 armor."},
	},
	{
		ID: "wild-snare", Name: "Wild Snare", Faction: "Wild", Cost: 2,
		Description: "Hidden nooses tangle the advance.",
		Effect:      Effect{Control: 2, Description: "Entangle the enemy: +2 control."},
	},
	{
		ID: "wild-howl", Name: "Wild Howl", Faction: "Wild", Cost: 3,
		Description: "The pack's cry echoes through the canopy.",
		Effect:      Effect{Morale: 3, Variance: Float(2), Description: "+3 morale with a feral swing."},
	},
	{
		ID: "emerald-mend", Name: "Emerald Mend", Faction: "Wild", Cost: 2,
		Description: "Moss poultices close open wounds.",
		Effect:      Effect{Heal: 6, Description: "Restore 6 hp."},
	},
	{
		ID: "arcane-burst", Name: "Arcane Burst", Faction: "Arcane", Cost: 3,
		Description: "Unstable runes detonate mid-volley.",
		Effect:      Effect{AttackBoost: 3, Variance: Float(6), Description: "+3 attack with volatile arcane surge."},
	},
	{
		ID: "arcane-veil", Name: "Arcane Veil", Faction: "Arcane", Cost: 2,
		Description: "A shimmering veil warps incoming blows.",
		Effect:      Effect{DefenseBoost: 2, Control: 1.5, Description: "+2 defense and +1.5 control."},
	},
	{
		ID: "soul-binding", Name: "Soul Binding", Faction: "Arcane", Cost: 4,
		Description: "Chained spirits siphon the foe's vigor.",
		Effect:      Effect{Leech: 4, Description: "Leech 4 hp from the enemy."},
	},
	{
		ID: "soul-surge", Name: "Soul Surge", Faction: "Arcane", Cost: 4,
		Description: "Harvested souls burn through the ranks.",
		Effect:      Effect{AttackBoost: 2, Morale: 1, Leech: 2, Description: "+2 attack, +1 morale, leech 2 hp."},
	},
}

var builtinGhosts = []Ghost{
	{
		ID: "ashen-lancers", Name: "Ashen Lancers",
		Description: "An order of spectral knights that refuse to yield.",
		Power:       "Attrition specialists",
		Seed:        1337,
		Units:       map[string]int{"sanctumGuard": 6, "dominionSpears": 4, "wildRangers": 2},
		Deck: []string{
			"sanctum-aegis", "bastion-call", "dominion-charge", "wild-snare",
			"arcane-veil", "dominion-barrage", "wild-howl", "arcane-burst",
		},
	},
	{
		ID: "ember-sages", Name: "Ember Sages",
		Description: "Pyromancers that wield volcanic familiars.",
		Power:       "Burst casters",
		Seed:        421,
		Units:       map[string]int{"arcaneWarden": 5, "wildRangers": 3, "dominionSpears": 2},
		Deck: []string{
			"arcane-burst", "arcane-burst", "arcane-veil", "soul-binding",
			"emerald-mend", "wild-snare", "soul-surge", "luminous-rally",
		},
	},
	{
		ID: "feral-swarm", Name: "Feral Swarm",
		Description: "Packlords and skittering beasts that overwhelm.",
		Power:       "Morale drain",
		Seed:        987,
		Units:       map[string]int{"wildRangers": 6, "dominionSpears": 3, "sanctumGuard": 2},
		Deck: []string{
			"wild-howl", "wild-snare", "emerald-mend", "dominion-charge",
			"bastion-call", "dominion-barrage", "arcane-veil", "arcane-burst",
		},
	},
}

var builtinEvents = []RealmEvent{
	{
		ID: "blood-moon", Name: "Blood Moon",
		Description:         "Souls spill freely while armies strike with reckless abandon. Mana surges but food spoils faster.",
		DurationHours:       6,
		ResourceMultipliers: map[string]float64{"souls": 1.5, "mana": 1.2, "food": 0.8},
		BattleModifiers: SideModifiers{
			Player: Modifiers{AttackMultiplier: Float(1.12), MoraleBonus: 1},
			Ghost:  Modifiers{AttackMultiplier: Float(1.05)},
		},
	},
	{
		ID: "verdant-tide", Name: "Verdant Tide",
		Description:         "Fungal groves flourish, feeding troops and lending resilience. Arcane output steadies but crystals flow slower.",
		DurationHours:       6,
		ResourceMultipliers: map[string]float64{"food": 1.4, "gold": 1.1, "crystals": 0.85},
		BattleModifiers: SideModifiers{
			Player: Modifiers{DefenseMultiplier: Float(1.1), HealBonus: 4},
			Ghost:  Modifiers{DefenseMultiplier: Float(1.05)},
		},
	},
	{
		ID: "emberwake", Name: "Emberwake",
		Description:         "The forge blazes white hot. Crystal lattices scream, empowering command cards while upkeep strains supplies.",
		DurationHours:       6,
		ResourceMultipliers: map[string]float64{"crystals": 1.5, "mana": 1.1, "gold": 0.9},
		BattleModifiers: SideModifiers{
			Player: Modifiers{AttackMultiplier: Float(1.08), VarianceBonus: 0.2},
			Ghost:  Modifiers{ControlBonus: 1},
		},
	},
}

var builtinRelics = []Relic{
	{
		ID: "ember-signet", Name: "Ember Signet",
		Description: "Crystalized forge heat woven into a ring. Increases mana flow and weapon ferocity.",
		Cost:        map[string]int{"gold": 120, "crystals": 60, "mana": 40},
		Economy:     map[string]float64{"manaFlat": 0.6},
		Battle:      RelicBonus{AttackMultiplier: 0.06},
	},
	{
		ID: "verdant-heart", Name: "Verdant Heart",
		Description: "A living core harvested from the undergrowth. Sustains troops and bolsters healing.",
		Cost:        map[string]int{"gold": 90, "food": 120, "souls": 10},
		Economy:     map[string]float64{"foodFlat": 0.9},
		Battle:      RelicBonus{HealBonus: 5, DefenseMultiplier: 0.04},
	},
	{
		ID: "gloom-censer", Name: "Gloom Censer",
		Description: "A censer of chained souls that whisper battle insight. Enhances souls and card control.",
		Cost:        map[string]int{"gold": 140, "souls": 18, "mana": 55},
		Economy:     map[string]float64{"soulsFlat": 0.25},
		Battle:      RelicBonus{ControlBonus: 1.5, MoraleBonus: 1},
	},
}

// defaultDeck is the starting active deck of a new player.
var defaultDeck = []string{
	"sanctum-aegis", "dominion-charge", "dominion-charge", "wild-snare",
	"wild-snare", "arcane-burst", "arcane-veil", "emerald-mend",
	"bastion-call", "luminous-rally", "dominion-barrage", "wild-howl",
}

// defaultUnitCount is how many of each unit a new player starts with.
const defaultUnitCount = 2
