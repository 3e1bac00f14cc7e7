package battle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

func TestStack(t *testing.T) {
	assert.Equal(t, Modifiers{}, Stack())

	got := Stack(
		Modifiers{AttackMultiplier: catalog.Float(2), MoraleBonus: 1},
		Modifiers{HealBonus: 3},
		Modifiers{AttackMultiplier: catalog.Float(1.5), DefenseMultiplier: catalog.Float(0), MoraleBonus: 0.5},
	)
	require.NotNil(t, got.AttackMultiplier)
	require.NotNil(t, got.DefenseMultiplier)
	assert.Equal(t, 3.0, *got.AttackMultiplier)
	assert.Equal(t, 0.0, *got.DefenseMultiplier)
	assert.Equal(t, 1.5, got.MoraleBonus)
	assert.Equal(t, 3.0, got.HealBonus)
}

func TestStackDoesNotAlias(t *testing.T) {
	m := catalog.Float(2)
	got := Stack(Modifiers{AttackMultiplier: m})
	*got.AttackMultiplier = 5
	assert.Equal(t, 2.0, *m)
}

func TestEventModifiers(t *testing.T) {
	cat := catalog.Default()
	event, ok := cat.LookupEvent("blood-moon")
	require.True(t, ok)
	player, ghost := EventModifiers(event)
	require.NotNil(t, player.AttackMultiplier)
	assert.Equal(t, 1.12, *player.AttackMultiplier)
	assert.Equal(t, 1.0, player.MoraleBonus)
	require.NotNil(t, ghost.AttackMultiplier)
	assert.Equal(t, 1.05, *ghost.AttackMultiplier)
}

func TestRelicModifiers(t *testing.T) {
	cat := catalog.Default()
	signet, _ := cat.Relic("ember-signet")
	heart, _ := cat.Relic("verdant-heart")
	censer, _ := cat.Relic("gloom-censer")

	got := RelicModifiers(signet, heart, censer)
	require.NotNil(t, got.AttackMultiplier)
	require.NotNil(t, got.DefenseMultiplier)
	assert.Equal(t, 1.06, *got.AttackMultiplier)
	assert.Equal(t, 1.04, *got.DefenseMultiplier)
	assert.Equal(t, 5.0, got.HealBonus)
	assert.Equal(t, 1.5, got.ControlBonus)
	assert.Equal(t, 1.0, got.MoraleBonus)

	assert.Equal(t, Modifiers{}, RelicModifiers())
}

func TestSupplyModifiers(t *testing.T) {
	upkeep := catalog.Upkeep{"food": 10, "gold": 4, "mana": 2}

	tests := []struct {
		name  string
		stock map[string]float64
		want  *float64
	}{
		{"fully stocked", map[string]float64{"food": 20, "gold": 4}, nil},
		{"empty", map[string]float64{}, catalog.Float(0.7)},
		{"half food", map[string]float64{"food": 5, "gold": 100}, catalog.Float(0.85)},
		{"gold is the bottleneck", map[string]float64{"food": 10, "gold": 1}, catalog.Float(0.775)},
		{"negative stock clamps", map[string]float64{"food": -5, "gold": 4}, catalog.Float(0.7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SupplyModifiers(upkeep, tt.stock)
			if tt.want == nil {
				assert.Equal(t, Modifiers{}, got)
				return
			}
			require.NotNil(t, got.AttackMultiplier)
			assert.InDelta(t, *tt.want, *got.AttackMultiplier, 1e-12)
			assert.InDelta(t, *tt.want, *got.DefenseMultiplier, 1e-12)
		})
	}

	assert.Equal(t, Modifiers{}, SupplyModifiers(catalog.Upkeep{}, nil), "an army without upkeep never starves")
}

func TestConditionsApply(t *testing.T) {
	cat := catalog.Default()
	base := Request{
		PlayerArmy:     CompositionOf(map[string]int{"sanctumGuard": 2}),
		GhostModifiers: Modifiers{ControlBonus: 1},
	}

	got, err := Conditions{EventID: "emberwake", Relics: []string{"ember-signet"}}.Apply(cat, base)
	require.NoError(t, err)
	require.NotNil(t, got.PlayerModifiers.AttackMultiplier)
	assert.InDelta(t, 1.08*1.06, *got.PlayerModifiers.AttackMultiplier, 1e-12)
	assert.Equal(t, 0.2, got.PlayerModifiers.VarianceBonus)
	assert.Equal(t, 2.0, got.GhostModifiers.ControlBonus)

	starving, err := Conditions{Stock: map[string]float64{"food": 2, "gold": 2}}.Apply(cat, base)
	require.NoError(t, err)
	require.NotNil(t, starving.PlayerModifiers.DefenseMultiplier)
	assert.InDelta(t, 0.85, *starving.PlayerModifiers.DefenseMultiplier, 1e-12)

	_, err = Conditions{EventID: "eclipse"}.Apply(cat, base)
	assert.True(t, errors.Is(err, ErrUnknownEvent))

	_, err = Conditions{Relics: []string{"crown"}}.Apply(cat, base)
	assert.True(t, errors.Is(err, ErrUnknownRelic))
}

func TestGhostRequest(t *testing.T) {
	cat := catalog.Default()
	army := CompositionOf(cat.DefaultArmy())

	req, ghost := GhostRequest(cat, "ember-sages", army, cat.DefaultDeck(), engine.Seed{})
	assert.Equal(t, "ember-sages", ghost.ID)
	assert.Equal(t, uint32(421), engine.NormalizeSeed(req.Seed))
	assert.Equal(t, Squad{Count: 5}, req.GhostArmy["arcaneWarden"])
	assert.Equal(t, ghost.Deck, req.GhostDeck)

	req, _ = GhostRequest(cat, "ember-sages", army, nil, engine.StringSeed("abc"))
	assert.Equal(t, uint32(96354), engine.NormalizeSeed(req.Seed))

	_, fallback := GhostRequest(cat, "nobody", army, nil, engine.Seed{})
	assert.Equal(t, "ashen-lancers", fallback.ID)
}

func TestGhostChallengeMatchesTrace(t *testing.T) {
	cat := catalog.Default()
	traces := map[string]Result{}
	for _, tc := range loadTraces(t) {
		traces[tc.Name] = tc.Result
	}

	for _, ghost := range cat.Ghosts() {
		req, _ := GhostRequest(cat, ghost.ID, CompositionOf(cat.DefaultArmy()), cat.DefaultDeck(), engine.Seed{})
		want, ok := traces["challenge_"+ghost.ID]
		require.True(t, ok, "missing trace for %s", ghost.ID)
		assert.Equal(t, want, Simulate(cat, req), ghost.ID)
	}
}
