package scripting

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

type recordedBattle struct {
	seed    uint32
	ghostID string
	winner  string
}

type memoryRecorder struct {
	mu       sync.Mutex
	battles  []recordedBattle
	flushes  int
	onBattle func(n int)
}

func (r *memoryRecorder) RecordBattle(seed uint32, ghostID, eventID, winner string, playerHP, ghostHP float64, rounds int) {
	r.mu.Lock()
	r.battles = append(r.battles, recordedBattle{seed: seed, ghostID: ghostID, winner: winner})
	n := len(r.battles)
	r.mu.Unlock()
	if r.onBattle != nil {
		r.onBattle(n)
	}
}

func (r *memoryRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
}

func run(t *testing.T, script string, opts Options) (*Outcome, error) {
	t.Helper()
	return NewEngine(catalog.Default(), nil).Run(context.Background(), script, opts)
}

func TestCampaignStopsFromScript(t *testing.T) {
	out, err := run(t, `
		dobattle = function() {
			if (battles >= 3) {
				stop()
			}
		}
	`, Options{Seed: engine.NumberSeed(100)})
	require.NoError(t, err)

	assert.Equal(t, StateStopped, out.State)
	assert.Equal(t, 3, out.Stats.Battles)
	require.Len(t, out.Battles, 3)
	assert.Equal(t, out.Stats.Battles, out.Stats.Wins+out.Stats.Losses+out.Stats.Draws)
}

func TestCampaignCompletesAtCap(t *testing.T) {
	out, err := run(t, `dobattle = function() {}`, Options{MaxBattles: 5, Seed: engine.NumberSeed(100)})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, out.State)
	require.Len(t, out.Battles, 5)
	for i, b := range out.Battles {
		assert.Equal(t, i+1, b.Number)
		assert.Equal(t, uint32(100+i), b.Seed, "seeds advance by one")
	}
}

func TestCampaignBattleMatchesDirectSimulation(t *testing.T) {
	cat := catalog.Default()
	out, err := run(t, `
		seed = "abc"
		ghost = "feral-swarm"
		event = nextevent("")
		army.sanctumGuard = 5
		dobattle = function() { stop() }
	`, Options{})
	require.NoError(t, err)
	require.Len(t, out.Battles, 1)

	army := cat.DefaultArmy()
	army["sanctumGuard"] = 5
	req, _ := battle.GhostRequest(cat, "feral-swarm", battle.CompositionOf(army), cat.DefaultDeck(), engine.StringSeed("abc"))
	req, err = battle.Conditions{EventID: "blood-moon"}.Apply(cat, req)
	require.NoError(t, err)
	want := battle.Simulate(cat, req)

	got := out.Battles[0]
	assert.Equal(t, uint32(96354), got.Seed)
	assert.Equal(t, "feral-swarm", got.GhostID)
	assert.Equal(t, "blood-moon", got.EventID)
	assert.Equal(t, want.Winner, got.Winner)
	assert.Equal(t, want.Remaining.PlayerHP, got.PlayerHP)
	assert.Equal(t, want.Remaining.GhostHP, got.GhostHP)
	assert.Equal(t, len(want.Rounds), got.Rounds)
	assert.Equal(t, want.Margin(), got.Margin)
}

func TestCampaignExposesLastBattle(t *testing.T) {
	out, err := run(t, `
		dobattle = function() {
			log(lastBattle.number, lastBattle.seed, lastBattle.winner, win, streak)
			stop()
		}
	`, Options{Seed: engine.NumberSeed(7)})
	require.NoError(t, err)
	require.Len(t, out.Battles, 1)
	require.Len(t, out.Logs, 1)

	b := out.Battles[0]
	win := b.Winner == battle.WinnerPlayer
	streak := 0
	switch b.Winner {
	case battle.WinnerPlayer:
		streak = 1
	case battle.WinnerGhost:
		streak = -1
	}
	want := "1 7 " + string(b.Winner) + " " + strconv.FormatBool(win) + " " + strconv.Itoa(streak)
	assert.Equal(t, want, out.Logs[0].Message)
}

func TestCampaignMathRandomIsSeeded(t *testing.T) {
	script := `
		log(Math.random())
		dobattle = function() { stop() }
	`
	a, err := run(t, script, Options{Seed: engine.NumberSeed(42)})
	require.NoError(t, err)
	b, err := run(t, script, Options{Seed: engine.NumberSeed(42)})
	require.NoError(t, err)

	require.Len(t, a.Logs, 1)
	require.Len(t, b.Logs, 1)
	assert.Equal(t, a.Logs[0].Message, b.Logs[0].Message)
}

func TestCampaignScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		opts   Options
	}{
		{"missing dobattle", `var x = 1`, Options{}},
		{"syntax error", `dobattle = function( {`, Options{}},
		{"throws in dobattle", `dobattle = function() { throw new Error("boom") }`, Options{}},
		{"unknown event", `event = "eclipse"; dobattle = function() {}`, Options{}},
		{"unknown relic", `relics = ["crown"]; dobattle = function() {}`, Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.script, tt.opts)
			require.Error(t, err)
			require.NotNil(t, out)
			assert.Equal(t, StateError, out.State)
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestCampaignMissingDobattle(t *testing.T) {
	_, err := run(t, `var x = 1`, Options{})
	assert.ErrorIs(t, err, ErrNoDobattle)
}

func TestCampaignSandbox(t *testing.T) {
	out, err := run(t, `
		var leaked = []
		if (typeof require !== "undefined") leaked.push("require")
		if (typeof fetch !== "undefined") leaked.push("fetch")
		if (typeof eval !== "undefined") leaked.push("eval")
		if (typeof Function !== "undefined") leaked.push("Function")
		console.log(leaked.join(","))
		dobattle = function() { stop() }
	`, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, out.Logs)
	assert.Equal(t, "", out.Logs[0].Message)
}

func TestCampaignRunawayScriptTimesOut(t *testing.T) {
	out, err := run(t, `dobattle = function() { for (;;) {} }`, Options{CallTimeout: 50 * time.Millisecond})
	assert.ErrorIs(t, err, ErrScriptTimeout)
	assert.Equal(t, StateError, out.State)
	assert.Equal(t, 1, out.Stats.Battles)
}

func TestCampaignRecorderAndCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &memoryRecorder{onBattle: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	eng := NewEngine(catalog.Default(), nil)
	eng.SetRecorder(rec)

	out, err := eng.Run(ctx, `dobattle = function() {}`, Options{Seed: engine.NumberSeed(1), GhostID: "ember-sages"})
	require.NoError(t, err)
	assert.Equal(t, StateStopped, out.State)
	assert.Equal(t, 2, out.Stats.Battles)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.battles, 2)
	assert.Equal(t, "ember-sages", rec.battles[0].ghostID)
	assert.Equal(t, uint32(2), rec.battles[1].seed)
	assert.Equal(t, 1, rec.flushes)
}

func TestCampaignDefaultsToGhostSeed(t *testing.T) {
	cat := catalog.Default()
	out, err := run(t, `dobattle = function() { stop() }`, Options{GhostID: "ashen-lancers"})
	require.NoError(t, err)
	require.Len(t, out.Battles, 1)
	assert.Equal(t, cat.Ghost("ashen-lancers").Seed, out.Battles[0].Seed)
}

func TestStatistics(t *testing.T) {
	var s Statistics
	for _, w := range []battle.Winner{
		battle.WinnerPlayer, battle.WinnerPlayer, battle.WinnerGhost,
		battle.WinnerGhost, battle.WinnerGhost, battle.WinnerDraw, battle.WinnerPlayer,
	} {
		s.RecordBattle(w)
	}

	assert.Equal(t, 7, s.Battles)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 3, s.Losses)
	assert.Equal(t, 1, s.Draws)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.BestStreak)
	assert.Equal(t, -3, s.WorstStreak)
	assert.InDelta(t, 3.0/7.0, s.WinRate(), 1e-12)
}
