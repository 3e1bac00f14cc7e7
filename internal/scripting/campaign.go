package scripting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// State represents a campaign's lifecycle state.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
	StateError     State = "error"
)

// DefaultMaxBattles caps a campaign when the options leave it unset.
const DefaultMaxBattles = 500

// Recorder receives campaign battles for external persistence (e.g. SQLite).
type Recorder interface {
	RecordBattle(seed uint32, ghostID, eventID, winner string, playerHP, ghostHP float64, rounds int)
	Flush()
}

// Options are the opening inputs of a campaign. Scripts may override any of
// them before the first battle.
type Options struct {
	MaxBattles  int            `json:"max_battles" validate:"gte=0,lte=100000"`
	Seed        engine.Seed    `json:"seed"`
	GhostID     string         `json:"ghost,omitempty"`
	Army        map[string]int `json:"army,omitempty"`
	Deck        []string       `json:"deck,omitempty"`
	Event       string         `json:"event,omitempty"`
	Relics      []string       `json:"relics,omitempty"`
	CallTimeout time.Duration  `json:"-"`
}

// BattleSummary is the compact outcome of one campaign battle.
type BattleSummary struct {
	Number   int           `json:"number"`
	Seed     uint32        `json:"seed"`
	GhostID  string        `json:"ghost_id"`
	EventID  string        `json:"event_id,omitempty"`
	Winner   battle.Winner `json:"winner"`
	PlayerHP float64       `json:"player_hp"`
	GhostHP  float64       `json:"ghost_hp"`
	Rounds   int           `json:"rounds"`
	Margin   float64       `json:"margin"`
}

// Outcome is the final report of a campaign run.
type Outcome struct {
	State   State           `json:"state"`
	Error   string          `json:"error,omitempty"`
	Stats   Statistics      `json:"stats"`
	Battles []BattleSummary `json:"battles"`
	Logs    []LogEntry      `json:"logs"`
}

// Engine runs campaigns against one catalog snapshot.
type Engine struct {
	catalog  *catalog.Catalog
	recorder Recorder
	logger   *slog.Logger
}

// NewEngine creates a campaign engine.
func NewEngine(cat *catalog.Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{catalog: cat, logger: logger}
}

// SetRecorder attaches a battle recorder. Must be called before Run.
func (e *Engine) SetRecorder(rec Recorder) {
	e.recorder = rec
}

// Run executes the script once, then alternates battles and dobattle() calls
// until the script calls stop(), the battle cap is reached, ctx is cancelled
// or the script fails. A failing script returns its partial outcome and the
// error.
func (e *Engine) Run(ctx context.Context, script string, opts Options) (*Outcome, error) {
	maxBattles := opts.MaxBattles
	if maxBattles <= 0 {
		maxBattles = DefaultMaxBattles
	}

	stats := &Statistics{}
	vars := &Variables{
		Seed:    opts.Seed,
		Ghost:   opts.GhostID,
		Deck:    opts.Deck,
		Army:    opts.Army,
		Event:   opts.Event,
		Relics:  opts.Relics,
		Running: true,
		Stats:   stats,
	}
	if vars.Army == nil {
		vars.Army = e.catalog.DefaultArmy()
	}
	if vars.Deck == nil {
		vars.Deck = e.catalog.DefaultDeck()
	}

	randSeed := e.catalog.Ghost(opts.GhostID).Seed
	if !opts.Seed.IsAbsent() {
		randSeed = engine.NormalizeSeed(opts.Seed)
	}
	vm := NewVM(engine.NewGenerator(randSeed).Next)
	if opts.CallTimeout > 0 {
		vm.callTimeout = opts.CallTimeout
	}
	e.injectConstants(vm)
	vm.SetVariables(vars)

	out := &Outcome{State: StateRunning, Battles: []BattleSummary{}}
	finish := func(state State, err error) (*Outcome, error) {
		if e.recorder != nil {
			e.recorder.Flush()
		}
		out.State = state
		if err != nil {
			out.Error = err.Error()
		}
		out.Stats = *stats
		out.Logs = vm.GetLogs()
		e.logger.Info("campaign_finished",
			"state", state,
			"battles", stats.Battles,
			"wins", stats.Wins,
			"losses", stats.Losses,
			"draws", stats.Draws,
			"win_rate", stats.WinRate())
		return out, err
	}

	if err := vm.Execute(ctx, script); err != nil {
		return finish(StateError, err)
	}
	if !vm.HasDobattle() {
		return finish(StateError, ErrNoDobattle)
	}
	if err := vm.SyncVariables(ctx, vars); err != nil {
		return finish(StateError, err)
	}

	for stats.Battles < maxBattles {
		if ctx.Err() != nil || vm.IsStopRequested() {
			return finish(StateStopped, nil)
		}

		summary, err := e.fight(vars, stats.Battles+1)
		if err != nil {
			return finish(StateError, err)
		}
		stats.RecordBattle(summary.Winner)
		out.Battles = append(out.Battles, summary)
		if e.recorder != nil {
			e.recorder.RecordBattle(summary.Seed, summary.GhostID, summary.EventID, string(summary.Winner),
				summary.PlayerHP, summary.GhostHP, summary.Rounds)
		}

		vars.Win = summary.Winner == battle.WinnerPlayer
		vars.LastBattle = &summary
		// The next seed defaults to the one after the last battle's.
		vars.Seed = engine.NumberSeed(float64(summary.Seed) + 1)
		vm.SetVariables(vars)

		if err := vm.CallDobattle(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return finish(StateStopped, nil)
			}
			return finish(StateError, err)
		}
		if err := vm.SyncVariables(ctx, vars); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return finish(StateStopped, nil)
			}
			return finish(StateError, err)
		}
	}

	if vm.IsStopRequested() {
		return finish(StateStopped, nil)
	}
	return finish(StateCompleted, nil)
}

// fight simulates one battle from the current inputs.
func (e *Engine) fight(vars *Variables, number int) (BattleSummary, error) {
	army := battle.CompositionOf(vars.Army)
	req, ghost := battle.GhostRequest(e.catalog, vars.Ghost, army, vars.Deck, vars.Seed)

	conditions := battle.Conditions{EventID: vars.Event, Relics: vars.Relics}
	req, err := conditions.Apply(e.catalog, req)
	if err != nil {
		return BattleSummary{}, fmt.Errorf("battle %d: %w", number, err)
	}

	res := battle.Simulate(e.catalog, req)
	return BattleSummary{
		Number:   number,
		Seed:     res.Seed,
		GhostID:  ghost.ID,
		EventID:  vars.Event,
		Winner:   res.Winner,
		PlayerHP: res.Remaining.PlayerHP,
		GhostHP:  res.Remaining.GhostHP,
		Rounds:   len(res.Rounds),
		Margin:   res.Margin(),
	}, nil
}

// injectConstants exposes catalog ids and the event rotation to scripts.
func (e *Engine) injectConstants(vm *VM) {
	ids := func(n int, id func(int) string) []any {
		out := make([]any, n)
		for i := range out {
			out[i] = id(i)
		}
		return out
	}
	ghosts := e.catalog.Ghosts()
	events := e.catalog.Events()
	relics := e.catalog.Relics()

	vm.Set("GHOSTS", vm.runtime.NewArray(ids(len(ghosts), func(i int) string { return ghosts[i].ID })...))
	vm.Set("EVENTS", vm.runtime.NewArray(ids(len(events), func(i int) string { return events[i].ID })...))
	vm.Set("RELICS", vm.runtime.NewArray(ids(len(relics), func(i int) string { return relics[i].ID })...))
	vm.Set("nextevent", func(current string) string {
		return e.catalog.NextEventID(current)
	})
}
