package scripting

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dop251/goja"

	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// Limits on the inputs a script can hand back.
const (
	maxDeckLength  = 100
	maxRelics      = 16
	maxArmyEntries = 64
)

var ErrInvalidVariable = errors.New("invalid campaign variable")

// Variables holds the state shared with the script. Inputs are read back after
// every dobattle() call; everything else is overwritten before the next call.
type Variables struct {
	// Inputs for the next battle (read/write).
	Seed   engine.Seed    `json:"seed"`
	Ghost  string         `json:"ghost"`
	Deck   []string       `json:"deck"`
	Army   map[string]int `json:"army"`
	Event  string         `json:"event"`
	Relics []string       `json:"relics"`

	// Outcome of the last battle (read-only).
	Win        bool           `json:"win"`
	Running    bool           `json:"running"`
	Stats      *Statistics    `json:"-"`
	LastBattle *BattleSummary `json:"last_battle,omitempty"`
}

// injectVariables sets all campaign globals on the JS runtime. Read-only
// semantics are enforced by syncFromVM ignoring everything but the inputs.
func injectVariables(vm *goja.Runtime, vars *Variables) {
	vm.Set("seed", vars.Seed.Value())
	vm.Set("ghost", vars.Ghost)
	vm.Set("deck", stringArray(vm, vars.Deck))
	vm.Set("army", countsObject(vm, vars.Army))
	vm.Set("event", vars.Event)
	vm.Set("relics", stringArray(vm, vars.Relics))

	vm.Set("win", vars.Win)
	vm.Set("running", vars.Running)
	vm.Set("battles", vars.Stats.Battles)
	vm.Set("wins", vars.Stats.Wins)
	vm.Set("losses", vars.Stats.Losses)
	vm.Set("draws", vars.Stats.Draws)
	vm.Set("streak", vars.Stats.CurrentStreak)
	vm.Set("beststreak", vars.Stats.BestStreak)
	vm.Set("worststreak", vars.Stats.WorstStreak)

	if vars.LastBattle == nil {
		vm.Set("lastBattle", goja.Null())
		return
	}
	last := vm.NewObject()
	last.Set("number", vars.LastBattle.Number)
	last.Set("seed", vars.LastBattle.Seed)
	last.Set("ghost", vars.LastBattle.GhostID)
	last.Set("event", vars.LastBattle.EventID)
	last.Set("winner", string(vars.LastBattle.Winner))
	last.Set("playerHp", vars.LastBattle.PlayerHP)
	last.Set("ghostHp", vars.LastBattle.GhostHP)
	last.Set("rounds", vars.LastBattle.Rounds)
	last.Set("margin", vars.LastBattle.Margin)
	vm.Set("lastBattle", last)
}

// syncFromVM reads the battle inputs back from the JS runtime into vars. On
// error vars is left untouched.
func syncFromVM(vm *goja.Runtime, vars *Variables) error {
	deck, err := toStringSlice(vm.Get("deck"), maxDeckLength)
	if err != nil {
		return fmt.Errorf("deck: %w", err)
	}
	relics, err := toStringSlice(vm.Get("relics"), maxRelics)
	if err != nil {
		return fmt.Errorf("relics: %w", err)
	}
	army, err := toCounts(vm.Get("army"))
	if err != nil {
		return fmt.Errorf("army: %w", err)
	}

	vars.Seed = toSeed(vm.Get("seed"))
	vars.Ghost = toString(vm.Get("ghost"))
	vars.Deck = deck
	vars.Army = army
	vars.Event = toString(vm.Get("event"))
	vars.Relics = relics
	return nil
}

func stringArray(vm *goja.Runtime, items []string) *goja.Object {
	values := make([]any, len(items))
	for i, s := range items {
		values[i] = s
	}
	return vm.NewArray(values...)
}

func countsObject(vm *goja.Runtime, counts map[string]int) *goja.Object {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := vm.NewObject()
	for _, k := range keys {
		obj.Set(k, counts[k])
	}
	return obj
}

// --- Conversion helpers ---

func isUndefinedOrNull(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// toSeed keeps JS typing: numbers are numeric seeds, strings are hashed.
func toSeed(v goja.Value) engine.Seed {
	if isUndefinedOrNull(v) {
		return engine.Seed{}
	}
	switch x := v.Export().(type) {
	case string:
		return engine.StringSeed(x)
	case int64:
		return engine.NumberSeed(float64(x))
	case float64:
		return engine.NumberSeed(x)
	default:
		return engine.NumberSeed(v.ToFloat())
	}
}

func toString(v goja.Value) string {
	if isUndefinedOrNull(v) {
		return ""
	}
	return v.String()
}

// toStringSlice converts a JS array, keeping at most limit leading entries.
// Holes and nulls are skipped.
func toStringSlice(v goja.Value, limit int) ([]string, error) {
	if isUndefinedOrNull(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Array" {
		return nil, fmt.Errorf("%w: expected an array", ErrInvalidVariable)
	}
	length := obj.Get("length").ToInteger()
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrInvalidVariable, length)
	}
	length = min(length, int64(limit))

	result := make([]string, 0, length)
	for i := int64(0); i < length; i++ {
		val := obj.Get(strconv.FormatInt(i, 10))
		if !isUndefinedOrNull(val) {
			result = append(result, val.String())
		}
	}
	return result, nil
}

// toCounts converts a plain object of unit counts. Entries past
// maxArmyEntries are rejected.
func toCounts(v goja.Value) (map[string]int, error) {
	if isUndefinedOrNull(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidVariable)
	}
	keys := obj.Keys()
	if len(keys) > maxArmyEntries {
		return nil, fmt.Errorf("%w: %d entries exceeds %d", ErrInvalidVariable, len(keys), maxArmyEntries)
	}
	out := make(map[string]int, len(keys))
	for _, k := range keys {
		val := obj.Get(k)
		if isUndefinedOrNull(val) {
			continue
		}
		out[k] = int(val.ToInteger())
	}
	return out, nil
}
