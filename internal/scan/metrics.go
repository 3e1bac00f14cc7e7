package scan

import (
	"slices"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
)

// Metric names a number extracted from a battle result.
type Metric string

const (
	MetricMargin       Metric = "margin"
	MetricPlayerHP     Metric = "player_hp"
	MetricGhostHP      Metric = "ghost_hp"
	MetricRounds       Metric = "rounds"
	MetricPlayerDamage Metric = "player_damage"
)

// MetricFunc extracts a metric from a result.
type MetricFunc func(battle.Result) float64

var metricFuncs = map[Metric]MetricFunc{
	MetricMargin:       battle.Result.Margin,
	MetricPlayerHP:     func(r battle.Result) float64 { return r.Remaining.PlayerHP },
	MetricGhostHP:      func(r battle.Result) float64 { return r.Remaining.GhostHP },
	MetricRounds:       func(r battle.Result) float64 { return float64(len(r.Rounds)) },
	MetricPlayerDamage: battle.Result.PlayerDamage,
}

// LookupMetric returns the extractor for name.
func LookupMetric(name Metric) (MetricFunc, bool) {
	fn, ok := metricFuncs[name]
	return fn, ok
}

// Metrics lists the supported metric names in sorted order.
func Metrics() []Metric {
	out := make([]Metric, 0, len(metricFuncs))
	for m := range metricFuncs {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}
