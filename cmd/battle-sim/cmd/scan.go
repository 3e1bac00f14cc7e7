package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

func newScanCmd(root *rootOptions) *cobra.Command {
	var (
		flags      battleFlags
		req        scan.Request
		metric     string
		op         string
		winner     string
		workers    int
		timeout    time.Duration
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Search a seed range for battles matching a target",
		Long: `Simulate every seed in [--start, --end] against a ghost and report the
lowest seeds whose metric matches the target.

Metrics: margin, player_hp, ghost_hp, rounds, player_damage
Operators: eq, gt, ge, lt, le, between, outside

Examples:
  battle-sim scan --ghost ember-sages --start 0 --end 100000 --metric margin --op ge --val 500
  battle-sim scan --start 1 --end 5000 --metric rounds --op eq --val 5 --winner player`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := root.loadCatalog()
			if err != nil {
				return err
			}
			template, ghost, err := flags.request(cat, engine.Seed{})
			if err != nil {
				return err
			}

			req.Battle = template
			req.Metric = scan.Metric(metric)
			if _, ok := scan.LookupMetric(req.Metric); !ok {
				return fmt.Errorf("%w %q (one of: %s)", scan.ErrInvalidMetric, metric, metricList())
			}
			req.TargetOp = scan.TargetOp(op)
			req.Winner = battle.Winner(winner)

			scanner := scan.NewScanner(workers, timeout, version.EngineVersion)
			result, err := scanner.Scan(cmd.Context(), cat, req)
			if err != nil && !(errors.Is(err, scan.ErrTimeout) && result != nil) {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, result)
			}

			fmt.Fprintf(out, "Scan vs %s, seeds %d..%d, %s %s %g\n\n", ghost.Name, req.SeedStart, req.SeedEnd, req.Metric, req.TargetOp, req.TargetVal)
			tw := newTable(out)
			fmt.Fprintln(tw, "SEED\tMETRIC\tWINNER\tROUNDS")
			for _, h := range result.Hits {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", h.Seed, fixed1(h.Metric), h.Winner, h.Rounds)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			s := result.Summary
			fmt.Fprintf(out, "\nevaluated %d, hits %d (showing %d), wins %d, losses %d, draws %d\n",
				s.TotalEvaluated, s.HitsFound, len(result.Hits), s.Wins, s.Losses, s.Draws)
			if s.HitsFound > 0 {
				fmt.Fprintf(out, "metric min %s, max %s, mean %s\n", fixed1(s.MinMetric), fixed1(s.MaxMetric), fixed1(s.MeanMetric))
			}
			if s.TimedOut {
				fmt.Fprintln(out, "scan timed out; results are partial")
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	f := cmd.Flags()
	f.Uint64Var(&req.SeedStart, "start", 0, "first seed")
	f.Uint64Var(&req.SeedEnd, "end", 9999, "last seed (inclusive)")
	f.StringVar(&metric, "metric", string(scan.MetricMargin), "metric to evaluate: "+metricList())
	f.StringVar(&op, "op", string(scan.OpGreaterEqual), "target operator")
	f.Float64Var(&req.TargetVal, "val", 0, "target value")
	f.Float64Var(&req.TargetVal2, "val2", 0, "upper bound for between/outside")
	f.Float64Var(&req.Tolerance, "tolerance", 0, "comparison tolerance")
	f.StringVar(&winner, "winner", "", "only count battles won by player, ghost or draw")
	f.IntVar(&req.Limit, "limit", 25, "maximum hits to report (0 for all)")
	f.IntVar(&workers, "workers", 0, "worker goroutines (default GOMAXPROCS)")
	f.DurationVar(&timeout, "timeout", time.Minute, "give up after this long")
	f.BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

func metricList() string {
	metrics := scan.Metrics()
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
