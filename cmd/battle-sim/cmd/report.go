package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

// ReportRun is one battle of a batch report.
type ReportRun struct {
	Run    int           `json:"run"`
	Seed   uint32        `json:"seed"`
	Winner battle.Winner `json:"winner"`
	Rounds int           `json:"rounds"`
	Margin float64       `json:"margin"`
}

// Report aggregates a batch of battles over evenly spaced seeds.
type Report struct {
	Ghost     string      `json:"ghost"`
	Runs      []ReportRun `json:"runs"`
	Wins      int         `json:"wins"`
	Losses    int         `json:"losses"`
	Draws     int         `json:"draws"`
	AvgMargin string      `json:"avg_margin"`
	AvgRounds string      `json:"avg_rounds"`
}

func newReportCmd(root *rootOptions) *cobra.Command {
	var (
		flags      battleFlags
		runs       int
		seedBase   int64
		seedStep   int64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a batch of battles and summarise the outcomes",
		Long: `Fight --runs battles against one ghost, using seed-base + i*seed-step for
run i, and print each outcome followed by totals and averages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs <= 0 {
				return fmt.Errorf("--runs must be > 0")
			}
			cat, err := root.loadCatalog()
			if err != nil {
				return err
			}

			var report Report
			margins, rounds := decimal.Zero, decimal.Zero
			for i := 0; i < runs; i++ {
				seed := seedBase + int64(i)*seedStep
				req, ghost, err := flags.request(cat, engine.NumberSeed(float64(seed)))
				if err != nil {
					return err
				}
				report.Ghost = ghost.ID

				res := battle.Simulate(cat, req)
				run := ReportRun{Run: i + 1, Seed: res.Seed, Winner: res.Winner, Rounds: len(res.Rounds), Margin: res.Margin()}
				report.Runs = append(report.Runs, run)
				switch res.Winner {
				case battle.WinnerPlayer:
					report.Wins++
				case battle.WinnerGhost:
					report.Losses++
				default:
					report.Draws++
				}
				margins = margins.Add(decimal.NewFromFloat(run.Margin))
				rounds = rounds.Add(decimal.NewFromInt(int64(run.Rounds)))
			}
			n := decimal.NewFromInt(int64(runs))
			report.AvgMargin = margins.Div(n).StringFixed(2)
			report.AvgRounds = rounds.Div(n).StringFixed(2)

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, report)
			}

			fmt.Fprintf(out, "=== Battle Report ===\n")
			fmt.Fprintf(out, "ghost=%s runs=%d seed_base=%d seed_step=%d\n\n", report.Ghost, runs, seedBase, seedStep)
			tw := newTable(out)
			fmt.Fprintln(tw, "RUN\tSEED\tWINNER\tROUNDS\tMARGIN")
			for _, r := range report.Runs {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\n", r.Run, r.Seed, r.Winner, r.Rounds, fixed1(r.Margin))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nwins %d  losses %d  draws %d\n", report.Wins, report.Losses, report.Draws)
			fmt.Fprintf(out, "avg margin %s  avg rounds %s\n", report.AvgMargin, report.AvgRounds)
			return nil
		},
	}

	flags.register(cmd.Flags())
	f := cmd.Flags()
	f.IntVar(&runs, "runs", 5, "number of battles")
	f.Int64Var(&seedBase, "seed-base", 42, "seed of run 1")
	f.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	f.BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	return cmd
}
