package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
)

// fixed1 renders a value with exactly one decimal place.
func fixed1(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBattle writes the round table and outcome of res.
func printBattle(w io.Writer, title string, res battle.Result) error {
	fmt.Fprintf(w, "%s (seed %d)\n\n", title, res.Seed)

	tw := newTable(w)
	fmt.Fprintln(tw, "ROUND\tPLAYER CARD\tGHOST CARD\tDEALT\tTAKEN\tPLAYER HP\tGHOST HP")
	for _, r := range res.Rounds {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Round, r.PlayerCard, r.GhostCard,
			fixed1(r.PlayerDamage), fixed1(r.GhostDamage),
			fixed1(r.PlayerHP), fixed1(r.GhostHP))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nWinner: %s  remaining %s vs %s  margin %s\n",
		res.Winner, fixed1(res.Remaining.PlayerHP), fixed1(res.Remaining.GhostHP), fixed1(res.Margin()))
	return nil
}
