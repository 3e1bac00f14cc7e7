package main

import "github.com/MJE43/rune-ration-replay-go/cmd/battle-sim/cmd"

func main() {
	cmd.Execute()
}
