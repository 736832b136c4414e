package main

import (
	"os"
	_ "time/tzdata"

	"github.com/bobmcallan/purse/cmd/purse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
