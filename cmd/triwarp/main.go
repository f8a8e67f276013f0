package main

import (
	"os"

	"github.com/esimov/triwarp/cmd/triwarp/cmd"
	"github.com/esimov/triwarp/utils"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		utils.PrintError(os.Stderr, err, utils.IsTerminal(os.Stderr))
		os.Exit(1)
	}
}
