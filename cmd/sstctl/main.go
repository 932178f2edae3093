package main

import (
	"os"

	"github.com/seatemp/sea-temperature/cmd/sstctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
