package main

import (
	"os"

	"github.com/ChitterSync/SynisterChat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
