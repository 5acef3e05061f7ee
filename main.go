package main

import (
	"os"

	"github.com/sqlens/sqlens/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
