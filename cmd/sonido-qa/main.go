package main

import (
	"os"

	"github.com/RyanBlaney/sonido-qa/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
