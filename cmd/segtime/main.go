package main

import (
	"os"

	"github.com/psantana5/segtime/cmd/segtime/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
