package main

import (
	"os"

	"github.com/rustyeddy/stager/cmd/stager/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
