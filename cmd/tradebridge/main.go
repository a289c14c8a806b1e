package main

import (
	"os"

	"github.com/rustyeddy/tradebridge/cmd/tradebridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
