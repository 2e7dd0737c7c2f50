package main

import (
	"os"

	"github.com/bnema/claude-voice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
