// Package main is the entry point for the hatrayd agent.
package main

import (
	"os"

	"github.com/hatray/hatray/internal/daemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
