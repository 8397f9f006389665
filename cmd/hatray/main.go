// Package main is the entry point for the hatray CLI.
package main

import (
	"os"

	"github.com/hatray/hatray/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
