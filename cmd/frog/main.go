// Package main provides the entry point for the frog CLI.
package main

import (
	"os"

	"github.com/griffithind/frog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
