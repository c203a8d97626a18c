// Package main is the entry point for the tabq CLI.
package main

import (
	"os"

	"github.com/tabq-io/tabq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
