// Package main is the entry point for the lwcdev CLI.
package main

import (
	"os"

	"github.com/lwcdev-io/lwcdev/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
