// Package main is the entry point for the vindex server.
package main

import (
	"os"

	"github.com/vindexhq/vindex/cmd/vindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
