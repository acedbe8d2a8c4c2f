// Package main is the entry point for the vxc CLI client.
package main

import (
	"github.com/vindexhq/vindex/cmd/vxc/cmd"
)

func main() {
	cmd.Execute()
}
