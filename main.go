// Package main is the entry point for the ctestgen CLI.
package main

import "ctestgen.dev/pkg/ctestgen/cmd"

func main() {
	cmd.Execute()
}
