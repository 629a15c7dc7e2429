// Package main is the entry point of the skillswap API server. It serves
// the HTTP API, runs database migrations and issues development tokens.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
