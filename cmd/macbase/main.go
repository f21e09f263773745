// Package main provides the macbase CLI for parsing annotated games,
// evaluating positions, serving the analysis API and managing the PGN
// archive.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
