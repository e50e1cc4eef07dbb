package main

import (
	"os"

	"github.com/wonny/momentum/cmd/momentum/commands"
)

// main is the entry point for the momentum ranker CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/momentum [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
