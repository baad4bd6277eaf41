package main

import (
	"os"

	"github.com/wonny/etfscope/cmd/etfscope/commands"
)

// main is the entry point for the etfscope CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/etfscope [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
