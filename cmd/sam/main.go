package main

import (
	"github.com/bassista/go_sam/internal/commands"
	"github.com/bassista/go_sam/internal/logger"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		logger.WithComponent("main").Fatalf("error during command execution: %v", err)
	}
}
