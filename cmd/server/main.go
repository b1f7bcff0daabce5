package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/eslsoft/flashnet/cmd"
)

// main runs the server alone, for images that ship no client commands.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.RunServer(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
