// Command vmhealth checks CPU, memory and disk utilization on this host.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/cmd"
)

func main() {
	// Load .env if present (for local development); existing vars win
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx, os.Args[1:], cmd.Deps{})
	stop()
	os.Exit(code)
}
