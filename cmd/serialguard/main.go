// # cmd/serialguard/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"serialguard/internal/cliapp"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cliapp.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
