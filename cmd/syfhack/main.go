// Command syfhack indexes internal documentation for retrieval and scores
// automation workflows for security risk.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/KKaradi/syfhack10year/internal/adapters/driving/cli"
	"github.com/KKaradi/syfhack10year/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Loading .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBuilder(wire)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
