// Command app runs the safeo API server and its operational tasks:
// migrations, master key generation, KEK rotation and payload cleanup.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:     "safeo",
		Usage:    "Encrypted document vault with two-phase email OTP authentication",
		Version:  version,
		Writer:   os.Stdout,
		Commands: append(getSystemCommands(version), getKeyCommands()...),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
