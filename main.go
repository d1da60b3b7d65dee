package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nasermirzaei89/postapi/cli"
)

func main() {
	ctx := context.Background()

	err := cli.Execute(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run app", "error", err)
		os.Exit(1)
	}
}
