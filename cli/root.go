package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nasermirzaei89/postapi/app"
	"github.com/spf13/cobra"
)

var version = "dev"

func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:     "postapi",
		Short:   "HTTP service for creating, searching and sorting posts",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := godotenv.Load(envFile)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load env file %q: %w", envFile, err)
			}

			slog.SetDefault(app.NewLogger())

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newPostsCommand())

	return rootCmd
}

func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := app.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	err = a.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to run app: %w", err)
	}

	return nil
}
