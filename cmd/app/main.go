package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/morphclean/internal"
	"github.com/starford/morphclean/internal/actions"
	pkgconfig "github.com/starford/morphclean/pkg/config"
)

var version = "dev"

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else {
		found, err := pkgconfig.LoadOrDefault(configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if !found {
			slog.Warn("config file not found, using defaults", slog.String("path", configPath))
		}
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func action(name string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		return internal.RunAction(ctx, name, opts...)
	}
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func seed(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Seed(ctx, cmd.String("fixture"), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "morphclean",
		Usage:   "Post-recalculation cleanup for Morphman flashcard collections",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Recalculate morphemes, then run every cleanup pass",
				Action: action(actions.ActionRun),
			},
			{
				Name:   "cleanup",
				Usage:  "Run the cleanup passes without recalculating",
				Action: action(actions.ActionJustCleanUp),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and watch the recalculation marker",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:  "seed",
				Usage: "Load a YAML fixture into the collection",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "fixture",
						Aliases:  []string{"f"},
						Usage:    "Path to the fixture file",
						Required: true,
					},
				},
				Action: seed,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
