package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/binhphanhai/crambook/internal"
	pkgconfig "github.com/binhphanhai/crambook/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runCheck(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return internal.RunCheck(cfg, internal.CheckOptions{
		JSON:   cmd.Bool("json"),
		Strict: cmd.Bool("strict"),
	}, os.Stdout)
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return internal.RunMCP(cfg)
}

func main() {
	cmd := &cli.Command{
		Name:  "crambook",
		Usage: "Interview study-guide corpus with contract checking, full-text search, and MCP access",
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
				Name:   "serve",
				Usage:  "Start the HTTP server, corpus watcher, and SSE stream",
				Action: runServe,
			},
			{
				Name:  "check",
				Usage: "Run the authoring contract against the corpus and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit the full report as JSON",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Treat warnings as failures",
					},
				},
				Action: runCheck,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the corpus to MCP clients over stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
