package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func backlinks(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: %s backlinks PATH", cmd.Root().Name)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunBacklinks(ctx, cmd.Args().First(), os.Stdout, cmd.Bool("json"),
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func toggle(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: %s toggle PATH LINE [--checked]", cmd.Root().Name)
	}
	line, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid line %q: %w", cmd.Args().Get(1), err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunToggle(ctx, cmd.Args().First(), line, cmd.Bool("checked"), os.Stdout,
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func main() {
	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "Inline backlinks for a Markdown vault: every note linking here, with the lines that do it",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, live panels and vault watcher (default)",
				Action: serve,
			},
			{
				Name:      "backlinks",
				Usage:     "Print the backlinks panel of a note",
				ArgsUsage: "PATH",
				Action:    backlinks,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the panel as JSON"},
				},
			},
			{
				Name:      "toggle",
				Usage:     "Check or uncheck the task checkbox on a line of a note",
				ArgsUsage: "PATH LINE",
				Action:    toggle,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "checked", Usage: "Check the box (unchecks when omitted)"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
