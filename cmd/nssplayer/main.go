package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"nssplayer/internal/app"
)

var version = "dev"

func main() {
	if err := app.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg := app.LoadConfig()

	if err := newRootCmd(&cfg, os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the CLI. Flags are layered over cfg, which already holds
// the environment values.
func newRootCmd(cfg *app.Config, stdout, logOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "nssplayer",
		Usage:   "Share a local video file with devices on the same network",
		Version: version,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: cfg.LogLevel,
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text, json, pretty",
				Value: cfg.LogFormat,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			format, err := parseLogFormat(cmd.String("log-format"))
			if err != nil {
				return ctx, err
			}
			cfg.LogLevel = cmd.String("log-level")
			cfg.LogFormat = format
			slog.SetDefault(newLogger(logOut, cfg.LogLevel, cfg.LogFormat))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(cfg),
			shareCmd(cfg),
		},
	}
}

// shareFlags are accepted by both serve and share.
func shareFlags(cfg *app.Config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "port",
			Usage: "Port the streaming server binds",
			Value: cfg.SharePort,
		},
		&cli.StringFlag{
			Name:  "bind",
			Usage: "Interface the streaming server binds (empty for all)",
			Value: cfg.ShareBindHost,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Host name or address to advertise in the share URL",
			Value: cfg.ShareHost,
		},
	}
}

func applyShareFlags(cfg *app.Config, cmd *cli.Command) {
	cfg.SharePort = cmd.Int("port")
	cfg.ShareBindHost = cmd.String("bind")
	cfg.ShareHost = cmd.String("host")
}
