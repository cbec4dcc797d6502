package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"nssplayer/internal/app"
)

func shareCmd(cfg *app.Config) *cli.Command {
	return &cli.Command{
		Name:  "share",
		Usage: "Share one file and print its URL until interrupted",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Video file to share",
				Required: true,
			},
		}, shareFlags(cfg)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyShareFlags(cfg, cmd)
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runShare(ctx, cmd.Root().Writer, *cfg, cmd.String("file"))
		},
	}
}

// runShare blocks until ctx is cancelled.
func runShare(ctx context.Context, out io.Writer, cfg app.Config, file string) error {
	logger := slog.Default()

	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("cannot share %s: %w", file, err)
	}

	controller, closeHistory, err := newController(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory(context.Background())

	if _, err := controller.SelectFile(file); err != nil {
		return err
	}

	res := controller.StartSharing(ctx)
	if err := res.Err(); err != nil {
		return err
	}
	writeBanner(out, bannerInfo{URL: res.URL, File: file})

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout+time.Second)
	defer cancel()
	return controller.Close(stopCtx)
}
