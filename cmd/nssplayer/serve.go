package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	apihttp "nssplayer/internal/api/http"
	"nssplayer/internal/app"
	"nssplayer/internal/metrics"
	"nssplayer/internal/telemetry"
)

func serveCmd(cfg *app.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the control API and share files on request",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Control API listen address",
				Value: cfg.ControlAddr,
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Video file to select on startup",
			},
			&cli.BoolFlag{
				Name:  "share",
				Usage: "Start sharing the selected file on startup",
			},
		}, shareFlags(cfg)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyShareFlags(cfg, cmd)
			cfg.ControlAddr = cmd.String("addr")
			if cmd.Bool("share") && cmd.String("file") == "" {
				return fmt.Errorf("--share requires --file")
			}
			return runServe(ctx, *cfg, cmd.String("file"), cmd.Bool("share"))
		},
	}
}

func runServe(ctx context.Context, cfg app.Config, file string, share bool) error {
	logger := slog.Default()
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(ctx, "nssplayer", version)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("controlAddr", cfg.ControlAddr),
		slog.Int("sharePort", cfg.SharePort),
		slog.String("addressStrategy", cfg.AddressStrategy),
		slog.String("historyBackend", cfg.HistoryBackend),
		slog.Int64("chunkSize", cfg.ChunkSize),
		slog.Int("maxStreams", cfg.MaxStreams),
	)

	rootCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	controller, closeHistory, err := newController(initCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeHistory(context.Background()); err != nil {
			logger.Warn("history close error", slog.String("error", err.Error()))
		}
	}()

	api := apihttp.NewServer(controller,
		apihttp.WithLogger(logger.With(slog.String("component", "api"))),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		apihttp.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	// The API pushes status changes over its websocket.
	controller.SetNotifier(api)

	srv := &http.Server{
		Addr:              cfg.ControlAddr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("control api started", slog.String("addr", cfg.ControlAddr))

	if file != "" {
		if _, err := controller.SelectFile(file); err != nil {
			logger.Warn("select file failed", slog.String("error", err.Error()))
		} else if share {
			res := controller.StartSharing(rootCtx)
			if res.Success {
				logger.Info("share url", slog.String("url", res.URL))
			} else {
				logger.Warn("sharing start failed", slog.String("code", res.Code), slog.String("message", res.Message))
			}
		}
	}

	var serveErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("control api: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := controller.Close(shutdownCtx); err != nil {
		logger.Warn("sharing stop error", slog.String("error", err.Error()))
	}
	api.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return serveErr
}
