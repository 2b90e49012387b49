package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/config"
	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/control"
	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/gstengine"
	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/metrics"
)

// Version information
const version = "v0.1.0"

// Exit status when a second signal aborts a stalled shutdown.
const exitForced = 130

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to YAML configuration file (optional)")
	device := flag.String("device", "", "Capture device (default "+config.DefaultDevice+")")
	controlSource := flag.String("control", "", `Control channel: "-" for stdin, or a file/FIFO path`)
	pipelineName := flag.String("pipeline-name", "", "Pipeline name")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (optional)")
	logFormat := flag.String("log-format", "", "Log format: text, json")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("camera-control %s\n", version)
		return 0
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		cfg = *loaded
	}

	// Flags override the file
	if *device != "" {
		cfg.Pipeline.Device = *device
	}
	if *controlSource != "" {
		cfg.Control.Source = *controlSource
	}
	if *pipelineName != "" {
		cfg.Pipeline.Name = *pipelineName
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *debug {
		cfg.Log.Debug = true
	}
	if err := config.Validate(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	setupLogging(cfg.Log)

	stats := control.NewStats()
	console := control.NewConsole(os.Stdout, os.Stderr)

	if cfg.Metrics.Addr != "" {
		stop, err := startMetrics(cfg.Metrics.Addr, stats)
		if err != nil {
			slog.Error("camera-control: metrics disabled", "error", err)
		} else {
			defer stop()
		}
	}

	coordinator := control.NewCoordinator(gstengine.New(), control.CoordinatorConfig{
		PipelineName: cfg.Pipeline.Name,
		Stages:       cfg.Stages(),
		OpenControl:  control.SourceOpener(cfg.Control.Source, os.Stdin),
	}, console, stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First signal requests an orderly stop; a second one aborts a shutdown
	// stalled on a blocked control read.
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		slog.Info("camera-control: signal received, stopping", "signal", sig.String())
		cancel()

		sig, ok = <-sigChan
		if !ok {
			return
		}
		slog.Warn("camera-control: second signal, forcing exit", "signal", sig.String())
		os.Exit(exitForced)
	}()

	slog.Info("camera-control: starting",
		"version", version,
		"pipeline", cfg.Pipeline.Name,
		"device", cfg.Pipeline.Device,
		"control", cfg.Control.Source,
	)

	err := coordinator.Run(ctx)
	if err != nil {
		slog.Error("camera-control: exiting", "error", err)
	}
	return control.ExitCode(err)
}

func setupLogging(cfg config.LogConfig) {
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With("run_id", uuid.NewString()))
}

func startMetrics(addr string, stats *control.Stats) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg, stats.Snapshot); err != nil {
		return nil, err
	}
	srv, err := metrics.Listen(addr, reg)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Serve(); err != nil {
			slog.Error("camera-control: metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("camera-control: metrics shutdown", "error", err)
		}
	}, nil
}
