// Package metrics exposes run statistics as Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/control"
)

const namespace = "camera_control"

// SnapshotFunc returns the current run statistics.
type SnapshotFunc func() control.Snapshot

// Register adds collectors reading from snapshot to reg.
func Register(reg prometheus.Registerer, snapshot SnapshotFunc) error {
	counter := func(name, help string, value func(control.Snapshot) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(snapshot())) })
	}

	collectors := []prometheus.Collector{
		counter("pauses_total", "Play/pause toggles that requested PAUSED.",
			func(s control.Snapshot) uint64 { return s.Pauses }),
		counter("resumes_total", "Play/pause toggles that requested PLAYING.",
			func(s control.Snapshot) uint64 { return s.Resumes }),
		counter("ignored_commands_total", "Control channel bytes that were not commands.",
			func(s control.Snapshot) uint64 { return s.IgnoredCommands }),
		counter("transition_failures_total", "State changes the pipeline rejected synchronously.",
			func(s control.Snapshot) uint64 { return s.TransitionFailures }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playing",
			Help:      "1 if the last requested transition was PLAYING.",
		}, func() float64 {
			if snapshot().Playing {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the pipeline entered RUNNING.",
		}, func() float64 { return snapshot().Uptime.Seconds() }),
	}

	for _, kind := range []control.EventKind{
		control.EventError, control.EventWarning, control.EventEOS,
		control.EventStateChanged, control.EventOther,
	} {
		kind := kind
		collectors = append(collectors, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "bus_events_total",
			Help:        "Pipeline bus events by kind.",
			ConstLabels: prometheus.Labels{"kind": kind.String()},
		}, func() float64 { return float64(snapshot().Events[kind]) }))
	}

	for _, category := range []control.ErrorCategory{
		control.ErrCategoryDevice, control.ErrCategoryNegotiation,
		control.ErrCategoryResource, control.ErrCategoryUnknown,
	} {
		category := category
		collectors = append(collectors, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pipeline_errors_total",
			Help:        "Pipeline errors by category.",
			ConstLabels: prometheus.Labels{"category": category.String()},
		}, func() float64 { return float64(snapshot().Errors[category]) }))
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("metrics: register: %w", err)
		}
	}
	return nil
}

// Server serves /metrics for a registry.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and returns a server ready to Serve.
func Listen(addr string, gatherer prometheus.Gatherer) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln: ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	slog.Info("metrics: serving", "addr", s.Addr())
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
