package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/internal/config"
	vperrors "github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/stream"
	"github.com/vango-dev/vpatch/pkg/updater"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		addr     string
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "serve [FILE...]",
		Short: "Stream snapshots to WebSocket clients",
		Long: `Serve a WebSocket endpoint that streams the given snapshots as patch
scripts. Every client starts from the first snapshot and receives one
patches frame per interval, cycling through the rest.

Snapshot files default to serve.states from vpatch.json.

Endpoints:
  /ws        WebSocket stream (serve.wsPath)
  /metrics   Prometheus metrics (serve.metricsPath, "-" disables)
  /healthz   Liveness probe

Examples:
  vpatch serve states.yaml
  vpatch serve --addr=:9000 --interval=250ms states.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if interval > 0 {
				cfg.Serve.Interval = config.Duration(interval)
			}
			if once {
				cfg.Serve.Loop = false
			}
			if len(args) == 0 {
				if cfg.Serve.States == "" {
					return vperrors.New("V003").
						WithDetail("No snapshot files given and serve.states is not set.").
						WithSuggestion("Pass a snapshot file: vpatch serve states.yaml")
				}
				args = []string{cfg.StatesPath()}
			}

			states, err := loadStates(args, 1)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, states, g.logger(cfg, os.Stderr))
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from vpatch.json)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Delay between pushed snapshots (default from vpatch.json)")
	cmd.Flags().BoolVar(&once, "once", false, "Stop pushing after the last snapshot instead of looping")

	return cmd
}

// newRouter mounts the stream handler, metrics and health endpoints.
func newRouter(cfg *config.Config, states []*vdom.VNode, logger *slog.Logger, reg *prometheus.Registry) (http.Handler, *stream.Handler) {
	metrics := updater.NewMetrics(updater.WithRegistry(reg))

	handler := stream.NewHandler(
		func(*http.Request) *vdom.VNode { return states[0] },
		pushStates(states, time.Duration(cfg.Serve.Interval), cfg.Serve.Loop),
		stream.WithConfig(cfg.StreamConfig()),
		stream.WithLogger(logger),
		stream.WithMetrics(metrics),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Handle(cfg.Serve.WSPath, handler)
	if cfg.Serve.MetricsPath != "-" {
		r.Handle(cfg.Serve.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	return r, handler
}

// pushStates returns a RunFunc that pushes states[1:] to the session, one
// per interval. With loop set it starts over from states[0].
func pushStates(states []*vdom.VNode, interval time.Duration, loop bool) stream.RunFunc {
	return func(ctx context.Context, s *stream.Session) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		next := 1
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.Done():
				return nil
			case <-ticker.C:
			}

			if next == len(states) {
				if !loop {
					ticker.Stop()
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-s.Done():
						return nil
					}
				}
				next = 0
			}
			if err := s.Push(ctx, states[next]); err != nil {
				return err
			}
			next++
		}
	}
}

func runServe(ctx context.Context, cfg *config.Config, states []*vdom.VNode, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	router, handler := newRouter(cfg, states, logger, reg)

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Sessions end when ctx is canceled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return vperrors.New("V041").Wrap(err)
	}
	logger.Info("serving",
		"addr", ln.Addr().String(),
		"ws", cfg.Serve.WSPath,
		"states", len(states),
		"interval", time.Duration(cfg.Serve.Interval),
	)
	fmt.Printf("  Listening on ws://%s%s\n", ln.Addr(), cfg.Serve.WSPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return vperrors.New("V041").Wrap(err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return vperrors.New("V041").Wrap(err)
	}
	handler.Wait()
	return nil
}
