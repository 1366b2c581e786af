package commands

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
	"git.home.luguber.info/inful/pingtriage/internal/metrics"
	"git.home.luguber.info/inful/pingtriage/internal/watcher"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsAddr string        `name:"metrics-addr" help:"Serve /metrics on this address (default: metrics.addr when metrics.enabled)"`
	Debounce    time.Duration `help:"Quiet period before reloading after a change" default:"500ms"`
}

func (c *WatchCmd) Run(g *Global, _ *CLI) error {
	ctx := g.Context()
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	s, err := openStore(g, rec)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := os.MkdirAll(s.store.Dir(), 0o750); err != nil {
		return errors.FileSystemError("failed to create state directory").
			WithCause(err).
			WithContext("path", s.store.Dir()).
			Build()
	}
	// Seed the gauges from what is on disk now.
	if err := s.store.Reload(); err != nil {
		g.Logger.Warn("Could not read state document; watching anyway",
			logfields.Path(s.store.Path()), logfields.Error(err))
	}

	w, err := watcher.New(s.store.Path(), func(context.Context) error {
		if err := s.store.Reload(); err != nil {
			return err
		}
		st := s.store.Stats()
		g.Logger.Info("State document changed on disk",
			logfields.Count(st.TotalPings),
			"new", st.NewPings,
			"analyzed", st.AnalyzedPings,
			"synced", st.SyncedPings,
			"threads", st.TotalThreads)
		return nil
	}, watcher.WithDebounce(c.Debounce), watcher.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	addr := c.MetricsAddr
	if addr == "" && g.Config.Metrics.Enabled {
		addr = g.Config.Metrics.Addr
	}
	if addr == "" {
		g.Logger.Info("Watching without metrics endpoint")
		<-ctx.Done()
		return nil
	}
	return serveMetrics(ctx, g, addr, reg)
}

// serveMetrics runs the /metrics endpoint until ctx is done.
func serveMetrics(ctx context.Context, g *Global, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.Logger.Info("Serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.RuntimeError("metrics server failed").WithCause(err).WithContext("addr", addr).Build()
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		g.Logger.Warn("Metrics server shutdown failed", logfields.Error(err))
	}
	return nil
}
