package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trustnocode/auditdash/internal/api"
	"github.com/trustnocode/auditdash/internal/artifacts"
	"github.com/trustnocode/auditdash/internal/config"
	"github.com/trustnocode/auditdash/internal/logging"
	"github.com/trustnocode/auditdash/internal/metrics"
	"github.com/trustnocode/auditdash/internal/volumes"
)

const shutdownGrace = 10 * time.Second

type serveFlags struct {
	listen     string
	metrics    string
	staticDir  string
	corsOrigin string
}

func (sf *serveFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&sf.listen, "listen", "", "API listen address (default $LISTEN_ADDR or :3101)")
	f.StringVar(&sf.metrics, "metrics-addr", "", "Prometheus listen address, empty disables")
	f.StringVar(&sf.staticDir, "static-dir", "", "serve the built UI from this directory")
	f.StringVar(&sf.corsOrigin, "cors-origin", "", `allowed CORS origin, "*" reflects the caller`)
}

func (sf *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.ListenAddr = sf.listen
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = sf.metrics
	}
	if flags.Changed("static-dir") {
		cfg.StaticDir = sf.staticDir
	}
	if flags.Changed("cors-origin") {
		cfg.CORSOrigin = sf.corsOrigin
	}
	return cfg.Validate()
}

func newServeCmd(gf *globalFlags) *cobra.Command {
	sf := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, gf, sf)
		},
	}
	sf.register(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, gf *globalFlags, sf *serveFlags) error {
	cfg, err := loadConfig(cmd, gf)
	if err != nil {
		return err
	}
	defer logging.Sync()
	if err := sf.apply(cmd, cfg); err != nil {
		return err
	}

	logging.Info("auditdash starting...",
		logging.String("listen", cfg.ListenAddr),
		logging.String("metrics", cfg.MetricsAddr),
		logging.String("storage", cfg.StorageDir))

	store, err := openStore(cfg, time.Now())
	if err != nil {
		return err
	}

	srv := api.NewServer(store, volumes.Detect(cfg.VolumeTimeout), api.Options{
		StaticDir:  cfg.StaticDir,
		CORSOrigin: cfg.CORSOrigin,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	servers := []*http.Server{{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}
	for _, hs := range servers {
		g.Go(func() error {
			logging.Info("listening", logging.String("addr", hs.Addr))
			if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if cfg.CleanupInterval > 0 {
		g.Go(func() error {
			sweep(ctx, store, cfg.CleanupInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logging.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		var errs []error
		for _, hs := range servers {
			errs = append(errs, hs.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logging.Error("server stopped", logging.Err(err))
		return err
	}
	logging.Info("server stopped")
	return nil
}

// openStore opens the artifact store and sweeps what a previous run left
// behind. Root creation and sweep failures are logged and serving goes on;
// requests touching the store then fail individually.
func openStore(cfg *config.Config, now time.Time) (*artifacts.Store, error) {
	store, err := artifacts.Open(cfg.StorageDir, cfg.ArtifactTTL)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureRoot(); err != nil {
		logging.Warn("storage root unavailable", logging.String("root", store.Root()), logging.Err(err))
	}

	n, err := store.Cleanup(now)
	switch {
	case err != nil:
		logging.Warn("startup cleanup incomplete", logging.Int("deleted", n), logging.Err(err))
	case n > 0:
		logging.Info("startup cleanup", logging.Int("deleted", n))
	}
	return store, nil
}

// sweep deletes expired artifacts every interval until ctx is done.
func sweep(ctx context.Context, store *artifacts.Store, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Cleanup(now)
			if err != nil {
				logging.Warn("periodic cleanup incomplete", logging.Int("deleted", n), logging.Err(err))
				continue
			}
			if n > 0 {
				logging.Info("expired bootstrap files removed", logging.Int("deleted", n))
			}
		}
	}
}
