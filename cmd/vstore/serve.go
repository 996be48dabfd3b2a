package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vstore/internal/config"
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/devtools"
	"github.com/vango-dev/vstore/pkg/observe"
	"github.com/vango-dev/vstore/pkg/script"
	"github.com/vango-dev/vstore/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stores over the devtools API",
		Long: `Create the stores declared in vstore.json and serve them over the
devtools HTTP and WebSocket API.

Each store gets the built-in mutations (set, delete, increment, push,
pop, splice) and its initial state from the configured state file.

Examples:
  vstore serve
  vstore serve --config ./vstore.json --port 9300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Devtools.Port = port
			}
			if host != "" {
				cfg.Devtools.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to vstore.json (default: search from the working directory)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to serve on (default from vstore.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vstore.json)")

	return cmd
}

// loadConfig loads an explicit config file, or searches for vstore.json and
// falls back to defaults when there is none.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.LoadFromWorkingDir()
	if errors.Code(err) == "E141" {
		return config.New(), nil
	}
	return cfg, err
}

// stack is the observability wiring shared by every served store.
type stack struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	metrics  *observe.Metrics
	tracer   *observe.Tracer
}

func newStack(cfg *config.Config, logOut io.Writer) stack {
	st := stack{logger: cfg.Logger(logOut)}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		st.gatherer = reg
		st.metrics = observe.NewMetrics(
			observe.WithRegistry(reg),
			observe.WithNamespace(cfg.Metrics.Namespace),
		)
	}
	if cfg.Tracing.Enabled {
		st.tracer = observe.NewTracer(cfg.Tracing.Name)
	}
	return st
}

// openStores creates every configured store in reg.
func openStores(cfg *config.Config, reg *store.Registry, st stack) ([]*store.Store, error) {
	var stores []*store.Store
	for _, sc := range cfg.Stores {
		state := map[string]any{}
		if path := cfg.StatePath(sc); path != "" {
			loaded, err := script.LoadState(path)
			if err != nil {
				closeAll(stores)
				return nil, err
			}
			state = loaded
		}

		s, err := store.New(store.Options{
			Name:      sc.Name,
			State:     state,
			Mutations: script.Builtins(),
			Logger:    st.logger,
			Metrics:   st.metrics,
			Tracer:    st.tracer,
			Registry:  reg,
		})
		if err != nil {
			closeAll(stores)
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}

func closeAll(stores []*store.Store) {
	for _, s := range stores {
		s.Close()
	}
}

func runServe(ctx context.Context, out io.Writer, cfg *config.Config) error {
	st := newStack(cfg, os.Stderr)
	reg := store.NewRegistry()

	stores, err := openStores(cfg, reg, st)
	if err != nil {
		return err
	}
	defer closeAll(stores)

	dt := devtools.NewServer(reg, devtools.Options{Logger: st.logger, Gatherer: st.gatherer})
	defer dt.Close()

	srv := &http.Server{
		Addr:              cfg.DevtoolsAddress(),
		Handler:           dt.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	printBanner(out)
	fmt.Fprintln(out, "  serve")
	fmt.Fprintln(out)
	if len(stores) == 0 {
		warn(out, "No stores configured in %s", config.ConfigFileName)
	}
	for _, s := range stores {
		info(out, "store %-16s %s", s.Name(), s.ID())
	}
	success(out, "Devtools listening on http://%s", srv.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(out, "\n  Shutting down...")
	st.logger.Info("devtools shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
