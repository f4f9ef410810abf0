package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nspcc-dev/neond/pkg/config"
	"github.com/nspcc-dev/neond/pkg/consensus"
	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/mempool"
	"github.com/nspcc-dev/neond/pkg/metrics"
	"github.com/nspcc-dev/neond/pkg/network"
)

func main() {
	app := cli.NewApp()
	app.Name = "neond"
	app.Usage = "a minimal blockchain peer-to-peer node"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML config file",
			Value:   "./config.yaml",
		},
	}
	app.Action = runNode

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runNode(c *cli.Context) error {
	cfgPath := c.String("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cli.Exit(fmt.Errorf("unable to load config: %w", err), 1)
	}

	log, err := cfg.Logger.Build()
	if err != nil {
		return cli.Exit(fmt.Errorf("unable to build logger: %w", err), 1)
	}
	defer log.Sync()

	instanceID := uuid.New()
	log = log.With(zap.Stringer("instance_id", instanceID))

	store, err := ledger.OpenBoltStore(filepath.Join(cfg.DataDir, "chain.db"))
	if err != nil {
		return cli.Exit(fmt.Errorf("unable to open storage: %w", err), 1)
	}
	defer store.Close()

	pool := mempool.NewPool(5000)
	cons := consensus.AcceptAllConsensus{}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		collector = metrics.NewCollector(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		log.Info("metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
	}

	srv := network.New(cfg.P2P, log, store, pool, cons, collector)

	ctx := newGraceContext()
	log.Info("starting node", zap.String("listen_address", cfg.P2P.ListenAddress), zap.String("user_agent", cfg.GenerateUserAgent()))
	if err := srv.Run(ctx); err != nil {
		return cli.Exit(fmt.Errorf("server exited: %w", err), 1)
	}
	log.Info("node stopped")
	return nil
}

// newGraceContext returns a context canceled on SIGINT or SIGTERM, the
// signal set the node shuts down gracefully on.
func newGraceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}
