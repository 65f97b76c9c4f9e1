// Command mock-policy-checker serves a deterministic stand-in for the remote
// login policy service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"policycheck/internal/platform/config"
	"policycheck/internal/platform/httpserver"
	"policycheck/internal/platform/logger"
	"policycheck/internal/policychecker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; environment variables override it")
	flag.Parse()

	cfg, err := config.LoadMockServer(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("mock policy checker stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.MockServer, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h, err := policychecker.New(policychecker.Config{
		Tenant:      cfg.Tenant,
		Stage:       cfg.Stage,
		SigningKey:  cfg.SigningKey,
		DeniedUUIDs: cfg.DeniedUUIDs,
	}, policychecker.WithLogger(log), policychecker.WithRegisterer(reg))
	if err != nil {
		return err
	}

	token, err := h.Verifier().Issue("dev-user", true, 24*time.Hour)
	if err != nil {
		return err
	}
	log.Info("starting mock policy checker",
		"addr", cfg.Addr,
		"route", "/"+cfg.Tenant+"/"+cfg.Stage,
		"dev_token", token,
	)

	srv := httpserver.New(cfg.Addr, policychecker.NewRouter(h, reg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
