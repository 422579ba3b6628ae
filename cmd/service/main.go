package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gitlab.com/dirk.krummacker/contact-manager/internal/bootstrap"
	"gitlab.com/dirk.krummacker/contact-manager/internal/config"
	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
	"gitlab.com/dirk.krummacker/contact-manager/internal/metrics"
	"gitlab.com/dirk.krummacker/contact-manager/internal/server"
	"gitlab.com/dirk.krummacker/contact-manager/internal/service"
	"gitlab.com/dirk.krummacker/contact-manager/internal/store"
	"golang.org/x/sync/errgroup"
)

// Usage example on the command line:
// > PORT=8080 GIN_LOGGING=OFF go run main.go -config=../../config.toml
// > PORT=8080 DBDRIVER=mysql DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 GIN_MODE=release go run main.go
func main() {
	configPath := flag.String("config", envOr("CONFIG", config.DefaultConfigPath), "path of the TOML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.L.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(db, logger.L.With("component", "store"))
	defer st.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Bootstrap.Enabled {
		bootstrap.New(st, logger.L.With("component", "bootstrap"), m).Run(ctx)
	}

	svc := service.New(st,
		service.WithMetrics(m),
		service.WithLogger(logger.L.With("component", "service")),
	)
	router := server.NewRouter(server.Options{
		Contacts:       svc,
		Database:       st,
		Logger:         logger.L,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		RequestLogging: cfg.Server.RequestLogging,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.L.Info("listening", "addr", cfg.Server.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.L.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
