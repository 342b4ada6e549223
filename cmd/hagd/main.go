// Command hagd runs the hag1 TCP router: an accept loop over
// internal/server plus an admin HTTP surface over internal/adminapi,
// wired the way the teacher's cmd/socket-gateway/main.go assembles its
// components — global-ish wiring in main, slog for structured logging,
// signal-driven shutdown.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dhag/Py.HagLib.Socket/internal/adminapi"
	"github.com/dhag/Py.HagLib.Socket/internal/blobstore"
	"github.com/dhag/Py.HagLib.Socket/internal/config"
	"github.com/dhag/Py.HagLib.Socket/internal/fabric"
	"github.com/dhag/Py.HagLib.Socket/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	envPath := flag.String("env", ".env", "path to .env overrides")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	hub := fabric.NewHub(logger)
	hub.AddLogMessageListener(func(message string) {
		logger.Info("hub log_message", "message", message)
	})

	metrics := fabric.NewRouterMetrics(prometheus.DefaultRegisterer)

	blobs, err := blobstore.New(cfg.Blobstore.TempDir)
	if err != nil {
		logger.Error("failed to init blob store", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, hub, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	admin := adminapi.New(srv.Sessions(), blobs, logger)
	adminSrv := &http.Server{Addr: cfg.Admin.ListenAddr, Handler: admin.Router()}
	go func() {
		logger.Info("admin HTTP listening", "addr", cfg.Admin.ListenAddr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		adminSrv.Close()
		blobs.Cleanup()
	}()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
