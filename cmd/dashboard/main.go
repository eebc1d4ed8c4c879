package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"treasury_dashboard/internal/app/bootstrap"
	"treasury_dashboard/internal/app/store"
	"treasury_dashboard/internal/config"
	"treasury_dashboard/internal/infrastructure/restapi"
	"treasury_dashboard/internal/pkg/logger"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var cfgPath string
	var origins []string

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Serve the treasury transparency views over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cfgPath, origins)
		},
	}
	root.Flags().StringVar(&cfgPath, "config", utils.GetEnv("TREASURY_CONFIG", ""), "path to the YAML config document")
	root.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origins (default: all)")

	if err := root.Execute(); err != nil {
		logrus.Fatalf("dashboard: %v", err)
	}
}

func run(cfgPath string, origins []string) error {
	cfg, err := config.Resolve(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger.InstallSlog(zapLogger)

	zapLogger.Info("Configuration loaded",
		zap.String("path", cfgPath),
		zap.String("apiBaseUrl", cfg.APIBaseURL),
		zap.Uint64("defaultChainId", cfg.DefaultChain.ChainID))

	rt, err := bootstrap.Build(cfg, zapLogger, bootstrap.Options{
		Registerer: prometheus.DefaultRegisterer,
		OnToast: func(t store.Toast) {
			zapLogger.Warn("Notification raised",
				zap.String("id", t.ID),
				zap.String("title", t.Title),
				zap.String("variant", string(t.Variant)))
		},
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := restapi.NewViewHandler(rt.Views, restapi.ViewHandlerOptions{
		OrganizationName: cfg.OrganizationName,
		AuditExports:     cfg.Features.AuditLogsExportEnabled,
		Logger:           zapLogger,
	})
	routerOpts := restapi.RouterOptions{
		AllowedOrigins: origins,
		Metrics:        promhttp.Handler(),
		Logger:         zapLogger,
	}
	if cfg.Swagger.Enabled {
		routerOpts.SwaggerPath = cfg.Swagger.Path
		zapLogger.Info("API docs enabled", zap.String("path", cfg.Swagger.Path+"/index.html"))
	}
	router := restapi.SetupRouter(handler, routerOpts)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port, "authenticated", rt.Auth.IsAuthenticated())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server stopped unexpectedly", "error", err)
			return fmt.Errorf("failed to start server: %w", err)
		}
	case sig := <-quit:
		logger.Warn("Signal received", "signal", sig.String())
	}
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}
