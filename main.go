package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"spotfinder/app"
	"spotfinder/config"
	"spotfinder/cron"
	"spotfinder/handlers"
	"spotfinder/middleware"
	"spotfinder/routes"
	"spotfinder/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, config.AppConfig, "", logger)
	if err != nil {
		logger.Fatal("main: failed to assemble application", zap.Error(err))
	}
	defer application.Close()

	if config.AppConfig.PersistMode == app.PersistQueue {
		worker := cron.InitPersistWorker(ctx, application.Persister, config.AppConfig.PersistPoolSize, logger.Named("worker"))
		defer worker.Shutdown()
	}
	cron.StartIndexRefresher(ctx, application.Service, config.AppConfig.IndexRefreshInterval(), logger.Named("cron"))
	utils.StartHealthMonitor(ctx, application.HealthChecks)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	placesHandler := handlers.NewPlacesHandler(application.Service, logger.Named("http"))
	routes.RegisterRoutes(router, handlers.NewHandlerBundle(placesHandler))

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
