// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/cache"
	"github.com/javajoker/bookswap-backend/internal/config"
	"github.com/javajoker/bookswap-backend/internal/database"
	"github.com/javajoker/bookswap-backend/internal/events"
	"github.com/javajoker/bookswap-backend/internal/i18n"
	"github.com/javajoker/bookswap-backend/internal/router"
	"github.com/javajoker/bookswap-backend/internal/services"
)

func main() {
	log := logrus.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(log, cfg.Log)

	// Initialize database
	db, err := database.Initialize(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db, log)

	// Run database migrations
	if err := database.RunMigrations(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	store, err := services.NewBlobStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize blob storage")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to NATS")
		}
		publisher = nats
	}
	defer publisher.Close()

	var views cache.ViewCache = cache.NoopViewCache{}
	if cfg.Redis.Addr != "" {
		redisViews, err := cache.NewRedisViewCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ViewTTL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		views = redisViews
	}
	defer views.Close()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	server := router.Initialize(ctx, router.Dependencies{
		DB:        db,
		Config:    cfg,
		Log:       log,
		Store:     store,
		Publisher: publisher,
		Views:     views,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      server.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"storage": cfg.Storage.Backend,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	stop()

	// Let in-flight notification mail finish before closing its dependencies.
	server.Notifier.Wait()
	log.Info("Server exited")
}

func configureLogger(log *logrus.Logger, cfg config.LogConfig) {
	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}
