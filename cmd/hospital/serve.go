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

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/hospital/pkg/common/database"
	"github.com/synaptica-ai/hospital/pkg/common/kafka"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
	"github.com/synaptica-ai/hospital/pkg/observability/metrics"
	"github.com/synaptica-ai/hospital/pkg/records"
	"github.com/synaptica-ai/hospital/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close(db)

	if err := records.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := records.Options{
		CacheTTL:   cfg.CacheTTL,
		OnMutation: m.RecordMutation,
	}

	if redisClient := database.NewRedis(cfg); redisClient != nil {
		defer redisClient.Close()
		opts.Cache = redisClient
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		opts.Events = producer
		logger.Log.WithFields(map[string]interface{}{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaTopic,
		}).Info("Publishing change events")
	}

	store := records.NewStore(db, opts)

	views, err := web.NewViews(cfg.PhoneRegion)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	handler := web.NewHandler(web.Repositories{
		Doctors:       store.Doctors,
		Patients:      store.Patients,
		Prescriptions: store.Prescriptions,
		Audit:         store.Audit,
	}, views, web.Options{LegacyGetDelete: cfg.LegacyGetDelete})

	router := web.NewRouter(web.RouterConfig{
		Handler:        handler,
		Ready:          sqlDB,
		Metrics:        m.Handler(),
		Observer:       m,
		MaxRequestBody: cfg.MaxRequestBody,
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":   cfg.ServerHost,
			"port":   cfg.ServerPort,
			"driver": cfg.DBDriver,
		}).Info("Hospital records started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Log.Info("Shutting down hospital records...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Hospital records stopped")
	return nil
}
