package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eadshop/ecommerce-services/internal/config"
	"github.com/eadshop/ecommerce-services/internal/db"
	"github.com/eadshop/ecommerce-services/internal/order"
	"github.com/eadshop/ecommerce-services/internal/product"
	"github.com/eadshop/ecommerce-services/internal/transport"
	"github.com/eadshop/ecommerce-services/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "order-service").Logger()

	log.Info().Msg("Order service starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	dbConn, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	// Inventory decrement runs as a post-commit hook when the catalog service
	// is reachable. A failed decrement is logged, never rolled into the order.
	var postCommit order.PostCommitHook
	if cfg.Catalog.ServiceURL != "" {
		catalogClient := product.NewClient(cfg.Catalog.ServiceURL)
		postCommit = func(ctx context.Context, o *order.Order) error {
			for _, item := range o.Items {
				if err := catalogClient.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			return nil
		}
	}

	repo := order.NewRepository(dbConn.Pool)
	builder := order.NewBuilder(nil, nil)
	svc := order.NewService(repo, builder, postCommit)

	httpMetrics := metrics.NewHTTPMetrics("order")
	router := transport.NewOrderRouter(svc, httpMetrics)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
