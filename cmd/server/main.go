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
	"github.com/redis/go-redis/v9"

	"github.com/printrelay/printrelay/internal/api"
	"github.com/printrelay/printrelay/internal/config"
	"github.com/printrelay/printrelay/internal/log"
	"github.com/printrelay/printrelay/internal/relay"
	"github.com/printrelay/printrelay/internal/store"
)

func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	configFlag := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath(*configFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.Logging.Level)

	// The submission side must not accept jobs without a live relay
	// connection, so a broker that is unreachable at startup is fatal.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Broker.Addr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Str("addr", cfg.Broker.Addr).Msg("failed to connect to broker")
	}
	cancel()
	logger.Info().Str("addr", cfg.Broker.Addr).Msg("connected to broker")

	publisher := relay.NewPublisher(rdb, cfg.Broker.Stream)

	// Count is a best-effort diagnostic: the store belongs to the worker, this
	// process only reads it. A missing database file just means zero so far.
	var counter api.Counter
	if s, err := store.OpenReadOnly(cfg.Database.Path); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Database.Path).
			Msg("store not readable, count will report 0")
	} else {
		counter = s
		defer s.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(publisher, counter, *logger)
	router := api.NewRouter(handler, "public/index.html", *logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	if err := rdb.Close(); err != nil {
		logger.Error().Err(err).Msg("broker close error")
	}
}
