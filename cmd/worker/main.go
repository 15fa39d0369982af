package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/printrelay/printrelay/internal/config"
	"github.com/printrelay/printrelay/internal/log"
	"github.com/printrelay/printrelay/internal/printer"
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
	brokerFlag := flag.String("broker", "", "broker address override (host:port)")
	dbFlag := flag.String("db", "", "database path override")
	dryFlag := flag.Bool("dry", false, "process messages but do not send them to the printer")
	flag.Parse()

	cfg, err := config.Load(configPath(*configFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *brokerFlag != "" {
		cfg.Broker.Addr = *brokerFlag
	}
	if *dbFlag != "" {
		cfg.Database.Path = *dbFlag
	}
	if *dryFlag {
		cfg.Worker.Dry = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.Logging.Level)
	logger.Info().Msg("starting printer worker")

	if cfg.Worker.Dry {
		logger.Warn().Msg("dry run mode enabled, messages will not be sent to the printer")
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open store")
	}
	defer st.Close()
	logger.Info().Str("path", cfg.Database.Path).Msg("store opened")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Broker.Addr})
	defer rdb.Close()

	startCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(startCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Str("addr", cfg.Broker.Addr).Msg("failed to connect to broker")
	}
	cancel()
	logger.Info().Str("addr", cfg.Broker.Addr).Msg("connected to broker")

	sub := relay.NewSubscriber(rdb, cfg.Broker.Stream, cfg.Broker.Group, cfg.Broker.Consumer)
	subCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := sub.Subscribe(subCtx); err != nil {
		cancel()
		logger.Fatal().Err(err).Str("stream", cfg.Broker.Stream).Msg("failed to subscribe")
	}
	cancel()
	logger.Info().Str("stream", cfg.Broker.Stream).Str("group", cfg.Broker.Group).Msg("subscribed")

	renderer := printer.NewRenderer(&printer.TCPDevice{
		Addr:    cfg.PrinterAddr(),
		Timeout: cfg.Printer.ConnectionTimeout.Std(),
	})

	dispatcher := relay.NewDispatcher(sub, st, renderer, cfg.Worker.Dry, *logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("dispatch loop failed")
		os.Exit(1)
	}

	logger.Info().Msg("worker stopped")
}
