package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"crcsite/internal/cache"
	"crcsite/internal/config"
	"crcsite/internal/log"
	"crcsite/internal/mailer"
	"crcsite/internal/queue"
	"crcsite/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	mail, err := mailer.New(cfg.SMTP, cfg.Domain)
	if err != nil {
		logger.Fatal().Err(err).Msg("mailer init failed")
	}

	processor := tasks.NewProcessor(mail, client, cfg.Redis.Stream, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		30*time.Second,
		logger,
		processor,
	)

	logger.Info().
		Str("stream", cfg.Redis.Stream).
		Str("group", cfg.Redis.Group).
		Msg("mail worker starting")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}

	logger.Info().Msg("worker exited cleanly")
}
