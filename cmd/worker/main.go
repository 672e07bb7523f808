package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Beegash/BBWallet/internal/command"
	"github.com/Beegash/BBWallet/internal/config"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/logger"
	redisClient "github.com/Beegash/BBWallet/internal/redis"
	"github.com/Beegash/BBWallet/internal/repository"
	"go.uber.org/zap"
)

const consumerGroup = "bbwallet-milestones"

// The worker turns balance.updated events into milestone NFT records.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redis, err := redisClient.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	publisher := events.NewPublisher(cfg, redis, log.With(zap.String("component", "publisher")))
	defer publisher.Close()

	milestones := command.NewMilestoneService(
		repository.NewBlockchainRepository(db),
		publisher,
		log.With(zap.String("component", "milestones")),
	)

	subLog := log.With(zap.String("component", "subscriber"))
	var subscriber events.Subscriber
	if cfg.EventBroker == config.BrokerKafka {
		subscriber = events.NewKafkaSubscriber(
			cfg.KafkaBrokers,
			cfg.KafkaTopicPrefix+events.TransactionEventsStream,
			consumerGroup,
			milestones.HandleEvent,
			subLog,
		)
	} else {
		hostname, _ := os.Hostname()
		subscriber = events.NewRedisSubscriber(redis, events.SubscriberConfig{
			Group:    consumerGroup,
			Consumer: "worker-" + hostname,
			Stream:   events.TransactionEventsStream,
			Handler:  milestones.HandleEvent,
		}, subLog)
	}

	log.Info("BBWallet worker starting", zap.String("broker", cfg.EventBroker))
	if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Subscriber stopped", zap.Error(err))
	}
	log.Info("Worker stopped")
}
