package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"zanzar-backend/config"
	"zanzar-backend/internal/payment"
	"zanzar-backend/internal/queue"
	zanzarredis "zanzar-backend/internal/redis"
	"zanzar-backend/internal/repository"
	"zanzar-backend/internal/services"
	"zanzar-backend/internal/workers"
	"zanzar-backend/internal/ws"
	"zanzar-backend/pkg/database"
	"zanzar-backend/pkg/logger"
)

// The worker binary runs the deferred cancellation consumer. It shares
// the API's storage layer but holds no live connections, so expiry
// events reach clients through the redis bridge when one is configured.
func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var publisher ws.Publisher
	if cfg.RedisEnabled {
		client := zanzarredis.NewClient(zanzarredis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		publisher = zanzarredis.NewPublisher(client)
	}
	registry := ws.NewRegistry(cfg.MaxConnsPerProfile, l)
	dispatcher := ws.NewDispatcher(registry, publisher, l)

	gateway := payment.NewClient(payment.Config{BaseURL: cfg.AsaasBaseURL, APIKey: cfg.AsaasAPIKey})

	orderRepo := repository.NewOrderRepository(db)
	orderService := services.NewOrderService(db, orderRepo, dispatcher, nil, gateway, nil, cfg.CancelDelay, l)

	consumer, err := queue.NewConsumer(cfg.RabbitURL, cfg.CancelQueue, cfg.PrefetchCount, l)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()

	worker := workers.NewCancellationWorker(consumer, orderService, l)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			l.Errorf("cancellation worker stopped: %v", err)
		}
	}()

	l.Infof("cancellation worker started on queue %s", cfg.CancelQueue)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	l.Infof("shutting down worker...")
	cancel()
	wg.Wait()
	l.Infof("worker stopped gracefully")
}
