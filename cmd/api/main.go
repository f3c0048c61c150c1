package main

import (
	"context"
	"log"

	"zanzar-backend/config"
	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/handler"
	"zanzar-backend/internal/payment"
	"zanzar-backend/internal/queue"
	zanzarredis "zanzar-backend/internal/redis"
	"zanzar-backend/internal/repository"
	"zanzar-backend/internal/server"
	"zanzar-backend/internal/services"
	"zanzar-backend/internal/storage"
	"zanzar-backend/internal/ws"
	"zanzar-backend/pkg/database"
	"zanzar-backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.Profile{},
		&domain.Conversation{},
		&domain.Participant{},
		&domain.Message{},
		&domain.ReadStatus{},
		&domain.Notification{},
		&domain.UserStore{},
		&domain.Product{},
		&domain.ProductVariant{},
		&domain.ProductImage{},
		&domain.ProductVariantSize{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.UserCart{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fan-out plumbing. The redis bridge is optional: without it events
	// reach only connections on this instance.
	registry := ws.NewRegistry(cfg.MaxConnsPerProfile, l)
	var publisher ws.Publisher
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = zanzarredis.NewClient(zanzarredis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		publisher = zanzarredis.NewPublisher(redisClient)
	}
	dispatcher := ws.NewDispatcher(registry, publisher, l)
	if redisClient != nil {
		bridge := ws.NewRedisBridge(redisClient, dispatcher, l)
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				l.Errorf("redis bridge stopped: %v", err)
			}
		}()
	}

	profileRepo := repository.NewProfileRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	cartRepo := repository.NewCartRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	var signer services.URLSigner
	if cfg.S3Bucket != "" {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PresignTTL: cfg.S3PresignTTL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		signer = s3Client
	}

	var scheduler services.Scheduler
	rabbitScheduler, err := queue.NewScheduler(cfg.RabbitURL, cfg.CancelQueue, cfg.CancelDelayQueue, l)
	if err != nil {
		l.Errorf("rabbitmq unavailable, orders will not auto-cancel: %v", err)
	} else {
		scheduler = rabbitScheduler
		defer rabbitScheduler.Close()
	}

	gateway := payment.NewClient(payment.Config{BaseURL: cfg.AsaasBaseURL, APIKey: cfg.AsaasAPIKey})

	chatService := services.NewChatService(chatRepo, dispatcher, signer, l)
	notifService := services.NewNotificationService(notifRepo, chatRepo, profileRepo, dispatcher, l)
	cartService := services.NewCartService(db, cartRepo, catalogRepo, profileRepo, signer, l)
	orderService := services.NewOrderService(db, orderRepo, dispatcher, scheduler, gateway, signer, cfg.CancelDelay, l)
	paymentService := services.NewPaymentService(gateway, orderRepo, profileRepo, orderService, l)

	srv := server.New(cfg, db, l)
	srv.SetupRoutes(&server.Handlers{
		Chat:         handler.NewChatHandler(chatService),
		Notification: handler.NewNotificationHandler(notifService),
		Cart:         handler.NewCartHandler(cartService),
		Order:        handler.NewOrderHandler(orderService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Socket:       ws.NewHandler(cfg.JWTSecret, registry, dispatcher, chatService, l),
	})

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
