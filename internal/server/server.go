package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zanzar-backend/config"
	"zanzar-backend/internal/handler"
	"zanzar-backend/internal/middleware"
	"zanzar-backend/internal/transport/httpdto"
	"zanzar-backend/internal/ws"
	"zanzar-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	db         *gorm.DB
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Chat         *handler.ChatHandler
	Notification *handler.NotificationHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Socket       *ws.Handler
}

func New(cfg *config.Config, db *gorm.DB, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		db:     db,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	// Token travels as a query parameter: browsers cannot set headers on
	// a WebSocket handshake.
	s.engine.GET("/ws", handlers.Socket.Connect)

	authed := middleware.AuthMiddleware(s.config.JWTSecret)

	chats := s.engine.Group("/v1/chats", authed)
	{
		chats.POST("", handlers.Chat.Create)
		chats.GET("", handlers.Chat.List)
		chats.GET("/unread", handlers.Chat.Unread)
		chats.GET("/:id/messages", handlers.Chat.Messages)
		chats.POST("/:id/read", handlers.Chat.MarkConversationRead)
	}

	messages := s.engine.Group("/v1/messages", authed)
	{
		messages.POST("", handlers.Chat.Send)
		messages.PATCH("/:id", handlers.Chat.Edit)
		messages.DELETE("/:id", handlers.Chat.Delete)
	}

	notifications := s.engine.Group("/v1/notifications", authed)
	{
		notifications.POST("", handlers.Notification.Create)
		notifications.GET("", handlers.Notification.List)
		notifications.GET("/counts", handlers.Notification.Counts)
		notifications.POST("/:id/read", handlers.Notification.MarkRead)
		notifications.POST("/read-all", handlers.Notification.MarkAllRead)
	}

	cart := s.engine.Group("/v1/cart", authed)
	{
		cart.POST("", handlers.Cart.Add)
		cart.GET("", handlers.Cart.List)
		cart.PATCH("/:id", handlers.Cart.UpdateQuantity)
		cart.DELETE("/:id", handlers.Cart.Remove)
	}

	orders := s.engine.Group("/v1/orders", authed)
	{
		orders.POST("", handlers.Order.Buy)
		orders.GET("", handlers.Order.List)
		orders.GET("/:id", handlers.Order.Get)
		orders.POST("/:id/cancel", handlers.Order.Cancel)
		orders.POST("/:id/pix", handlers.Payment.CreatePixCharge)
	}

	// Asaas calls back unauthenticated; settlement is keyed by its
	// payment id alone.
	s.engine.POST("/v1/payments/webhook", handlers.Payment.Webhook)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
