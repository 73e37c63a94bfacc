package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty-server/internal/cache"
	"github.com/chattyapp/chatty-server/internal/config"
	"github.com/chattyapp/chatty-server/internal/dispatcher"
	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/gate"
	"github.com/chattyapp/chatty-server/internal/handler"
	"github.com/chattyapp/chatty-server/internal/hub"
	"github.com/chattyapp/chatty-server/internal/kafka"
	"github.com/chattyapp/chatty-server/internal/presence"
	"github.com/chattyapp/chatty-server/internal/repository"
	"github.com/chattyapp/chatty-server/internal/router"
	"github.com/chattyapp/chatty-server/internal/service"
	"github.com/chattyapp/chatty-server/pkg/database"
	"github.com/chattyapp/chatty-server/pkg/jwt"
	pkglog "github.com/chattyapp/chatty-server/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: cfg.Log.ServiceName,
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db,
		&domain.MessageModel{},
		&domain.ChatRoomModel{},
		&domain.UserModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Repositories
	messageRepo := repository.NewGormMessageRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Bootstrap the General room
	roomService := service.NewRoomService(roomRepo, userRepo)
	if err := roomService.EnsureGeneralRoom(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure General room")
	}

	// Redis recency cache
	messageCache, err := cache.NewRedisMessageCache(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer messageCache.Close()
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis cache connected")

	// Kafka producer
	producer, err := kafka.NewConfluentProducer(cfg.Kafka)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize kafka producer")
	}
	defer producer.Close()
	logger.Info().Str("brokers", cfg.Kafka.Brokers).Msg("kafka producer connected")

	// Token verification
	jwtManager, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry, cfg.JWT.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize jwt manager")
	}
	connGate := gate.New(jwtManager)

	// Live-channel hub
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Presence tracker
	tracker := presence.NewTracker(userRepo, wsHub)
	go tracker.Run(ctx)

	// Inbound pipeline and fan-out
	msgRouter := router.NewRouter(messageRepo, roomRepo, userRepo, messageCache, producer)
	messageService := service.NewMessageService(messageRepo, messageCache)
	disp := dispatcher.NewDispatcher(wsHub)

	consumers := []struct {
		topic   string
		handler kafka.RecordHandler
	}{
		{cfg.Kafka.PublicMessagesTopic, disp.HandlePublic},
		{cfg.Kafka.PrivateMessagesTopic, disp.HandlePrivate},
		{cfg.Kafka.NotificationsTopic, disp.HandleNotification},
	}
	for _, c := range consumers {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, c.topic, cfg.Kafka.GroupID, c.handler)
		if err != nil {
			logger.Fatal().Err(err).Str(pkglog.FieldTopic, c.topic).Msg("failed to create kafka consumer")
		}
		defer consumer.Close()
		go func(consumer *kafka.Consumer, topic string) {
			if err := consumer.Run(ctx); err != nil {
				logger.Error().Err(err).Str(pkglog.FieldTopic, topic).Msg("kafka consumer stopped")
			}
		}(consumer, c.topic)
	}

	// Handlers
	wsHandler := handler.NewWSHandler(wsHub, connGate, tracker, msgRouter, roomService, userRepo, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(roomService, messageService, userRepo, tracker, jwtManager)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	httpHandler.RegisterRoutes(r)
	r.GET("/ws", wsHandler.HandleWebSocket)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("chatty-server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("chatty-server stopped")
}
