package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roastery-service/config"
	"roastery-service/internal/api"
	"roastery-service/internal/broker"
	"roastery-service/internal/cms"
	"roastery-service/internal/mailer"
	"roastery-service/internal/payment"
	"roastery-service/internal/redisclient"
	"roastery-service/internal/service"
	"roastery-service/internal/store"
	"roastery-service/internal/util"
	"roastery-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting roastery service")

	tp, err := util.InitTracer("roastery-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	paymentClient := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.SecretKey)
	mailClient := mailer.NewClient(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.FromAddress, cfg.Mail.FromName)
	cmsClient := cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.Token, redisClient,
		time.Duration(cfg.CMS.CacheTTLSecs)*time.Second)

	orderService := service.NewOrderService(db, paymentClient, mailClient, eventPublisher,
		cfg.Business.DeliveryEstimateDays)
	catalogService := service.NewCatalogService(db, redisClient,
		time.Duration(cfg.Business.CatalogCacheTTLSecs)*time.Second)
	reviewService := service.NewReviewService(db)
	subscriptionService := service.NewSubscriptionService(db, mailClient)
	statsService := service.NewStatsService(db)

	ctx := context.Background()
	if err := catalogService.WarmCache(ctx); err != nil {
		log.Printf("Failed to warm catalog cache: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	analyticsConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	analyticsWorker := worker.NewAnalyticsWorker(analyticsConsumer, db)
	go func() {
		if err := analyticsWorker.Start(workerCtx); err != nil {
			log.Printf("Analytics worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, catalogService, reviewService,
		subscriptionService, statsService, cmsClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	analyticsWorker.Stop()

	log.Println("Server exited")
}
