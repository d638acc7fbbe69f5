package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"comment-insights-service/analyzer"
	"comment-insights-service/config"
	"comment-insights-service/fetcher"
	"comment-insights-service/handler"
	"comment-insights-service/metadata"
	"comment-insights-service/metrics"
	"comment-insights-service/router"
	"comment-insights-service/service"
	"comment-insights-service/storage"
	"comment-insights-service/worker"
)

func main() {
	cfg := config.Load()
	metrics.Init("comment-insights-service", "1.0.0", "production")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB, retrying while it comes up
	var mongoClient *mongo.Client
	connect := func() error {
		var err error
		mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return err
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		return mongoClient.Ping(pingCtx, nil)
	}
	if err := backoff.Retry(connect, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongoClient.Database("insightsdb")
	store := storage.NewReportStore(db)

	comments, err := fetcher.New(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		log.Fatal("Failed to create comment fetcher:", err)
	}

	chat := analyzer.NewOpenAIChat(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	svc := service.New(
		comments,
		metadata.NewScraper(cfg.YtDlpPath),
		analyzer.New(chat, rand.New(rand.NewSource(time.Now().UnixNano()))),
		rng,
	)

	// Create and start worker
	insightsWorker, err := worker.NewWorker(cfg.NATSUrl, svc, store)
	if err != nil {
		log.Fatal("Failed to create worker:", err)
	}
	if err := insightsWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start worker:", err)
	}

	h := handler.New(svc, store, insightsWorker.Conn())
	r := router.Setup(h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Comment insights service starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down comment insights service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	insightsWorker.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Comment insights service stopped")
}
