package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/cookbook-upload/internal/config"
	"github.com/mansoorceksport/cookbook-upload/internal/repository"
	"github.com/mansoorceksport/cookbook-upload/internal/server"
	"github.com/mansoorceksport/cookbook-upload/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Starting Cookbook Upload Service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		InstanceID:     cfg.OTEL.InstanceID,
		Token:          cfg.OTEL.Token,
		Enabled:        cfg.OTEL.Enabled,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		otelProvider.Shutdown(shutdownCtx)
	}()

	// Blob storage is the only hard dependency
	storeCtx, cancelStore := context.WithTimeout(ctx, 15*time.Second)
	blobStore, err := repository.NewS3BlobStore(storeCtx, cfg.S3)
	cancelStore()
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}
	log.Printf("✓ Blob store ready (bucket: %s)", cfg.S3.Bucket)

	deps := server.AppDependencies{
		Config:    cfg,
		BlobStore: blobStore,
	}

	if cfg.MongoDB.URI != "" {
		ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
		if cfg.OTEL.Enabled {
			mongoOpts.SetMonitor(otelmongo.NewMonitor())
		}

		mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()

		if err := mongoClient.Ping(ctxMongo, nil); err != nil {
			log.Fatalf("Failed to ping MongoDB: %v", err)
		}
		log.Println("✓ MongoDB connected, upload ledger enabled")

		deps.MongoDB = mongoClient.Database(cfg.MongoDB.Database)
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Println("✓ Redis connected, idempotent replays enabled")

		deps.RedisClient = redisClient
	}

	app := server.NewApp(deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
		return app.Listen(":" + cfg.Server.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down gracefully...")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
