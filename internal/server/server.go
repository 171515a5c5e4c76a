package server

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/mansoorceksport/cookbook-upload/internal/config"
	"github.com/mansoorceksport/cookbook-upload/internal/domain"
	"github.com/mansoorceksport/cookbook-upload/internal/formdata"
	"github.com/mansoorceksport/cookbook-upload/internal/handler"
	"github.com/mansoorceksport/cookbook-upload/internal/keygen"
	"github.com/mansoorceksport/cookbook-upload/internal/middleware"
	"github.com/mansoorceksport/cookbook-upload/internal/repository"
	"github.com/mansoorceksport/cookbook-upload/internal/service"
	"github.com/mansoorceksport/cookbook-upload/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application.
// RedisClient and MongoDB are optional.
type AppDependencies struct {
	Config      *config.Config
	BlobStore   domain.BlobStore
	Keys        domain.KeyGenerator // defaults to a ULID-based generator
	MongoDB     *mongo.Database
	RedisClient *redis.Client
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	cfg := deps.Config

	keys := deps.Keys
	if keys == nil {
		keys = keygen.New(cfg.Upload.KeyPrefix, cfg.Upload.DefaultExtension)
	}

	opts := []service.UploadServiceOption{
		service.WithDefaults(formdata.Defaults{
			Filename:    cfg.Upload.DefaultFilename,
			ContentType: cfg.Upload.DefaultContentType,
		}),
		service.WithAccess(domain.Access(cfg.Upload.Access)),
	}
	if deps.MongoDB != nil {
		opts = append(opts, service.WithLedger(repository.NewMongoUploadLedger(deps.MongoDB)))
	}

	uploadService := service.NewUploadService(deps.BlobStore, keys, opts...)
	uploadHandler := handler.NewUploadHandler(uploadService)

	app := fiber.New(fiber.Config{
		AppName:   "Cookbook Upload API",
		BodyLimit: int(cfg.Server.MaxUploadSizeMB * 1024 * 1024),
		// formdata decodes the raw body itself; fasthttp must not reject it first
		DisablePreParseMultipartForm: true,
		ErrorHandler:                 customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "cookbook-upload",
		})
	})

	uploadChain := []fiber.Handler{}
	if cfg.JWT.Secret != "" {
		uploadChain = append(uploadChain, middleware.RequireBearer(cfg.JWT.Secret, fiber.MethodPost))
	}
	if deps.RedisClient != nil {
		ttl := cfg.Redis.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		cache := repository.NewRedisResponseCache(deps.RedisClient, middleware.IdempotencyKeyPrefix)
		uploadChain = append(uploadChain, middleware.IdempotencyMiddleware(cache, ttl))
	}
	uploadChain = append(uploadChain, uploadHandler.Upload)

	// Every method reaches the handler so non-POST requests get the JSON 405
	app.All("/upload", uploadChain...)
	app.All("/api/upload", uploadChain...)

	listChain := []fiber.Handler{}
	if cfg.JWT.Secret != "" {
		listChain = append(listChain, middleware.RequireBearer(cfg.JWT.Secret))
	}
	listChain = append(listChain, uploadHandler.ListUploads)
	app.Get("/uploads", listChain...)

	return app
}

// customErrorHandler renders framework errors with the status text only;
// parser and transport details stay in the log.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	message := utils.StatusMessage(code)
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
