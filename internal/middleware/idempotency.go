package middleware

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/cookbook-upload/internal/domain"
)

// IdempotencyKeyPrefix namespaces replayable upload responses in the cache
const IdempotencyKeyPrefix = "idempotency:upload:"

// IdempotencyMiddleware replays the stored response for a repeated X-Correlation-ID.
// A client retrying an upload whose response was lost gets the original URL
// back instead of a second object.
func IdempotencyMiddleware(cache domain.ResponseCache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Only apply to mutating methods
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		correlationID := c.Get("X-Correlation-ID")
		if correlationID == "" {
			// No correlation ID = no idempotency check
			return c.Next()
		}

		// Check if we have a cached response
		cached, err := cache.Get(c.UserContext(), correlationID)
		if err == nil && len(cached) > 0 {
			c.Set("X-Idempotent-Replay", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(fiber.StatusOK).Send(cached)
		}
		if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("Warning: idempotency lookup failed for %s: %v", correlationID, err)
		}

		// Process the request
		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			// fasthttp reuses the response buffer after the handler returns
			body := append([]byte(nil), c.Response().Body()...)
			if len(body) > 0 {
				// Cache with TTL (fire and forget)
				go func() {
					bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					if err := cache.Set(bgCtx, correlationID, body, ttl); err != nil {
						log.Printf("Warning: failed to cache response for %s: %v", correlationID, err)
					}
				}()
			}
		}

		return nil
	}
}
