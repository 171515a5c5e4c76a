package middleware

import (
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/cookbook-upload/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyMiddleware_ReplaysSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	var calls int32
	app := fiber.New()
	app.Use(IdempotencyMiddleware(repository.NewRedisResponseCache(redisClient, IdempotencyKeyPrefix), time.Hour))
	app.Post("/upload", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		return c.JSON(fiber.Map{"url": "https://blob.example.com/" + string(rune('0'+n))})
	})

	send := func() (int, string, string) {
		req := httptest.NewRequest("POST", "/upload", nil)
		req.Header.Set("X-Correlation-ID", "abc-123")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body), resp.Header.Get("X-Idempotent-Replay")
	}

	status, first, replay := send()
	assert.Equal(t, 200, status)
	assert.Empty(t, replay)

	require.Eventually(t, func() bool {
		return mr.Exists(IdempotencyKeyPrefix + "abc-123")
	}, 2*time.Second, 10*time.Millisecond)

	status, second, replay := send()
	assert.Equal(t, 200, status)
	assert.Equal(t, "true", replay)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_SkipsFailuresAndMissingID(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	app := fiber.New()
	app.Use(IdempotencyMiddleware(repository.NewRedisResponseCache(redisClient, IdempotencyKeyPrefix), time.Hour))
	app.Post("/upload", func(c *fiber.Ctx) error {
		return c.Status(500).JSON(fiber.Map{"error": "Upload failed"})
	})

	req := httptest.NewRequest("POST", "/upload", nil)
	req.Header.Set("X-Correlation-ID", "fail-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/upload", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, mr.Keys())
}

func signed(t *testing.T, secret string, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "chef-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestRequireBearer(t *testing.T) {
	const secret = "test-secret-key-123"

	app := fiber.New()
	app.Use(RequireBearer(secret, fiber.MethodPost))
	app.All("/upload", func(c *fiber.Ctx) error {
		sub, _ := c.Locals(SubjectKey).(string)
		return c.SendString(c.Method() + ":" + sub)
	})

	tests := []struct {
		name   string
		method string
		auth   string
		status int
		body   string
	}{
		{"valid", "POST", "Bearer " + signed(t, secret, jwt.SigningMethodHS256, time.Now().Add(time.Hour)), 200, "POST:chef-1"},
		{"missing", "POST", "", 401, ""},
		{"expired", "POST", "Bearer " + signed(t, secret, jwt.SigningMethodHS256, time.Now().Add(-time.Hour)), 401, ""},
		{"wrong secret", "POST", "Bearer " + signed(t, "other", jwt.SigningMethodHS256, time.Now().Add(time.Hour)), 401, ""},
		{"wrong alg", "POST", "Bearer " + signed(t, secret, jwt.SigningMethodHS512, time.Now().Add(time.Hour)), 401, ""},
		{"unguarded method", "GET", "", 200, "GET:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/upload", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.body, string(body))
			}
		})
	}
}
