package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SubjectKey holds the verified token subject in fiber locals
const SubjectKey = "subject"

// RequireBearer validates an HS256 bearer token. When methods are given, only
// requests with one of those methods are checked; the rest pass through so the
// route can answer them itself.
func RequireBearer(jwtSecret string, methods ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(methods) > 0 && !containsMethod(methods, c.Method()) {
			return c.Next()
		}

		// Get token from Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Extract token (format: "Bearer <token>")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(SubjectKey, claims.Subject)
		return c.Next()
	}
}

func containsMethod(methods []string, method string) bool {
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}
