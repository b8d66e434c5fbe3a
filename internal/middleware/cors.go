package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSConfig returns the CORS middleware for the given origins.
func CORSConfig(allowedOrigins []string) fiber.Handler {
	return cors.New(cors.Config{
		// Never "*": the operator console is the only browser client.
		AllowOrigins: strings.Join(allowedOrigins, ","),

		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",

		AllowCredentials: false,
		ExposeHeaders:    "Content-Length,X-Request-ID",

		MaxAge: 3600, // 1 hour
	})
}
