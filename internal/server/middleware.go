package server

import (
	"context"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/auth"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	localRequestID  = "requestId"
	localStudentID  = "userId"
)

func recoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error("Recovered from panic", "request_id", c.Locals(localRequestID), "panic", e)
		},
	})
}

// requestContext stamps a request id, bounds the request's context and writes the access log line
func requestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		c.Locals(localRequestID, id)

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Resolve the status now so the log line shows what the client gets
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		log.Info("Request handled",
			"request_id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds())
		return err
	}
}

func corsMiddleware(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ", "),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + headerRequestID,
	})
}

func rateLimiter(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return jsonError(c, fiber.StatusTooManyRequests, "Too many requests, try again later")
		},
	})
}

// requireAuth verifies the bearer token and stores the student id for handlers
func requireAuth(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		studentID, err := verifier.VerifyHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			log.Debug("Rejected request", "request_id", c.Locals(localRequestID), "error", err)
			return err
		}
		c.Locals(localStudentID, studentID)
		return c.Next()
	}
}

// studentID returns the authenticated caller.  Only valid behind requireAuth.
func studentID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localStudentID).(uint)
	return id
}
