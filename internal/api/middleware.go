package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/database"
)

const (
	localUserID  = "user_id"
	branchHeader = "Neon-Branch"
)

// Auth verifies an HS256 bearer token and stores its subject as the user
// id. Tokens without "sub" may carry "user_id" instead.
func Auth(secret []byte) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return common.NewUserError("missing bearer token", common.ErrUnauthorized)
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}); err != nil {
			return common.NewUserError("invalid token", fmt.Errorf("%w: %v", common.ErrUnauthorized, err))
		}

		sub, _ := claims.GetSubject()
		if sub == "" {
			sub, _ = claims["user_id"].(string)
		}
		if sub == "" {
			return common.NewUserError("token has no subject", common.ErrUnauthorized)
		}

		c.Locals(localUserID, sub)
		return c.Next()
	}
}

// CronAuth accepts requests bearing the cron secret. An empty secret
// rejects everything.
func CronAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, _ := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if secret == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(secret)) != 1 {
			return common.NewUserError("unauthorized", common.ErrUnauthorized)
		}
		return c.Next()
	}
}

// Branch routes the request to the database branch named in the
// Neon-Branch header.
func Branch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b := strings.TrimSpace(c.Get(branchHeader)); b != "" {
			c.SetUserContext(database.WithBranch(c.UserContext(), b))
		}
		return c.Next()
	}
}

// RateLimit allows limit requests per minute per user, or per IP before
// authentication.
func RateLimit(limit int) fiber.Handler {
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, ok := c.Locals(localUserID).(string); ok && uid != "" {
				return uid
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}

// RequestLogger writes one structured line per request. Handler errors are
// rendered here so the logged status is the one sent.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if uid, ok := c.Locals(localUserID).(string); ok {
			attrs = append(attrs, slog.String("user_id", uid))
		}
		slog.LogAttrs(c.UserContext(), level, "request", attrs...)
		return nil
	}
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals(localUserID).(string)
	return uid
}
