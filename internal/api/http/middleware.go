package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/observability"
	"github.com/spec-kit/shop-service/internal/persistence"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// csrfTokenContextKey is where the CSRF middleware stores the issued
// token so the /csrf-token route can read it back.
const csrfTokenContextKey = "csrfToken"

// RegisterMiddlewares attaches global middlewares such as error handling,
// logging, CORS, CSRF and rate limiting.
func RegisterMiddlewares(app *fiber.App, cfg config.HTTPConfig, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Csrf-Token",
	}))

	if cfg.GlobalRatePerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.GlobalRatePerMinute,
			Expiration: time.Minute,
		}))
	}

	// Token issuance endpoints carry no session yet, so they are exempt
	// from the double-submit check.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		ContextKey:     csrfTokenContextKey,
		CookieName:     cfg.CSRFCookieName,
		CookieSameSite: "Lax",
		Expiration:     time.Hour,
		Next: func(c *fiber.Ctx) bool {
			switch c.Path() {
			case "/auth/register", "/auth/login", "/auth/token":
				return true
			}
			return false
		},
	}))
}

// LoginRateLimiter counts login attempts per client IP in Redis and
// rejects the request once the per-minute budget is spent. Redis being
// unreachable does not lock customers out.
func LoginRateLimiter(rdb *persistence.Redis, logger *zap.Logger, attemptsPerMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if attemptsPerMinute <= 0 {
			return c.Next()
		}
		key := "login_attempts:" + c.IP()
		count, err := rdb.Client.Incr(c.UserContext(), key).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				logger.Warn("login rate limiter unavailable", zap.Error(err))
			}
			return c.Next()
		}
		if count == 1 {
			_ = rdb.Client.Expire(c.UserContext(), key, time.Minute).Err()
		}
		if count > int64(attemptsPerMinute) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(60))
			return apperrors.NewDomainError("TOO_MANY_REQUESTS", "too many login attempts, try again later", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				var fiberErr *fiber.Error
				if errors.As(err, &fiberErr) {
					err = apperrors.NewDomainError(errorCodeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
				}
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

func errorCodeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "BAD_REQUEST"
	}
}
