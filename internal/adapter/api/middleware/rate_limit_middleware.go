package middleware

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"souqbalady/pkg/errors"
	"souqbalady/pkg/logger"
	"souqbalady/pkg/response"
)

// Limiter is satisfied by ratelimit.RateLimiter.
type Limiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// IPRateLimit throttles requests per client IP under action.
func IPRateLimit(limiter Limiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			ok, wait := limiter.Allow(ip, action)
			if !ok {
				logger.Warn("RATE LIMIT: %s blocked for %s (retry in %v)", ip, action, wait)

				seconds := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded, retry in %ds", seconds)))
			}

			return next(c)
		}
	}
}
