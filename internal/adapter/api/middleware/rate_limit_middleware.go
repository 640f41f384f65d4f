package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

// RateLimit throttles requests per client IP using the policy for action.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			allowed, wait := limiter.Allow("ip:"+ip, action)
			if !allowed {
				logger.Warn().Str("ip", ip).Str("action", action).Dur("retry_after", wait).Msg("rate limit exceeded")

				c.Response().Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
			}

			return next(c)
		}
	}
}
