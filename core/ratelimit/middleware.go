package ratelimit

import (
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"admin-backend/core/apperr"
	"admin-backend/core/logger"
	"admin-backend/core/metrics"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Middleware limits requests per client IP.
//
// Every limited response carries the X-RateLimit-* headers. Requests over the limit
// are rejected with a rate_limited failure (429) and a Retry-After header.
func Middleware(l *Limiter, cfg Config, log *zap.Logger, m *metrics.Metrics) fiber.Handler {
	skip := cfg.skipList()
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if isSkipped(c.Path(), skip) {
			return c.Next()
		}

		ip := ClientIP(c, cfg.TrustProxy)
		res := l.Hit(c.UserContext(), ip)

		c.Set(HeaderLimit, strconv.Itoa(res.Limit))
		c.Set(HeaderRemaining, strconv.Itoa(res.Remaining))
		c.Set(HeaderReset, strconv.FormatInt(res.ResetAt.Unix(), 10))

		if res.Exceeded() {
			m.RateLimitDecision(false)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(res.ResetAt, l.now())))
			logger.WithRequestID(log, c).Info("Rate limit exceeded",
				zap.String("ip", ip),
				zap.Int("count", res.Count),
				zap.Int("limit", res.Limit))
			return apperr.New(apperr.KindRateLimited, "too many requests, please retry later")
		}

		m.RateLimitDecision(true)
		return c.Next()
	}
}

func retryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// ClientIP extracts the client address. With trustProxy the first X-Forwarded-For
// entry wins, then X-Real-IP. The socket address is the fallback.
func ClientIP(c *fiber.Ctx, trustProxy bool) string {
	if trustProxy {
		if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
			first := xff
			if idx := strings.Index(xff, ","); idx != -1 {
				first = xff[:idx]
			}
			if ip := normalizeIP(first); ip != "" {
				return ip
			}
		}
		if ip := normalizeIP(c.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	if ip := normalizeIP(c.Context().RemoteIP().String()); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	raw = strings.Trim(raw, "[]")
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return ""
}

func isSkipped(path string, skip []string) bool {
	for _, p := range skip {
		if strings.HasSuffix(p, "/*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
