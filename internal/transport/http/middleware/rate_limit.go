package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitProblemType  = "https://learnhub.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// AttemptLimiter records an attempt for the identifier and reports whether it
// stays within budget.
type AttemptLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
}

// IdentifierFunc extracts the identifier used to scope rate limits (e.g., client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule binds a limiter to the identifier it throttles on.
type RateLimitRule struct {
	Name       string
	Limiter    AttemptLimiter
	Window     time.Duration
	Identifier IdentifierFunc
}

// ProblemDetails represents an RFC 9457 compatible error payload for rate limits.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
	RetryAfter int    `json:"retry_after"`
}

// ClientIPIdentifier builds an IdentifierFunc using the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// RateLimit enforces the provided rules, failing open when the backing store
// is unavailable.
func RateLimit(log *zap.Logger, rules ...RateLimitRule) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	filtered := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Limiter == nil || rule.Identifier == nil {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		filtered = append(filtered, rule)
	}

	return func(c *gin.Context) {
		for _, rule := range filtered {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			key := fmt.Sprintf("%s:%s", rule.Name, identifier)

			allowed, err := rule.Limiter.Allow(c.Request.Context(), key)
			if err != nil {
				log.Warn("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.String("identifier", identifier),
					zap.Error(err),
				)
				continue
			}

			if !allowed {
				respondRateLimited(c, rule.Window)
				return
			}
		}

		c.Next()
	}
}

func respondRateLimited(c *gin.Context, window time.Duration) {
	retrySeconds := int(math.Ceil(window.Seconds()))
	if retrySeconds < 0 {
		retrySeconds = 0
	}

	c.Header("Retry-After", strconv.Itoa(retrySeconds))

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	problem := ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", retrySeconds),
		Instance:   instance,
		RetryAfter: retrySeconds,
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, problem)
}
