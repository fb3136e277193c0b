package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tobiaswld/chatdesk/internal/ratelimit"
)

const identityKey = "identity"

// RequestLogger logs one line per request with method, path, status and
// latency.
func RequestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

// RateLimit rejects clients that exceed the window ceiling. Limiter backend
// errors fail open: a broken Redis must not take the API down with it.
func (h *Handler) RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			h.logger.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if !allowed {
			h.abortError(c, http.StatusTooManyRequests, codeRateLimited, "Too many requests", nil)
			return
		}

		c.Next()
	}
}

// requireAuth enforces a valid bearer token and stores the verified identity
// in the request context.
func (h *Handler) requireAuth(c *gin.Context) {
	token := parseAuthorizationToken(c.GetHeader("Authorization"))
	if token == "" {
		h.abortError(c, http.StatusUnauthorized, codeUnauthorized, "Authentication token missing", nil)
		return
	}

	identity, err := h.authService.VerifyToken(token)
	if err != nil {
		h.abortError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired token", err)
		return
	}

	c.Set(identityKey, identity)
	c.Next()
}

func parseAuthorizationToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}
