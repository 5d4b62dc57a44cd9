package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vidstream/auth-service/internal/dto"
	"github.com/vidstream/auth-service/internal/service"
	"github.com/vidstream/auth-service/internal/utils"
)

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(rateLimiter *service.RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			if errors.Is(err, service.ErrRateLimited) {
				remaining, _ := rateLimiter.GetRemainingRequests(c.Request.Context(), key, limit, window)
				c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
				c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

				c.JSON(http.StatusTooManyRequests, dto.Fail(http.StatusTooManyRequests, "Too many requests. Please slow down"))
				c.Abort()
				return
			}

			// Redis trouble never blocks traffic; the request proceeds
			c.Next()
			return
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, dto.Fail(http.StatusTooManyRequests, "Too many requests. Please slow down"))
			c.Abort()
			return
		}

		remaining, _ := rateLimiter.GetRemainingRequests(c.Request.Context(), key, limit, window)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// IPBasedKey extracts rate limit key from client IP
func IPBasedKey(c *gin.Context) string {
	// Try to get IP from X-Forwarded-For header (for proxies)
	ip := c.GetHeader("X-Forwarded-For")
	if ip != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(ip, ",")
		ip = strings.TrimSpace(ips[0])
	} else {
		ip = c.ClientIP()
	}

	return ip
}

// LoginKey combines the client IP and the login identifier so one attacker
// cannot lock out another user's attempts and one identifier cannot be
// brute-forced from many attempts against different accounts
func LoginKey(c *gin.Context) string {
	identifier := peekLoginIdentifier(c)
	ip := IPBasedKey(c)
	if identifier == "" {
		return ip
	}
	return fmt.Sprintf("%s-%s", ip, identifier)
}

// peekLoginIdentifier reads the login body for its identifier and restores
// the body for the handler's own binding
func peekLoginIdentifier(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var req dto.LoginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}

	return utils.SanitizeIdentifier(req.Identifier())
}
