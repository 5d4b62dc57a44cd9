package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker struct {
	infra Infrastructure
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{infra: infra}
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handler pings the backing stores concurrently and reports per-component status
func (h *HealthChecker) Handler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}

	results := make(chan result, 2)

	go func() {
		results <- result{name: "postgres", err: h.infra.Postgres().Ping(ctx)}
	}()
	go func() {
		results <- result{name: "redis", err: h.infra.Redis().Ping(ctx)}
	}()

	components := make(map[string]componentStatus, 2)
	healthy := true

	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			components[r.name] = componentStatus{Status: "down", Error: r.err.Error()}
			healthy = false
		} else {
			components[r.name] = componentStatus{Status: "up"}
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
