package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// AuthMetrics holds the domain counters of the session lifecycle
type AuthMetrics struct {
	Logins          metric.Int64Counter
	LoginFailures   metric.Int64Counter
	Lockouts        metric.Int64Counter
	Rotations       metric.Int64Counter
	ReuseDetections metric.Int64Counter
	TokensCleaned   metric.Int64Counter
}

// NewAuthMetrics registers the auth counters on the global meter provider
func NewAuthMetrics(serviceName string) (*AuthMetrics, error) {
	meter := otel.GetMeterProvider().Meter(serviceName)

	logins, err := meter.Int64Counter("auth_logins_total",
		metric.WithDescription("Successful logins"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	loginFailures, err := meter.Int64Counter("auth_login_failures_total",
		metric.WithDescription("Failed login attempts"))
	if err != nil {
		return nil, fmt.Errorf("failed to create login failures counter: %w", err)
	}

	lockouts, err := meter.Int64Counter("auth_lockouts_total",
		metric.WithDescription("Accounts locked after repeated failures"))
	if err != nil {
		return nil, fmt.Errorf("failed to create lockouts counter: %w", err)
	}

	rotations, err := meter.Int64Counter("auth_token_rotations_total",
		metric.WithDescription("Refresh token rotations"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rotations counter: %w", err)
	}

	reuseDetections, err := meter.Int64Counter("auth_token_reuse_detections_total",
		metric.WithDescription("Refresh token reuse events causing family revocation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create reuse detections counter: %w", err)
	}

	tokensCleaned, err := meter.Int64Counter("auth_tokens_cleaned_total",
		metric.WithDescription("Stale refresh token records garbage-collected"))
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens cleaned counter: %w", err)
	}

	return &AuthMetrics{
		Logins:          logins,
		LoginFailures:   loginFailures,
		Lockouts:        lockouts,
		Rotations:       rotations,
		ReuseDetections: reuseDetections,
		TokensCleaned:   tokensCleaned,
	}, nil
}

// CountLoginFailure records a failed login with its reason
func (m *AuthMetrics) CountLoginFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.LoginFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
