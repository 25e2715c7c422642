package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthCheckFunc reports whether a dependency is reachable
type HealthCheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks map[string]HealthCheckFunc
}

// NewHealthChecker creates a new health checker. Each named check runs in
// extended mode; nil checks are skipped.
func NewHealthChecker(checks map[string]HealthCheckFunc) *HealthChecker {
	c := make(map[string]HealthCheckFunc, len(checks))
	for name, fn := range checks {
		if fn != nil {
			c[name] = fn
		}
	}
	return &HealthChecker{checks: c}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := runCheck(r.Context(), check); err != nil {
				response.Status = "unhealthy"
				response.Checks[name] = "unhealthy: " + sanitizeErrorMessage(err.Error())
				continue
			}
			response.Checks[name] = "healthy"
		}
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func runCheck(ctx context.Context, check HealthCheckFunc) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return check(ctx)
}
