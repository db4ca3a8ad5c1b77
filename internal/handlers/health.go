package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// HealthHandler handles API Gateway health check requests.
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler creates a health handler over the wired dependencies.
func NewHealthHandler(deps *Dependencies) *HealthHandler {
	return &HealthHandler{checks: deps.HealthChecks()}
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Stage        string            `json:"stage"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthChecks returns a check per optional dependency; nil means not configured.
func (d *Dependencies) HealthChecks() map[string]HealthCheck {
	checks := map[string]HealthCheck{"database": nil, "cache": nil}
	if d.DB != nil {
		checks["database"] = d.DB.HealthCheck
	}
	if d.Cache != nil {
		checks["cache"] = d.Cache.Ping
	}
	return checks
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Service:      "loan-application-engine",
		Version:      getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		Stage:        getEnvOrDefault("STAGE", "unknown"),
		Dependencies: make(map[string]string, len(h.checks)),
	}

	for name, check := range h.checks {
		if check == nil {
			response.Dependencies[name] = "not configured"
			continue
		}
		if err := check(ctx); err != nil {
			response.Dependencies[name] = "disconnected"
			response.Status = "degraded"
			continue
		}
		response.Dependencies[name] = "connected"
	}

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	body, _ := json.Marshal(response)
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    corsHeaders(),
		Body:       string(body),
	}, nil
}

// getEnvOrDefault returns environment variable or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
