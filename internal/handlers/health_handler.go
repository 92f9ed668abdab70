package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// BrokerStatus is the part of an AMQP connection health needs.
type BrokerStatus interface {
	IsClosed() bool
}

type HealthHandler struct {
	DB        *sql.DB
	Broker    BrokerStatus
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db *sql.DB, broker BrokerStatus, version string) *HealthHandler {
	return &HealthHandler{DB: db, Broker: broker, Version: version, StartTime: time.Now()}
}

// @Summary      Health
// @Tags         System
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /healthz [get]
func (h *HealthHandler) Handle(c *gin.Context) {
	deps := map[string]string{}
	status := "healthy"

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			deps["database"] = fmt.Sprintf("unhealthy: %v", err)
			status = "degraded"
		} else {
			deps["database"] = "healthy"
		}
	} else {
		deps["database"] = "not configured"
		status = "degraded"
	}

	// the broker is optional; losing it only degrades audit delivery
	switch {
	case h.Broker == nil:
		deps["rabbitmq"] = "not configured"
	case h.Broker.IsClosed():
		deps["rabbitmq"] = "unhealthy: connection closed"
	default:
		deps["rabbitmq"] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
