package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const healthProbeTimeout = 2 * time.Second

type HealthHandler struct {
	mongoClient *mongo.Client
	redisClient *redis.Client
}

func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{mongoClient: mongoClient, redisClient: redisClient}
}

// Live reports process liveness.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the backing stores answer within the probe timeout.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
	defer cancel()

	checks := map[string]string{"mongo": "ok", "redis": "ok"}
	healthy := true

	if err := h.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		checks["mongo"] = err.Error()
		healthy = false
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, checks)
	}
	return c.JSON(http.StatusOK, checks)
}
