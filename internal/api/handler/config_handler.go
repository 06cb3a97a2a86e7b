package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/proveloce/connect/internal/api/metrics"
	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

type ConfigHandler struct {
	configService ports.ConfigService
}

func NewConfigHandler(configService ports.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

type updateConfigRequest struct {
	Key      string `json:"key"      validate:"required"`
	Value    string `json:"value"    validate:"required"`
	Category string `json:"category"`
}

type liveConfigResponse struct {
	Values  map[string]string `json:"values"`
	Version int64             `json:"version"`
}

// Public returns the full configuration map, the slow tier clients fetch on
// page load.
//
// @Summary      Public configuration
// @Tags         config
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/config/public [get]
func (h *ConfigHandler) Public(c echo.Context) error {
	values, err := h.configService.Public(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(values))
}

// Live returns the hot-key subset with a version marker. Clients poll this
// endpoint on a fast cycle and re-fetch only when the version moves.
//
// @Summary      Live configuration
// @Tags         config
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/configuration [get]
func (h *ConfigHandler) Live(c echo.Context) error {
	ctx := c.Request().Context()
	values, err := h.configService.Live(ctx)
	if err != nil {
		return err
	}
	version, err := h.configService.LiveVersion(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(liveConfigResponse{Values: values, Version: version}))
}

// Update overwrites one configuration key. Superadmin only.
//
// @Summary      Update configuration
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        body  body      updateConfigRequest  true  "Key and value"
// @Success      200   {object}  envelope
// @Failure      403   {object}  errorEnvelope
// @Router       /api/admin/config [patch]
func (h *ConfigHandler) Update(c echo.Context) error {
	actor, err := ctxAuth(c)
	if err != nil {
		return err
	}

	var req updateConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.configService.Update(c.Request().Context(), actor, req.Key, req.Value, req.Category); err != nil {
		return err
	}
	tier := "standard"
	if domain.IsLiveKey(req.Key) {
		tier = "live"
	}
	metrics.ConfigUpdatesTotal.WithLabelValues(tier).Inc()
	return c.JSON(http.StatusOK, okMessage("configuration updated"))
}
