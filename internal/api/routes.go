package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/auth"
	"github.com/satriahrh/marcus/internal/websocket"
)

const deviceIDKey = "device_id"

// CommandCatalog lists the trigger phrases of each routing table
type CommandCatalog interface {
	Commands() map[string][]string
}

// Dependencies are the collaborators behind the HTTP routes
type Dependencies struct {
	Hub      *websocket.Hub
	Devices  repositories.DeviceRepository
	Issuer   *auth.Issuer
	Profiles repositories.ProfileRepository
	Commands CommandCatalog
}

type handlers struct {
	Dependencies
	logger *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	h := &handlers{Dependencies: deps, logger: logger}

	// Health check
	e.GET("/health", h.health)

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/device/auth", h.deviceAuth)

	v1.GET("/profile", h.getProfile, h.requireDevice)
	v1.GET("/commands", h.getCommands, h.requireDevice)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", h.connect, h.requireDevice)
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "marcus",
		Devices: h.Hub.ClientCount(),
	})
}

func (h *handlers) deviceAuth(c echo.Context) error {
	var req DeviceAuthRequest

	// Bind and validate request
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Failed to bind device auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SerialNumber == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Serial number and secret key are required",
		})
	}

	device, err := h.Devices.ValidateDevice(req.SerialNumber, req.SecretKey)
	if err != nil {
		h.logger.Warn("Device authentication failed",
			zap.String("serial_number", req.SerialNumber),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	token, expiresAt, err := h.Issuer.GenerateDeviceToken(device.ID)
	if err != nil {
		h.logger.Error("Failed to generate device token",
			zap.String("device_id", device.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	h.logger.Info("Device authenticated successfully",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		DeviceID:  device.ID,
	})
}

func (h *handlers) getProfile(c echo.Context) error {
	profile, err := h.Profiles.Load(c.Request().Context())
	if errors.Is(err, repositories.ErrProfileNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "profile_not_found",
			Message: "No business details have been stored yet",
		})
	}
	if err != nil {
		h.logger.Error("Failed to load business profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "profile_unavailable",
			Message: "Failed to load business details",
		})
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *handlers) getCommands(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Commands.Commands())
}

// connect hands an authenticated device over to the hub
func (h *handlers) connect(c echo.Context) error {
	deviceID, _ := c.Get(deviceIDKey).(string)
	return websocket.HandleWebSocket(h.Hub, c, deviceID)
}

// requireDevice accepts only requests bearing a valid device token
func (h *handlers) requireDevice(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, found := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !found || token == "" {
			h.logger.Warn("Request rejected: missing token", zap.String("path", c.Path()))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "JWT token is required in Authorization header",
			})
		}

		claims, err := h.Issuer.ValidateToken(token)
		if err != nil {
			h.logger.Warn("Request rejected: invalid token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired JWT token",
			})
		}

		if claims.Role != auth.RoleDevice {
			h.logger.Warn("Request rejected: invalid role", zap.String("role", claims.Role))
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "invalid_role",
				Message: "Only device tokens are accepted",
			})
		}

		if claims.DeviceID == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_token_claims",
				Message: "Device ID not found in token",
			})
		}

		// tokens of devices no longer registered are refused
		if _, err := h.Devices.GetByID(c.Request().Context(), claims.DeviceID); err != nil {
			h.logger.Warn("Request rejected: unknown device", zap.String("device_id", claims.DeviceID))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unknown_device",
				Message: "Device is not registered",
			})
		}

		c.Set(deviceIDKey, claims.DeviceID)
		return next(c)
	}
}
