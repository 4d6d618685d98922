package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainDevice "beacon-tracker/internal/domain/device"
	"beacon-tracker/internal/middleware"
	"beacon-tracker/internal/usecase/device"
	appErrors "beacon-tracker/pkg/errors"
	"beacon-tracker/pkg/utils"
)

type DeviceHandler struct {
	service *device.Service
}

func NewDeviceHandler(service *device.Service) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("/active", h.ListActive)
		devices.GET("/icons", h.ListIcons)
	}
}

func (h *DeviceHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("/me", h.GetOwnDevice)
		devices.PUT("/me", h.SaveOwnDevice)
		devices.POST("/me/position", h.PublishPosition)
		devices.POST("/me/deactivate", h.Deactivate)
	}
}

// ListActive returns every device with is_active = true, most recently updated
// first. This is the payload a map client renders markers from.
func (h *DeviceHandler) ListActive(c *gin.Context) {
	devices, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Active devices retrieved successfully", devices)
}

func (h *DeviceHandler) ListIcons(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Icons retrieved successfully", domainDevice.Icons())
}

func (h *DeviceHandler) GetOwnDevice(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	d, err := h.service.GetOwnDevice(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "No device registered")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", d)
}

func (h *DeviceHandler) SaveOwnDevice(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req device.SaveDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := h.service.SaveOwnDevice(c.Request.Context(), userID, &req)
	if err != nil {
		utils.ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device saved successfully", d)
}

func (h *DeviceHandler) PublishPosition(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req device.PublishPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := h.service.PublishPosition(c.Request.Context(), userID, &req)
	if err != nil {
		utils.ErrorResponse(c, statusForError(err), err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Position recorded", d)
}

func (h *DeviceHandler) Deactivate(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), userID); err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "No device registered")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device deactivated", nil)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, appErrors.ErrLocationUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, appErrors.ErrNotConfigured):
		return http.StatusConflict
	case errors.Is(err, domainDevice.ErrDeviceNotFound):
		return http.StatusNotFound
	}

	var appErr *appErrors.AppError
	if errors.As(err, &appErr) && appErr.Code == "VALIDATION_ERROR" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
