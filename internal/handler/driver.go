package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// DriverHandler handles driver availability and location requests.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// DriverProfileResponse is the HTTP representation of a driver profile.
type DriverProfileResponse struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	LicenseNumber string   `json:"license_number,omitempty"`
	VehicleType   string   `json:"vehicle_type"`
	VehicleModel  string   `json:"vehicle_model,omitempty"`
	VehiclePlate  string   `json:"vehicle_plate,omitempty"`
	City          string   `json:"city,omitempty"`
	Rating        float64  `json:"rating"`
	TotalRides    int      `json:"total_rides"`
	IsAvailable   bool     `json:"is_available"`
	CurrentLat    *float64 `json:"current_lat,omitempty"`
	CurrentLng    *float64 `json:"current_lng,omitempty"`
}

func toDriverProfileResponse(profile *domain.DriverProfile) DriverProfileResponse {
	return DriverProfileResponse{
		ID:            profile.ID,
		UserID:        profile.UserID,
		LicenseNumber: profile.LicenseNumber,
		VehicleType:   string(profile.VehicleType),
		VehicleModel:  profile.VehicleModel,
		VehiclePlate:  profile.VehiclePlate,
		City:          profile.City,
		Rating:        profile.Rating,
		TotalRides:    profile.TotalRides,
		IsAvailable:   profile.IsAvailable,
		CurrentLat:    profile.CurrentLat,
		CurrentLng:    profile.CurrentLng,
	}
}

// Profile handles GET /v1/drivers/me
func (h *DriverHandler) Profile(c *gin.Context) {
	profile, err := h.driverService.GetProfile(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDriverProfileResponse(profile))
}

// UpdateLocationRequest is the HTTP request body for a location ping.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateLocation handles PUT /v1/drivers/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.driverService.UpdateLocation(c.Request.Context(), c.GetString(middleware.ContextUserID), req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetAvailabilityRequest is the HTTP request body for toggling availability.
type SetAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability handles PUT /v1/drivers/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	profile, err := h.driverService.SetAvailability(c.Request.Context(), c.GetString(middleware.ContextUserID), *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDriverProfileResponse(profile))
}
